// Package catalog implements the fuzzy matcher that scores free-text item
// descriptions against an organization's priced catalog.
//
// Scoring is Jaccard similarity over stopword-filtered token sets, with a
// small bonus for a matching unit. Edit-distance libraries solve a
// different problem than the token-overlap one this matcher needs, so the
// set arithmetic is done directly here.
package catalog

import (
	"sort"
	"strings"
	"unicode"
)

// Entry is one row of the organization's read-only priced catalog.
// Price is carried as a decimal string by the caller; the
// matcher never touches money, only name/description/unit/type.
type Entry struct {
	ID          string
	Name        string
	Description string
	Price       string
	Unit        string
	Type        string // "product" or "service"
}

// MatchResult is one scored candidate returned by Match.
type MatchResult struct {
	Entry Entry
	Score float64
}

var stopwords = map[string]bool{
	"of": true, "the": true, "a": true, "an": true, "for": true,
	"with": true, "by": true, "and": true, "in": true,
	"de": true, "la": true, "el": true, "los": true, "las": true,
	"un": true, "una": true, "para": true, "con": true, "por": true, "y": true, "en": true,
}

const discardThreshold = 0.2
const unitBonus = 0.1
const descriptionScale = 0.7

// Match scores extractedName/extractedUnit against the catalog, optionally
// restricted to typeFilter ("part" maps to catalog type "product", "service"
// maps to "service"; any other value is unfiltered). It returns the best
// match (if any candidate survives the discard threshold), its confidence,
// and up to three alternatives ordered by descending score.
func Match(extractedName, extractedUnit string, entries []Entry, typeFilter string) (best *MatchResult, confidence float64, alternatives []MatchResult) {
	nameTokens := tokenize(extractedName)

	candidates := filterByType(entries, typeFilter)
	if len(candidates) == 0 {
		candidates = entries
	}

	scored := make([]MatchResult, 0, len(candidates))
	for _, entry := range candidates {
		score := scoreEntry(nameTokens, extractedUnit, entry)
		if score <= discardThreshold {
			continue
		}
		scored = append(scored, MatchResult{Entry: entry, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) == 0 {
		return nil, 0, nil
	}

	top := scored[0]
	alts := scored[1:]
	if len(alts) > 3 {
		alts = alts[:3]
	}
	return &top, top.Score, alts
}

func filterByType(entries []Entry, typeFilter string) []Entry {
	if typeFilter != "part" && typeFilter != "service" {
		return entries
	}
	wantType := "product"
	if typeFilter == "service" {
		wantType = "service"
	}
	var out []Entry
	for _, e := range entries {
		if strings.EqualFold(e.Type, wantType) {
			out = append(out, e)
		}
	}
	return out
}

func scoreEntry(nameTokens map[string]bool, extractedUnit string, entry Entry) float64 {
	nameScore := jaccard(nameTokens, tokenize(entry.Name))
	descScore := jaccard(nameTokens, tokenize(entry.Description)) * descriptionScale

	score := nameScore
	if descScore > score {
		score = descScore
	}

	if extractedUnit != "" && strings.EqualFold(extractedUnit, entry.Unit) {
		score += unitBonus
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	union := make(map[string]bool, len(a)+len(b))
	for t := range a {
		union[t] = true
		if b[t] {
			intersection++
		}
	}
	for t := range b {
		union[t] = true
	}
	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}

// tokenize lowercases, strips non-word characters, splits on whitespace,
// drops a small stopword set and tokens of length <= 2.
func tokenize(s string) map[string]bool {
	lowered := strings.ToLower(s)
	var sb strings.Builder
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(' ')
		}
	}

	tokens := make(map[string]bool)
	for _, field := range strings.Fields(sb.String()) {
		if len(field) <= 2 {
			continue
		}
		if stopwords[field] {
			continue
		}
		tokens[field] = true
	}
	return tokens
}
