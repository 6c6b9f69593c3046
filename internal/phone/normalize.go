// Package phone normalizes Argentine phone strings into the canonical
// "+549<area><local>" form customers are messaged at.
//
// Parsing leans on libphonenumber's AR metadata, which already understands
// the "0" trunk prefix, the "15" mobile local-dialing prefix, and the "9"
// mobile insertion. Inputs the library rejects — bare locals missing their
// area code, shortened numbers — fall through to a digit-level completion
// step that fills in the caller's default area code.
package phone

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "AR"

var nonDigitPlus = regexp.MustCompile(`[^\d+]`)

// areaCodeFromZero matches a leading area-code-looking token at the start of
// a raw phone blob: a "0" followed by a 3- or 4-digit area code, e.g.
// "0343-4890284" or "03543 421234". Two-digit codes such as "011" do not
// match.
var areaCodeFromZero = regexp.MustCompile(`^0(\d{3,4})`)
var areaCodeFromThree = regexp.MustCompile(`^(3\d{2})\D`)

// landlineMobile matches the "<landline>-154-<mobile>" shorthand some
// customers use for a landline whose owner is also reachable on a mobile
// extension of the same line.
var landlineMobile = regexp.MustCompile(`^(\d{6,10})-154-(\d{4,8})$`)

// Normalize parses a single Argentine phone string into canonical
// international form "+549<area><local>". The second return value is false
// when the input cannot be reconciled into a valid number.
func Normalize(raw string, defaultAreaCode string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}

	if number, err := phonenumbers.Parse(trimmed, defaultRegion); err == nil && phonenumbers.IsValidNumber(number) {
		return mobileE164(number), true
	}

	return completeDigits(trimmed, defaultAreaCode)
}

// mobileE164 renders a parsed number in the +549 mobile form. Landlines
// format as +54<area><local>; customers are reached over messaging, so the
// canonical address always carries the mobile "9".
func mobileE164(number *phonenumbers.PhoneNumber) string {
	out := phonenumbers.Format(number, phonenumbers.E164)
	if !strings.HasPrefix(out, "+549") {
		out = "+549" + strings.TrimPrefix(out, "+54")
	}
	return out
}

// completeDigits reconciles the inputs libphonenumber rejects: a bare local
// without its area code, a "15"-prefixed mobile local, or a shortened
// number. It strips country/mobile/trunk prefixes, attaches the caller's
// default area code where one is missing, and accepts 9-12 remaining
// digits.
func completeDigits(raw, defaultAreaCode string) (string, bool) {
	digits := nonDigitPlus.ReplaceAllString(raw, "")
	digits = strings.TrimPrefix(digits, "+")
	digits = strings.TrimPrefix(digits, "54")
	digits = strings.TrimPrefix(digits, "9")
	digits = strings.TrimPrefix(digits, "0")

	if strings.HasPrefix(digits, "15") && len(digits) >= 9 {
		digits = digits[2:]
		if len(digits) <= 8 {
			digits = defaultAreaCode + digits
		}
	} else if len(digits) >= 6 && len(digits) <= 8 {
		digits = defaultAreaCode + digits
	}

	if len(digits) < 9 || len(digits) > 12 {
		return "", false
	}

	return "+549" + digits, true
}

// SplitAndNormalize splits a raw field that may carry more than one phone
// number and returns the distinct canonical forms, in first-occurrence
// order.
func SplitAndNormalize(raw string, defaultAreaCode string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var candidates []string
	for _, segment := range strings.Split(raw, "/") {
		candidates = append(candidates, tokenizeSegment(segment)...)
	}
	if len(candidates) == 0 {
		return nil
	}

	effectiveArea := defaultAreaCode
	if upgraded, ok := upgradeAreaCode(candidates[0]); ok {
		effectiveArea = upgraded
	}

	var results []string
	seen := make(map[string]bool)
	add := func(raw string) {
		if n, ok := Normalize(raw, effectiveArea); ok && !seen[n] {
			seen[n] = true
			results = append(results, n)
		}
	}

	for _, token := range candidates {
		if m := landlineMobile.FindStringSubmatch(token); m != nil {
			add(m[1])
			add("15" + m[2])
			continue
		}
		add(token)
	}

	return results
}

// tokenizeSegment splits one "/"-delimited segment on internal whitespace,
// then rejoins an "<area-code> <local>" pair that whitespace-splitting would
// otherwise tear into two separate candidate numbers. A token already
// carrying a leading "+" is left atomic.
func tokenizeSegment(segment string) []string {
	fields := strings.Fields(segment)
	var out []string
	for i := 0; i < len(fields); i++ {
		field := fields[i]
		if strings.HasPrefix(field, "+") {
			// whitespace inside a "+"-prefixed token does not split it:
			// "+54 9 343 4890284" is one number, not four
			for i+1 < len(fields) && isDigits(fields[i+1]) {
				field += fields[i+1]
				i++
			}
			out = append(out, field)
			continue
		}
		if i+1 < len(fields) && looksLikeAreaCode(field) && isDigits(fields[i+1]) {
			out = append(out, field+fields[i+1])
			i++
			continue
		}
		out = append(out, field)
	}
	return out
}

func looksLikeAreaCode(token string) bool {
	if !isDigits(strings.TrimPrefix(token, "0")) {
		return false
	}
	digits := strings.TrimPrefix(token, "0")
	return strings.HasPrefix(token, "0") && len(digits) >= 2 && len(digits) <= 4
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// upgradeAreaCode inspects the first candidate token of a multi-number field
// for an embedded area code that should become the default for the rest of
// the call.
func upgradeAreaCode(token string) (string, bool) {
	if m := areaCodeFromZero.FindStringSubmatch(token); m != nil {
		return m[1], true
	}
	if m := areaCodeFromThree.FindStringSubmatch(token + " "); m != nil {
		return m[1], true
	}
	return "", false
}
