package catalog

import "testing"

func sampleEntries() []Entry {
	return []Entry{
		{ID: "p1", Name: "Compressor relay", Description: "Starting relay for refrigerator compressors", Price: "4500.00", Unit: "unit", Type: "product"},
		{ID: "p2", Name: "Compressor", Description: "Refrigerator compressor, 1/4 HP", Price: "38000.00", Unit: "unit", Type: "product"},
		{ID: "s1", Name: "Diagnostic visit", Description: "On-site diagnostic and inspection", Price: "6000.00", Unit: "hour", Type: "service"},
		{ID: "s2", Name: "Gas recharge", Description: "Refrigerant gas recharge service", Price: "9000.00", Unit: "unit", Type: "service"},
	}
}

func TestMatch_PicksBestNameOverlap(t *testing.T) {
	best, confidence, _ := Match("compressor relay", "unit", sampleEntries(), "part")
	if best == nil {
		t.Fatal("expected a match")
	}
	if best.Entry.ID != "p1" {
		t.Fatalf("expected p1, got %s (confidence %v)", best.Entry.ID, confidence)
	}
}

func TestMatch_TypeFilterExcludesOtherType(t *testing.T) {
	best, _, _ := Match("gas recharge", "unit", sampleEntries(), "part")
	if best != nil && best.Entry.Type != "product" {
		t.Fatalf("type filter leaked a non-product entry: %+v", best.Entry)
	}
}

func TestMatch_TypeFilterFallsBackWhenNoCandidatesOfType(t *testing.T) {
	onlyServices := []Entry{
		{ID: "s1", Name: "Gas recharge", Description: "Refrigerant gas recharge service", Unit: "unit", Type: "service"},
	}
	best, _, _ := Match("gas recharge", "unit", onlyServices, "part")
	if best == nil {
		t.Fatal("expected fallback to full catalog when type filter has no matches")
	}
}

func TestMatch_DiscardsBelowThreshold(t *testing.T) {
	best, _, _ := Match("completely unrelated widget xyz", "", sampleEntries(), "")
	if best != nil {
		t.Fatalf("expected no match above discard threshold, got %+v", best.Entry)
	}
}

func TestMatch_UnitBonusBreaksNearTie(t *testing.T) {
	entries := []Entry{
		{ID: "a", Name: "refrigerant gas", Description: "", Unit: "kg", Type: "product"},
		{ID: "b", Name: "refrigerant gas", Description: "", Unit: "unit", Type: "product"},
	}
	best, _, _ := Match("refrigerant gas r134a", "unit", entries, "")
	if best == nil || best.Entry.ID != "b" {
		t.Fatalf("expected unit bonus to prefer entry b, got %+v", best)
	}
}

// With identical name tokens, a matching unit scores exactly 0.1 above a
// mismatched unit (below the clamp).
func TestMatch_UnitBonusIsExactlyPointOne(t *testing.T) {
	entry := Entry{ID: "a", Name: "refrigerant gas", Unit: "kg", Type: "product"}
	_, mismatch, _ := Match("refrigerant gas r134a", "unit", []Entry{entry}, "")
	_, match, _ := Match("refrigerant gas r134a", "kg", []Entry{entry}, "")
	diff := match - mismatch
	if diff < 0.0999 || diff > 0.1001 {
		t.Fatalf("unit bonus = %v, want exactly 0.1", diff)
	}
}

func TestMatch_AlternativesCappedAtThree(t *testing.T) {
	var entries []Entry
	for i := 0; i < 6; i++ {
		entries = append(entries, Entry{ID: string(rune('a' + i)), Name: "compressor part unit", Type: "product"})
	}
	_, _, alts := Match("compressor part unit", "", entries, "")
	if len(alts) > 3 {
		t.Fatalf("expected at most 3 alternatives, got %d", len(alts))
	}
}

// Monotonicity: adding more overlapping tokens to the query never decreases
// the score against a fixed entry.
func TestMatch_Monotonicity(t *testing.T) {
	entry := Entry{Name: "compressor starting relay", Type: "product"}
	entries := []Entry{entry}

	_, scoreShort, _ := Match("compressor relay", "", entries, "")
	_, scoreLong, _ := Match("compressor starting relay", "", entries, "")

	if scoreLong < scoreShort {
		t.Fatalf("expected fuller overlap to score >= partial overlap: short=%v long=%v", scoreShort, scoreLong)
	}
}

// Symmetry of the underlying Jaccard computation: swapping which side is
// "query" and which is "entry" yields the same set-similarity number.
func TestJaccard_Symmetric(t *testing.T) {
	a := tokenize("compressor starting relay")
	b := tokenize("starting relay unit")
	if jaccard(a, b) != jaccard(b, a) {
		t.Fatalf("jaccard not symmetric: %v vs %v", jaccard(a, b), jaccard(b, a))
	}
}

func TestTokenize_DropsStopwordsAndShortTokens(t *testing.T) {
	tokens := tokenize("a relay for the compressor of an old unit")
	for _, sw := range []string{"a", "for", "the", "of", "an"} {
		if tokens[sw] {
			t.Fatalf("expected stopword %q to be dropped", sw)
		}
	}
	if !tokens["relay"] || !tokens["compressor"] {
		t.Fatalf("expected content tokens to survive, got %v", tokens)
	}
}
