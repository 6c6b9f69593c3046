package phone

import (
	"regexp"
	"testing"
)

var canonicalShape = regexp.MustCompile(`^\+549\d{9,12}$`)

func TestNormalize_BasicForms(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		areaCd string
		want   string
		wantOK bool
	}{
		{"already canonical", "+5493434890284", "387", "+5493434890284", true},
		{"intl prefix with spaces", "54 9 343 4890284", "387", "+5493434890284", true},
		{"15-prefixed local, needs area code", "15-4890284", "343", "+5493434890284", true},
		{"bare local needs area code", "4890284", "343", "+5493434890284", true},
		{"too short", "12345", "343", "", false},
		{"empty", "", "343", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Normalize(tc.raw, tc.areaCd)
			if ok != tc.wantOK {
				t.Fatalf("Normalize(%q) ok=%v, want %v", tc.raw, ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"0343-4890284", "+5493434890284", "15-4890284", "011 15-1234-5678",
	}
	for _, in := range inputs {
		first, ok := Normalize(in, "387")
		if !ok {
			continue
		}
		second, ok2 := Normalize(first, "387")
		if !ok2 || second != first {
			t.Fatalf("normalize not idempotent for %q: first=%q second=%q ok2=%v", in, first, second, ok2)
		}
	}
}

func TestNormalize_Shape(t *testing.T) {
	inputs := []string{"0343-4890284", "15-4890284", "011 15-1234-5678", "4890284"}
	for _, in := range inputs {
		got, ok := Normalize(in, "387")
		if !ok {
			continue
		}
		if !canonicalShape.MatchString(got) {
			t.Fatalf("Normalize(%q) = %q does not match canonical shape", in, got)
		}
	}
}

func TestSplitAndNormalize_PhoneSplitScenario(t *testing.T) {
	got := SplitAndNormalize("0343-4890284 / 0343-15467426", "387")
	if len(got) != 2 {
		t.Fatalf("expected 2 numbers, got %v", got)
	}
	for _, n := range got {
		if !regexp.MustCompile(`^\+549343`).MatchString(n) {
			t.Fatalf("number %q does not start with +549343", n)
		}
	}
}

func TestSplitAndNormalize_PlusTokenStaysAtomic(t *testing.T) {
	got := SplitAndNormalize("+54 9 343 4890284", "387")
	if len(got) != 1 || got[0] != "+5493434890284" {
		t.Fatalf("expected single atomic number, got %v", got)
	}
}

func TestSplitAndNormalize_Dedup(t *testing.T) {
	got := SplitAndNormalize("0343-4890284 / 0343-4890284", "387")
	if len(got) != 1 {
		t.Fatalf("expected dedup to 1 number, got %v", got)
	}
}

func TestSplitAndNormalize_EmptyInput(t *testing.T) {
	if got := SplitAndNormalize("", "387"); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}
