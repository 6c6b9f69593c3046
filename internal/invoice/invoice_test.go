package invoice

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"campotech-ai-engine/internal/ports"
)

type fakeChat struct {
	response string
}

func (f fakeChat) Complete(_ context.Context, _, _ string, _ ports.CompletionOptions) (string, error) {
	return f.response, nil
}

type fakeCatalog struct {
	entries []ports.CatalogEntry
}

func (c fakeCatalog) ListPriceItems(_ context.Context, _ string) ([]ports.CatalogEntry, error) {
	return c.entries, nil
}

const mixedMatchReport = `{
  "parts": [
    {"name": "compressor relay starting", "quantity": 1, "unit": "unit", "source_span": "le puse un relay", "confidence": 0.9},
    {"name": "compressor unit", "quantity": 1, "unit": "unit", "source_span": "cambie el compresor", "confidence": 0.7},
    {"name": "zzz unrelated widget", "quantity": 1, "unit": "unit", "source_span": "una pieza rara", "confidence": 0.5}
  ],
  "services": [],
  "overall_confidence": 0.8
}`

func TestGenerate_MixedMatchScenario(t *testing.T) {
	entries := []ports.CatalogEntry{
		{ID: "p1", Name: "compressor relay starting", Price: "4500.00", Unit: "unit", Type: "product"},
		{ID: "p2", Name: "compressor unit old", Price: "38000.00", Unit: "unit", Type: "product"},
	}
	g := New(Collaborators{Chat: fakeChat{response: mixedMatchReport}, Catalog: fakeCatalog{entries: entries}}, Thresholds{})

	draft, err := g.Generate(context.Background(), "org1", "job1", "el tecnico reemplazo piezas")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(draft.LineItems) != 3 {
		t.Fatalf("expected 3 line items, got %d", len(draft.LineItems))
	}

	first, second, third := draft.LineItems[0], draft.LineItems[1], draft.LineItems[2]

	if first.Total == nil || first.NeedsReview {
		t.Fatalf("expected first line priced and clean, got %+v", first)
	}
	if second.Total == nil || !second.NeedsReview {
		t.Fatalf("expected second line priced and review-flagged, got %+v", second)
	}
	if third.Total != nil || !third.NeedsReview || third.SourceType != "custom" {
		t.Fatalf("expected third line unpriced custom review-flagged, got %+v", third)
	}

	wantSubtotal := first.Total.Add(*second.Total)
	if !draft.Subtotal.Equal(round2(wantSubtotal)) {
		t.Fatalf("subtotal mismatch: got %v want %v", draft.Subtotal, wantSubtotal)
	}
	if !draft.RequiresReview {
		t.Fatal("expected requires_review true")
	}
}

func TestGenerate_Totals(t *testing.T) {
	entries := []ports.CatalogEntry{
		{ID: "p1", Name: "compressor relay", Price: "1000.00", Unit: "unit", Type: "product"},
	}
	report := `{"parts":[{"name":"compressor relay","quantity":2,"unit":"unit","confidence":0.9}],"services":[]}`
	g := New(Collaborators{Chat: fakeChat{response: report}, Catalog: fakeCatalog{entries: entries}}, Thresholds{})

	draft, err := g.Generate(context.Background(), "org1", "job1", "cambie dos relays")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	wantSubtotal := decimal.NewFromInt(2000)
	if !draft.Subtotal.Equal(wantSubtotal) {
		t.Fatalf("subtotal = %v, want %v", draft.Subtotal, wantSubtotal)
	}
	wantTax := round2(wantSubtotal.Mul(TaxRate))
	if !draft.TaxAmount.Equal(wantTax) {
		t.Fatalf("tax = %v, want %v", draft.TaxAmount, wantTax)
	}
	if !draft.Total.Equal(wantSubtotal.Add(wantTax)) {
		t.Fatalf("total = %v, want subtotal+tax", draft.Total)
	}
}

func TestGenerate_ReviewFlagLaw(t *testing.T) {
	entries := []ports.CatalogEntry{}
	report := `{"parts":[{"name":"totally unmatched item","quantity":1,"unit":"unit","confidence":0.5}],"services":[]}`
	g := New(Collaborators{Chat: fakeChat{response: report}, Catalog: fakeCatalog{entries: entries}}, Thresholds{})

	draft, err := g.Generate(context.Background(), "org1", "job1", "algo")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, li := range draft.LineItems {
		if li.UnitPrice == nil && !li.NeedsReview {
			t.Fatalf("line with absent unit_price must be needs_review, got %+v", li)
		}
	}
}

func TestGenerate_CatalogFetchFailureYieldsAllCustom(t *testing.T) {
	report := `{"parts":[{"name":"compressor relay","quantity":1,"unit":"unit","confidence":0.9}],"services":[]}`
	g := New(Collaborators{Chat: fakeChat{response: report}, Catalog: failingCatalog{}}, Thresholds{})

	draft, err := g.Generate(context.Background(), "org1", "job1", "algo")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !draft.RequiresReview {
		t.Fatal("expected requires_review when catalog is empty")
	}
	for _, li := range draft.LineItems {
		if li.SourceType != "custom" {
			t.Fatalf("expected all lines custom on empty catalog, got %+v", li)
		}
	}
}

type failingCatalog struct{}

func (failingCatalog) ListPriceItems(_ context.Context, _ string) ([]ports.CatalogEntry, error) {
	return nil, context.DeadlineExceeded
}
