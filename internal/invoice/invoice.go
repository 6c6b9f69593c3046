// Package invoice implements the Invoice Draft Generator: it
// turns a technician's voice memo into a priced draft invoice by running
// each extracted part/service through the Catalog Matcher and totaling the
// resulting line items with fixed-point decimal arithmetic.
package invoice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"campotech-ai-engine/internal/catalog"
	"campotech-ai-engine/internal/ports"
)

// TaxRate is the fixed VAT rate. Every line carries it, and the draft's tax
// amount is computed once, on the subtotal of the priced lines.
var TaxRate = decimal.NewFromFloat(0.21)

// ExtractedPart is one part the technician mentioned using on the job.
type ExtractedPart struct {
	Name       string
	Quantity   float64
	Unit       string // piece, meter, kg, liter, roll, box
	SourceSpan string
	Confidence float64
}

// ExtractedService is one unit of work the technician described performing.
type ExtractedService struct {
	Description     string
	DurationMinutes *int
	ServiceType     string
	SourceSpan      string
	Confidence      float64
}

// TechnicianReport is the structured result of parsing a job-completion
// voice memo.
type TechnicianReport struct {
	Summary            string
	Narrative          string
	Parts              []ExtractedPart
	Services           []ExtractedService
	ArrivalTime        string
	DepartureTime      string
	TotalLaborHours    float64
	EquipmentStatus    string // working, needs-followup, unrepairable
	Recommendations    string
	FollowUpRequired   bool
	PhotosMentioned    bool
	SignatureMentioned bool
	OverallConfidence  float64
}

// AlternativeMatch is one non-winning candidate surfaced alongside a line
// item.
type AlternativeMatch struct {
	CatalogID string
	Name      string
	Price     string
	Unit      string
	Type      string
	Score     float64
}

// DraftLineItem is one row of the invoice draft.
type DraftLineItem struct {
	Description     string
	Quantity        float64
	Unit            string
	UnitPrice       *decimal.Decimal
	Total           *decimal.Decimal
	TaxRate         decimal.Decimal
	SourceType      string // part, service, custom
	SourceSpan      string
	MatchedID       string
	MatchedName     string
	MatchConfidence float64
	Alternatives    []AlternativeMatch
	NeedsReview     bool
	ReviewReason    string
}

// InvoiceDraft is emitted by the generator.
type InvoiceDraft struct {
	JobID              string
	OrgID              string
	Report             TechnicianReport
	Transcription      string
	LineItems          []DraftLineItem
	Subtotal           decimal.Decimal
	TaxAmount          decimal.Decimal
	Total              decimal.Decimal
	ProcessingDuration time.Duration
	MatchConfidence    float64
	RequiresReview     bool
	ReviewNotes        []string
}

// Thresholds are the invoice line-classification cutoffs.
type Thresholds struct {
	High   float64
	Medium float64
}

// Collaborators bundles the generator's external dependencies.
type Collaborators struct {
	Chat    ports.ChatCompletion
	Catalog ports.CatalogReader
}

// Generator produces InvoiceDrafts from technician voice memos.
type Generator struct {
	collab     Collaborators
	thresholds Thresholds
	now        func() time.Time
}

// New builds a Generator. thresholds defaults to {0.85, 0.70}.
func New(collab Collaborators, thresholds Thresholds) *Generator {
	if thresholds.High == 0 && thresholds.Medium == 0 {
		thresholds = Thresholds{High: 0.85, Medium: 0.70}
	}
	return &Generator{collab: collab, thresholds: thresholds, now: time.Now}
}

const reportSystemPrompt = `Extraé del memo de voz del técnico: summary, narrative, parts (name, quantity, unit, source_span, confidence), services (description, duration_minutes, service_type, source_span, confidence), arrival_time, departure_time, total_labor_hours, equipment_status (working|needs-followup|unrepairable), recommendations, follow_up_required, photos_mentioned, signature_mentioned, overall_confidence. Respondé únicamente con un objeto JSON plano.`

// Generate runs the full extract-match-total pipeline over one voice memo.
func (g *Generator) Generate(ctx context.Context, orgID, jobID, transcription string) (InvoiceDraft, error) {
	start := g.now()

	report := g.fetchReport(ctx, transcription)

	entries, err := g.collab.Catalog.ListPriceItems(ctx, orgID)
	if err != nil {
		entries = nil
	}
	catalogEntries := toCatalogEntries(entries)

	var lineItems []DraftLineItem
	for _, part := range report.Parts {
		lineItems = append(lineItems, g.matchPart(part, catalogEntries))
	}
	for _, svc := range report.Services {
		lineItems = append(lineItems, g.matchService(svc, catalogEntries))
	}

	subtotal := decimal.Zero
	var confidenceSum decimal.Decimal
	pricedCount := 0
	requiresReview := false
	var reviewNotes []string

	for i := range lineItems {
		li := &lineItems[i]
		if li.Total != nil {
			subtotal = subtotal.Add(*li.Total)
		}
		if li.UnitPrice != nil {
			confidenceSum = confidenceSum.Add(decimal.NewFromFloat(li.MatchConfidence))
			pricedCount++
		}
		if li.NeedsReview {
			requiresReview = true
			if li.ReviewReason != "" {
				reviewNotes = append(reviewNotes, li.ReviewReason)
			}
		}
	}

	taxAmount := round2(subtotal.Mul(TaxRate))
	total := subtotal.Add(taxAmount)

	overallConfidence := 0.0
	if pricedCount > 0 {
		overallConfidence, _ = confidenceSum.Div(decimal.NewFromInt(int64(pricedCount))).Round(4).Float64()
	}

	return InvoiceDraft{
		JobID:              jobID,
		OrgID:              orgID,
		Report:             report,
		Transcription:      transcription,
		LineItems:          lineItems,
		Subtotal:           round2(subtotal),
		TaxAmount:          taxAmount,
		Total:              round2(total),
		ProcessingDuration: g.now().Sub(start),
		MatchConfidence:    overallConfidence,
		RequiresReview:     requiresReview,
		ReviewNotes:        reviewNotes,
	}, nil
}

func (g *Generator) fetchReport(ctx context.Context, transcription string) TechnicianReport {
	raw, err := g.collab.Chat.Complete(ctx, reportSystemPrompt, transcription, ports.CompletionOptions{
		Structured:  true,
		Temperature: 0.1,
		MaxTokens:   1536,
	})
	if err != nil {
		return TechnicianReport{}
	}
	report, ok := parseReport(raw)
	if !ok {
		return TechnicianReport{}
	}
	return report
}

type reportPayload struct {
	Summary   string `json:"summary"`
	Narrative string `json:"narrative"`
	Parts     []struct {
		Name       string  `json:"name"`
		Quantity   float64 `json:"quantity"`
		Unit       string  `json:"unit"`
		SourceSpan string  `json:"source_span"`
		Confidence float64 `json:"confidence"`
	} `json:"parts"`
	Services []struct {
		Description     string  `json:"description"`
		DurationMinutes *int    `json:"duration_minutes"`
		ServiceType     string  `json:"service_type"`
		SourceSpan      string  `json:"source_span"`
		Confidence      float64 `json:"confidence"`
	} `json:"services"`
	ArrivalTime        string  `json:"arrival_time"`
	DepartureTime      string  `json:"departure_time"`
	TotalLaborHours    float64 `json:"total_labor_hours"`
	EquipmentStatus    string  `json:"equipment_status"`
	Recommendations    string  `json:"recommendations"`
	FollowUpRequired   bool    `json:"follow_up_required"`
	PhotosMentioned    bool    `json:"photos_mentioned"`
	SignatureMentioned bool    `json:"signature_mentioned"`
	OverallConfidence  float64 `json:"overall_confidence"`
}

func parseReport(raw string) (TechnicianReport, bool) {
	body := extractBalancedJSON(raw)
	var payload reportPayload
	if body == "" || json.Unmarshal([]byte(body), &payload) != nil {
		return TechnicianReport{}, false
	}

	report := TechnicianReport{
		Summary:            payload.Summary,
		Narrative:          payload.Narrative,
		ArrivalTime:        payload.ArrivalTime,
		DepartureTime:      payload.DepartureTime,
		TotalLaborHours:    payload.TotalLaborHours,
		EquipmentStatus:    payload.EquipmentStatus,
		Recommendations:    payload.Recommendations,
		FollowUpRequired:   payload.FollowUpRequired,
		PhotosMentioned:    payload.PhotosMentioned,
		SignatureMentioned: payload.SignatureMentioned,
		OverallConfidence:  payload.OverallConfidence,
	}
	for _, p := range payload.Parts {
		report.Parts = append(report.Parts, ExtractedPart{
			Name: p.Name, Quantity: p.Quantity, Unit: p.Unit,
			SourceSpan: p.SourceSpan, Confidence: p.Confidence,
		})
	}
	for _, s := range payload.Services {
		report.Services = append(report.Services, ExtractedService{
			Description: s.Description, DurationMinutes: s.DurationMinutes,
			ServiceType: s.ServiceType, SourceSpan: s.SourceSpan, Confidence: s.Confidence,
		})
	}
	return report, true
}

func extractBalancedJSON(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func toCatalogEntries(entries []ports.CatalogEntry) []catalog.Entry {
	out := make([]catalog.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, catalog.Entry{
			ID: e.ID, Name: e.Name, Description: e.Description,
			Price: e.Price, Unit: e.Unit, Type: e.Type,
		})
	}
	return out
}

// matchPart classifies one extracted part by match confidence against
// thresholds H/M.
func (g *Generator) matchPart(part ExtractedPart, entries []catalog.Entry) DraftLineItem {
	best, confidence, alts := catalog.Match(part.Name, part.Unit, entries, "part")

	li := DraftLineItem{
		Description:  part.Name,
		Quantity:     quantityOrDefault(part.Quantity),
		Unit:         part.Unit,
		TaxRate:      TaxRate,
		SourceType:   "part",
		SourceSpan:   part.SourceSpan,
		Alternatives: toAlternatives(alts),
	}

	g.classifyLine(&li, best, confidence)
	return li
}

// matchService classifies one extracted service.
func (g *Generator) matchService(svc ExtractedService, entries []catalog.Entry) DraftLineItem {
	best, confidence, alts := catalog.Match(svc.Description, "", entries, "service")

	quantity := 1.0
	if svc.DurationMinutes != nil {
		quantity = float64(*svc.DurationMinutes) / 60.0
	}

	li := DraftLineItem{
		Description:  svc.Description,
		Quantity:     quantity,
		Unit:         "hour",
		TaxRate:      TaxRate,
		SourceType:   "service",
		SourceSpan:   svc.SourceSpan,
		Alternatives: toAlternatives(alts),
	}

	g.classifyLine(&li, best, confidence)
	return li
}

func (g *Generator) classifyLine(li *DraftLineItem, best *catalog.MatchResult, confidence float64) {
	switch {
	case best != nil && confidence >= g.thresholds.High:
		g.priceLine(li, best, confidence)
		li.NeedsReview = false
	case best != nil && confidence >= g.thresholds.Medium:
		g.priceLine(li, best, confidence)
		li.NeedsReview = true
		li.ReviewReason = fmt.Sprintf("Coincidencia parcial con %q, verificar precio.", best.Entry.Name)
	default:
		li.SourceType = "custom"
		li.NeedsReview = true
		li.ReviewReason = "No se encontró una coincidencia en el catálogo; el operador debe fijar un precio."
	}
}

func (g *Generator) priceLine(li *DraftLineItem, best *catalog.MatchResult, confidence float64) {
	price, err := decimal.NewFromString(best.Entry.Price)
	if err != nil {
		li.SourceType = "custom"
		li.NeedsReview = true
		li.ReviewReason = "Precio de catálogo inválido; el operador debe fijar un precio."
		return
	}
	total := round2(price.Mul(decimal.NewFromFloat(li.Quantity)))
	li.UnitPrice = &price
	li.Total = &total
	li.MatchedID = best.Entry.ID
	li.MatchedName = best.Entry.Name
	li.MatchConfidence = confidence
}

func toAlternatives(matches []catalog.MatchResult) []AlternativeMatch {
	out := make([]AlternativeMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, AlternativeMatch{
			CatalogID: m.Entry.ID, Name: m.Entry.Name, Price: m.Entry.Price,
			Unit: m.Entry.Unit, Type: m.Entry.Type, Score: m.Score,
		})
	}
	return out
}

func quantityOrDefault(q float64) float64 {
	if q <= 0 {
		return 1
	}
	return q
}

// round2 rounds to two decimal places using banker's rounding.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}
