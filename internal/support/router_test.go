package support

import (
	"context"
	"testing"

	"campotech-ai-engine/internal/ports"
)

type fakeChat struct {
	responses []string
	call      int
}

func (f *fakeChat) Complete(_ context.Context, _, _ string, _ ports.CompletionOptions) (string, error) {
	r := f.responses[f.call]
	if f.call < len(f.responses)-1 {
		f.call++
	}
	return r, nil
}

type recordingTickets struct {
	reports []ports.SupportTicket
}

func (t *recordingTickets) Report(_ context.Context, ticket ports.SupportTicket) error {
	t.reports = append(t.reports, ticket)
	return nil
}

func conversation(text string) State {
	return State{History: []ports.Message{{Role: "user", Content: text}}}
}

func TestRouter_SalesClosure_NeverEscalates(t *testing.T) {
	chat := &fakeChat{responses: []string{"sales", "Los planes arrancan en $5000/mes. ¿Algo más en lo que te pueda ayudar?"}}
	tickets := &recordingTickets{}
	r := New(Collaborators{Chat: chat, Tickets: tickets})

	result, err := r.Handle(context.Background(), conversation("cuanto cuesta el plan"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if result.Category != CategorySales {
		t.Fatalf("expected sales category, got %v", result.Category)
	}
	if result.Escalated {
		t.Fatal("expected sales category to never escalate")
	}
	if len(tickets.reports) != 0 {
		t.Fatalf("expected no escalation ticket, got %d", len(tickets.reports))
	}
}

func TestRouter_FeaturesClosure_NeverEscalates(t *testing.T) {
	chat := &fakeChat{responses: []string{"features", "te va a contactar un técnico de soporte para un caso específico"}}
	r := New(Collaborators{Chat: chat, Tickets: &recordingTickets{}})

	result, err := r.Handle(context.Background(), conversation("como uso el asistente de voz"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if result.Escalated {
		t.Fatal("expected features category to never escalate, even with escalation-phrase wording")
	}
}

func TestRouter_BillingEscalatesOnPhrase(t *testing.T) {
	chat := &fakeChat{responses: []string{"billing", "Esto requiere revisión de un caso específico, te vamos a contactar."}}
	tickets := &recordingTickets{}
	r := New(Collaborators{Chat: chat, Tickets: tickets})

	result, err := r.Handle(context.Background(), conversation("mi factura no cuadra con afip de una forma rara"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !result.Escalated {
		t.Fatal("expected escalation when answer contains an escalation phrase")
	}
	if len(tickets.reports) != 1 {
		t.Fatalf("expected one escalation ticket filed, got %d", len(tickets.reports))
	}
}

func TestRouter_UnrecognizedCategoryCoercesToOther(t *testing.T) {
	chat := &fakeChat{responses: []string{"not-a-real-category", "Te puedo ayudar a contactar a soporte."}}
	r := New(Collaborators{Chat: chat, Tickets: &recordingTickets{}})

	result, err := r.Handle(context.Background(), conversation("pregunta rara"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if result.Category != CategoryOther {
		t.Fatalf("expected coercion to other, got %v", result.Category)
	}
}

func TestRouter_BillingNoEscalationPhraseResolves(t *testing.T) {
	chat := &fakeChat{responses: []string{"billing", "Andá a Configuración > AFIP > Subir certificado. ¿Algo más?"}}
	r := New(Collaborators{Chat: chat, Tickets: &recordingTickets{}})

	result, err := r.Handle(context.Background(), conversation("como cargo mi certificado"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if result.Escalated || !result.Resolved {
		t.Fatalf("expected resolved without escalation, got %+v", result)
	}
}
