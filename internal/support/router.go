// Package support implements the Support Chat Router: a
// classify -> answer -> conditional-escalate graph over an in-process FAQ
// knowledge base.
package support

import (
	"context"
	"strings"

	"campotech-ai-engine/internal/graph"
	"campotech-ai-engine/internal/ports"
)

// State is threaded through the support graph.
type State struct {
	History   []ports.Message
	UserID    string
	OrgID     string
	Category  Category
	LastReply string
	Escalated bool
	Resolved  bool
}

// Result is the router's output.
type Result struct {
	LastReply string
	Category  Category
	Escalated bool
	Resolved  bool
}

// Collaborators bundles the router's external dependencies.
type Collaborators struct {
	Chat    ports.ChatCompletion
	Tickets ports.SupportTickets
}

// Router wires the support graph.
type Router struct {
	collab Collaborators
}

// New builds a Router.
func New(collab Collaborators) *Router {
	return &Router{collab: collab}
}

const classifySystemPrompt = `Sos el asistente de soporte de CampoTech. Clasificá el mensaje del usuario en UNA de estas categorías: sales, features, billing, payments, messaging, account, mobile-app, other. Respondé únicamente con la palabra de la categoría, sin explicación.`

// Classify invokes chat-completion with the closed category-set prompt. An
// unrecognized response token is coerced to "other".
func (r *Router) Classify(ctx context.Context, state State) (State, error) {
	lastUser := lastUserMessage(state.History)
	token, err := r.collab.Chat.Complete(ctx, classifySystemPrompt, lastUser, ports.CompletionOptions{Temperature: 0})
	if err != nil {
		state.Category = CategoryOther
		return state, nil
	}
	state.Category = coerceCategory(strings.ToLower(strings.TrimSpace(token)))
	return state, nil
}

const answerSystemPromptTemplate = `Sos el asistente de soporte de CampoTech, una app para profesionales de servicios técnicos.

Usá esta información de FAQs para responder al usuario:

%s

Reglas:
1. Respondé en español argentino, de forma amigable y concisa.
2. Si la pregunta está cubierta por las FAQs, dá una respuesta útil.
3. Si la pregunta NO está cubierta o es muy específica, decí claramente que vas a escalar a un humano.
4. No inventes información que no está en las FAQs ni en el documento de referencia.
5. Si mencionás ir a una página de configuración, usá el formato "Andá a X > Y > Z".
6. Siempre preguntá si hay algo más en lo que puedas ayudar.

Historial de la conversación:
%s`

var businessKnowledgeCategories = map[Category]bool{
	CategorySales: true, CategoryFeatures: true,
}

// Answer retrieves FAQ entries for the classified category (plus, for
// sales/features, the full business knowledge document) and produces a
// reply. For sales/features, escalate is forced false; otherwise the reply
// is inspected for an explicit-escalation phrase.
func (r *Router) Answer(ctx context.Context, state State) (State, error) {
	faqs := formatFAQs(faqsForCategory(state.Category))
	if businessKnowledgeCategories[state.Category] {
		faqs += "\n" + businessKnowledgeDocument
	}

	systemPrompt := replacePlaceholders(answerSystemPromptTemplate, faqs, formatHistory(state.History))
	lastUser := lastUserMessage(state.History)

	answer, err := r.collab.Chat.Complete(ctx, systemPrompt, lastUser, ports.CompletionOptions{Temperature: 0.3})
	if err != nil {
		answer = "Tuvimos un problema respondiendo tu consulta. Vamos a escalarla a nuestro equipo de soporte."
	}

	state.LastReply = answer
	state.History = append(state.History, ports.Message{Role: "assistant", Content: answer})

	if businessKnowledgeCategories[state.Category] {
		state.Escalated = false
	} else {
		state.Escalated = containsEscalationPhrase(answer)
	}
	state.Resolved = !state.Escalated
	return state, nil
}

// Escalate files a support ticket and appends a reassurance message.
// Best-effort: ticket-creation failures are swallowed.
func (r *Router) Escalate(ctx context.Context, state State) (State, error) {
	safeReport(func() error {
		return r.collab.Tickets.Report(ctx, ports.SupportTicket{
			Type:        "escalation",
			Description: "[AI Escalation] Category: " + string(state.Category) + "\n\n" + transcriptOf(state.History),
			Context: map[string]interface{}{
				"source":          "ai_support_bot",
				"user_id":         state.UserID,
				"organization_id": state.OrgID,
				"category":        string(state.Category),
			},
		})
	})

	reassurance := "Tu consulta fue escalada a nuestro equipo de soporte. Te contactaremos por email en las próximas 24 horas hábiles. ¿Hay algo más en lo que pueda ayudarte mientras tanto?"
	state.LastReply = reassurance
	state.History = append(state.History, ports.Message{Role: "assistant", Content: reassurance})
	return state, nil
}

func safeReport(fn func() error) {
	defer func() { _ = recover() }()
	_ = fn()
}

// Build assembles the support graph: classify -> answer, with a
// conditional edge from answer to escalate or an end sink.
func (r *Router) Build() (*graph.Graph[State], error) {
	return graph.NewBuilder[State]().
		Entry("classify").
		AddNode("classify", r.Classify).
		AddStaticEdge("classify", "answer").
		AddNode("answer", r.Answer).
		AddConditionalEdge("answer", func(s State) string {
			if s.Escalated {
				return "escalate"
			}
			return "end"
		}, map[string]string{"escalate": "escalate", "end": "end"}).
		AddNode("escalate", r.Escalate).
		AddStaticEdge("escalate", "end").
		AddSink("end").
		Build()
}

// Handle runs the full router over a conversation and returns its Result.
func (r *Router) Handle(ctx context.Context, state State) (Result, error) {
	g, err := r.Build()
	if err != nil {
		return Result{}, err
	}
	out, err := g.Run(ctx, state)
	if err != nil {
		return Result{}, err
	}
	return Result{
		LastReply: out.LastReply,
		Category:  out.Category,
		Escalated: out.Escalated,
		Resolved:  out.Resolved,
	}, nil
}

func containsEscalationPhrase(answer string) bool {
	lower := strings.ToLower(answer)
	for _, phrase := range escalationPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func lastUserMessage(history []ports.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			return history[i].Content
		}
	}
	return ""
}

func formatHistory(history []ports.Message) string {
	if len(history) <= 1 {
		return "(primera pregunta)"
	}
	var b strings.Builder
	for _, m := range history[:len(history)-1] {
		role := "Usuario"
		if m.Role != "user" {
			role = "Asistente"
		}
		b.WriteString(role + ": " + m.Content + "\n")
	}
	return b.String()
}

func transcriptOf(history []ports.Message) string {
	var b strings.Builder
	for _, m := range history {
		b.WriteString(m.Role + ": " + m.Content + "\n")
	}
	return b.String()
}

func replacePlaceholders(template, faqs, history string) string {
	out := strings.Replace(template, "%s", faqs, 1)
	return strings.Replace(out, "%s", history, 1)
}
