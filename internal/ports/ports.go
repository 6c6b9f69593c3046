// Package ports declares the collaborator interfaces the core depends on.
// Every external capability — speech-to-text, chat completion,
// language detection/translation, outbound messaging, persistence, the
// catalog, and support ticketing — is reached only through one of these
// interfaces; concrete implementations live under internal/adapters.
package ports

import (
	"context"
	"time"
)

// Message is one turn of a prior conversation carried in VoiceIntakeState.
type Message struct {
	Role      string
	Content   string
	Type      string
	Timestamp time.Time
}

// SpeechToText transcribes a voice message. Deterministic mapping from audio
// to text is not required, but idempotency on replay is desirable.
type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error)
}

// ChatCompletion is the structured/free-text completion collaborator. The
// core relies on JSON-shaped structured output where requested; when the
// underlying model cannot guarantee it, callers fall back to a best-effort
// parse and a low-confidence default.
type ChatCompletion interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts CompletionOptions) (string, error)
}

// CompletionOptions configures one ChatCompletion call.
type CompletionOptions struct {
	Structured  bool
	Temperature float64
	MaxTokens   int
}

// DetectedLanguage is the result of a language-detection call.
type DetectedLanguage struct {
	Code        string
	DisplayName string
	Confidence  float64
}

// Translator detects the language of a text and translates between
// languages. Both operations must tolerate sub-sentence input.
type Translator interface {
	Detect(ctx context.Context, text string) (DetectedLanguage, error)
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// SendResult is returned by an outbound send.
type SendResult struct {
	MessageID string
}

// Messenger delivers outbound customer messages.
type Messenger interface {
	SendText(ctx context.Context, to, body, orgID string) (SendResult, error)
	SendButtons(ctx context.Context, to, body string, buttons []string, orgID string) (SendResult, error)
}

// CreatedJob is returned by Store.CreateJob.
type CreatedJob struct {
	ID string
}

// MessageUpdate is a sparse patch applied to a persisted message record.
// Only non-nil fields are written.
type MessageUpdate struct {
	Transcription     *string
	Extraction        interface{}
	Confidence        *float64
	Status            *string
	DetectedLanguage  *string
	OriginalContent   *string
	TranslatedContent *string
}

// Store is the data-store collaborator: job creation, review-queue
// enqueuing, and message status bookkeeping.
type Store interface {
	CreateJob(ctx context.Context, orgID, phone string, extraction interface{}, source string) (CreatedJob, error)
	EnqueueReview(ctx context.Context, orgID, messageID, transcription string, extraction interface{}, confidence float64, phone string) error
	UpdateMessage(ctx context.Context, messageID string, update MessageUpdate) error
}

// CatalogEntry is one row of an organization's priced catalog.
type CatalogEntry struct {
	ID          string
	Name        string
	Description string
	Price       string
	Unit        string
	Type        string
}

// CatalogReader fetches an organization's priced catalog.
type CatalogReader interface {
	ListPriceItems(ctx context.Context, orgID string) ([]CatalogEntry, error)
}

// SupportTicket is the payload handed to the support-ticket collaborator.
type SupportTicket struct {
	Type        string
	Description string
	Context     map[string]interface{}
}

// SupportTickets files a support ticket when a conversation escalates.
type SupportTickets interface {
	Report(ctx context.Context, ticket SupportTicket) error
}
