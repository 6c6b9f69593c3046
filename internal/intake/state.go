// Package intake implements the Voice Intake Pipeline: a Graph
// Runtime wiring of transcribe/translate/extract/route/auto_create/confirm/
// human_review/handle_failure nodes over a VoiceIntakeState.
package intake

import "campotech-ai-engine/internal/ports"

// Status is one of the enumerated VoiceIntakeState lifecycle values. No
// node writes a status outside this set.
type Status string

const (
	StatusTranscribing Status = "transcribing"
	StatusTranslating  Status = "translating"
	StatusExtracting   Status = "extracting"
	StatusRouting      Status = "routing"
	StatusConfirming   Status = "confirming"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusHumanReview  Status = "human-review"
)

// Persisted status strings handed to the data-store collaborator.
const (
	PersistedTranscribed          = "transcribed"
	PersistedExtracted            = "extracted"
	PersistedAwaitingConfirmation = "awaiting_confirmation"
	PersistedJobCreated           = "job_created"
	PersistedQueuedForReview      = "queued_for_review"
	PersistedProcessingFailed     = "processing_failed"
)

// Permissions gates node behavior. The set is fixed to these fields, with
// defaults from DefaultPermissions; only TranslateMessages is consulted by
// the intake nodes today, the rest are accepted at the boundary and reserved.
type Permissions struct {
	SuggestResponses                 bool
	TranslateMessages                bool
	SuggestActions                   bool
	AccessDatabase                   bool
	AccessSchedule                   bool
	AutoApproveSmallPriceAdjustments bool
	AutoApproveThresholdPercent      int
	AutoAssignTechnicians            bool
}

// DefaultPermissions returns the standard permission defaults.
func DefaultPermissions() Permissions {
	return Permissions{
		SuggestResponses:                 true,
		TranslateMessages:                true,
		SuggestActions:                   true,
		AccessDatabase:                   true,
		AccessSchedule:                   true,
		AutoApproveSmallPriceAdjustments: false,
		AutoApproveThresholdPercent:      5,
		AutoAssignTechnicians:            false,
	}
}

// JobExtraction is the structured result of parsing a customer request.
// All slots are optional; each carries an independent confidence.
type JobExtraction struct {
	Title              string
	Description        string
	ServiceType        string
	Address            string
	City               string
	Province           string
	PreferredDate      string
	PreferredTime      string
	Urgency            string // normal, urgente, emergencia
	CustomerName       string
	ApplianceBrand     string
	ApplianceModel     string
	ProblemDescription string

	FieldConfidence   map[string]float64
	OverallConfidence float64
}

// VoiceIntakeState is the record threaded through the Intake graph.
type VoiceIntakeState struct {
	MessageID string
	AudioURL  string
	Phone     string
	OrgID     string
	History   []ports.Message

	BusinessLanguages map[string]bool
	Permissions       Permissions

	Status Status

	Transcription        string
	DetectedLanguageCode string
	DetectedLanguageName string
	DetectionConfidence  float64

	OriginalTranscription   string
	TranslatedTranscription string

	Extraction        JobExtraction
	OverallConfidence float64

	JobID            string
	ErrorMessage     string
	ConfirmationSent bool
	ConfirmationID   string
}
