package httpapi

// VoiceMessageRequest is the body of POST /v1/intake/voice-messages.
type VoiceMessageRequest struct {
	MessageID string           `json:"messageId" binding:"required"`
	AudioURL  string           `json:"audioUrl" binding:"required"`
	Phone     string           `json:"phone" binding:"required"`
	OrgID     string           `json:"organizationId" binding:"required"`
	History   []ChatMessageDTO `json:"history"`
}

// VoiceMessageResponse mirrors the persisted fields of VoiceIntakeState worth
// surfacing to the caller.
type VoiceMessageResponse struct {
	Status            string  `json:"status"`
	Transcription     string  `json:"transcription,omitempty"`
	OverallConfidence float64 `json:"overallConfidence"`
	JobID             string  `json:"jobId,omitempty"`
	ErrorMessage      string  `json:"errorMessage,omitempty"`
}

// InvoiceDraftRequest is the body of POST /v1/invoices/draft.
type InvoiceDraftRequest struct {
	JobID         string `json:"jobId" binding:"required"`
	OrgID         string `json:"organizationId" binding:"required"`
	Transcription string `json:"transcription" binding:"required"`
}

// ChatMessageDTO is one turn of a prior conversation.
type ChatMessageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

// SupportChatRequest is the body of POST /v1/support/chat.
type SupportChatRequest struct {
	Messages       []ChatMessageDTO `json:"messages" binding:"required"`
	UserID         string           `json:"userId"`
	OrganizationID string           `json:"organizationId"`
}

// SupportChatResponse mirrors the router's Result.
type SupportChatResponse struct {
	Response  string `json:"response"`
	Category  string `json:"category"`
	Escalated bool   `json:"escalated"`
	Resolved  bool   `json:"resolved"`
}
