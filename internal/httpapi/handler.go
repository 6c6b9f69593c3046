// Package httpapi exposes the intake pipeline, invoice generator, and
// support router over HTTP.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campotech-ai-engine/internal/intake"
	"campotech-ai-engine/internal/invoice"
	"campotech-ai-engine/internal/ports"
	"campotech-ai-engine/internal/support"
	"campotech-ai-engine/platform/httpkit"
	"campotech-ai-engine/platform/logger"
)

const (
	msgInvalidRequest = "invalid request"
)

// Handler serves the three collaborator-facing endpoints.
type Handler struct {
	intakePipeline    *intake.Pipeline
	invoiceGen        *invoice.Generator
	supportRouter     *support.Router
	businessLanguages map[string]bool
	log               *logger.Logger
}

// New builds a Handler. businessLanguages is the set of language codes the
// business team reads natively; messages in any other language get
// translated before extraction.
func New(intakePipeline *intake.Pipeline, invoiceGen *invoice.Generator, supportRouter *support.Router, businessLanguages []string, log *logger.Logger) *Handler {
	languages := make(map[string]bool, len(businessLanguages))
	for _, code := range businessLanguages {
		languages[code] = true
	}
	if len(languages) == 0 {
		languages["es"] = true
	}
	return &Handler{
		intakePipeline:    intakePipeline,
		invoiceGen:        invoiceGen,
		supportRouter:     supportRouter,
		businessLanguages: languages,
		log:               log,
	}
}

// RegisterRoutes wires this handler's endpoints onto a gin engine.
func (h *Handler) RegisterRoutes(engine *gin.Engine) {
	v1 := engine.Group("/v1")
	v1.POST("/intake/voice-messages", h.IntakeVoiceMessage)
	v1.POST("/invoices/draft", h.InvoiceDraft)
	v1.POST("/support/chat", h.SupportChat)
}

// IntakeVoiceMessage runs the voice intake pipeline over an inbound message.
// POST /v1/intake/voice-messages
func (h *Handler) IntakeVoiceMessage(c *gin.Context) {
	var req VoiceMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	state := intake.VoiceIntakeState{
		MessageID:         req.MessageID,
		AudioURL:          req.AudioURL,
		Phone:             req.Phone,
		OrgID:             req.OrgID,
		History:           toMessages(req.History),
		BusinessLanguages: h.businessLanguages,
		Permissions:       intake.DefaultPermissions(),
		Status:            intake.StatusTranscribing,
	}

	g, err := h.intakePipeline.Build()
	if err != nil {
		h.log.Error("failed to build intake graph", "error", err)
		httpkit.Error(c, http.StatusInternalServerError, "internal error", nil)
		return
	}

	out, err := g.Run(c.Request.Context(), state)
	if err != nil {
		h.log.Error("intake pipeline failed", "error", err, "messageId", req.MessageID)
		httpkit.Error(c, http.StatusInternalServerError, "intake processing failed", nil)
		return
	}

	httpkit.OK(c, VoiceMessageResponse{
		Status:            string(out.Status),
		Transcription:     out.Transcription,
		OverallConfidence: out.OverallConfidence,
		JobID:             out.JobID,
		ErrorMessage:      out.ErrorMessage,
	})
}

// InvoiceDraft generates a priced invoice draft from a technician voice memo.
// POST /v1/invoices/draft
func (h *Handler) InvoiceDraft(c *gin.Context) {
	var req InvoiceDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	draft, err := h.invoiceGen.Generate(c.Request.Context(), req.OrgID, req.JobID, req.Transcription)
	if err != nil {
		h.log.Error("invoice draft generation failed", "error", err, "jobId", req.JobID)
		httpkit.Error(c, http.StatusInternalServerError, "invoice draft generation failed", nil)
		return
	}

	httpkit.OK(c, draft)
}

// SupportChat runs a single turn of the support chat router.
// POST /v1/support/chat
func (h *Handler) SupportChat(c *gin.Context) {
	var req SupportChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if len(req.Messages) == 0 {
		httpkit.Error(c, http.StatusBadRequest, "messages cannot be empty", nil)
		return
	}

	state := support.State{
		History: toMessages(req.Messages),
		UserID:  req.UserID,
		OrgID:   req.OrganizationID,
	}

	result, err := h.supportRouter.Handle(c.Request.Context(), state)
	if err != nil {
		h.log.Error("support router failed", "error", err)
		httpkit.Error(c, http.StatusInternalServerError, "error processing support message", nil)
		return
	}

	httpkit.OK(c, SupportChatResponse{
		Response:  result.LastReply,
		Category:  string(result.Category),
		Escalated: result.Escalated,
		Resolved:  result.Resolved,
	})
}

func toMessages(in []ChatMessageDTO) []ports.Message {
	out := make([]ports.Message, 0, len(in))
	for _, m := range in {
		out = append(out, ports.Message{Role: m.Role, Content: m.Content, Type: m.Type})
	}
	return out
}
