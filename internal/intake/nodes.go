package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"campotech-ai-engine/internal/ports"
	"campotech-ai-engine/platform/apperr"
	"campotech-ai-engine/platform/logger"
)

// Thresholds holds the intake routing confidence cutoffs.
type Thresholds struct {
	High   float64
	Medium float64
}

// Collaborators bundles every external dependency the intake nodes call
// through. Fields are interfaces so tests can supply fakes.
type Collaborators struct {
	STT        ports.SpeechToText
	Translator ports.Translator
	Chat       ports.ChatCompletion
	Messenger  ports.Messenger
	Store      ports.Store
	Log        *logger.Logger
}

// Pipeline wires the intake Collaborators with the confidence thresholds
// used by the route edge.
type Pipeline struct {
	collab     Collaborators
	thresholds Thresholds
}

// New builds a Pipeline. thresholds defaults to {0.85, 0.50} if
// its zero value is passed.
func New(collab Collaborators, thresholds Thresholds) *Pipeline {
	if thresholds.High == 0 && thresholds.Medium == 0 {
		thresholds = Thresholds{High: 0.85, Medium: 0.50}
	}
	return &Pipeline{collab: collab, thresholds: thresholds}
}

const sttLanguageHint = "es"

// Transcribe invokes the STT collaborator. On any I/O error, returns state
// with status=failed and error populated; otherwise advances to translating.
func (p *Pipeline) Transcribe(ctx context.Context, state VoiceIntakeState) (VoiceIntakeState, error) {
	audio, err := fetchAudio(state.AudioURL)
	if err != nil {
		return failWith(state, "transcription fetch failed: "+err.Error()), nil
	}

	text, err := p.collab.STT.Transcribe(ctx, audio, sttLanguageHint)
	if err != nil {
		return failWith(state, "transcription failed: "+err.Error()), nil
	}

	state.Transcription = text
	state.Status = StatusTranslating
	_ = p.collab.Store.UpdateMessage(ctx, state.MessageID, ports.MessageUpdate{
		Transcription: &text,
		Status:        statusPtr(PersistedTranscribed),
	})
	p.logNode("transcribe", state)
	return state, nil
}

// fetchAudio resolves an audio locator to the bytes handed to the STT
// collaborator. It is unexported and nothing outside this package replaces
// it: the locator string's own bytes are passed on as the audio payload, and
// no remote download is made. Kept here so Transcribe has a single I/O
// boundary to guard.
var fetchAudio = func(locator string) ([]byte, error) {
	if locator == "" {
		return nil, apperr.BadRequest("empty audio locator")
	}
	return []byte(locator), nil
}

const shortTextThreshold = 3

// Translate gates on the translateMessages permission. If disabled, passes
// through with detected language forced to es. A translation error is
// non-fatal.
func (p *Pipeline) Translate(ctx context.Context, state VoiceIntakeState) (VoiceIntakeState, error) {
	if !state.Permissions.TranslateMessages {
		state.DetectedLanguageCode = "es"
		state.DetectedLanguageName = "Spanish"
		state.DetectionConfidence = 1.0
		state.Status = StatusExtracting
		return state, nil
	}

	// very short input is not worth a detection call; anything under the
	// threshold (and any detection error) defaults to Spanish at 0.5
	detected := ports.DetectedLanguage{Code: "es", DisplayName: "Spanish", Confidence: 0.5}
	nonWhitespace := 0
	for _, r := range state.Transcription {
		if !unicode.IsSpace(r) {
			nonWhitespace++
		}
	}
	if nonWhitespace >= shortTextThreshold {
		if d, err := p.collab.Translator.Detect(ctx, state.Transcription); err == nil {
			detected = d
		}
	}
	state.DetectedLanguageCode = detected.Code
	state.DetectedLanguageName = detected.DisplayName
	state.DetectionConfidence = detected.Confidence

	if state.BusinessLanguages[detected.Code] {
		state.Status = StatusExtracting
		return state, nil
	}

	translated, err := p.collab.Translator.Translate(ctx, state.Transcription, detected.Code, "es")
	if err != nil {
		state.ErrorMessage = "translation failed: " + err.Error()
		state.Status = StatusExtracting
		return state, nil
	}

	state.OriginalTranscription = state.Transcription
	state.TranslatedTranscription = translated
	state.Transcription = translated
	state.Status = StatusExtracting
	_ = p.collab.Store.UpdateMessage(ctx, state.MessageID, ports.MessageUpdate{
		DetectedLanguage:  &state.DetectedLanguageCode,
		OriginalContent:   &state.OriginalTranscription,
		TranslatedContent: &state.TranslatedTranscription,
	})
	p.logNode("translate", state)
	return state, nil
}

const extractSystemPrompt = `Extraé los siguientes campos del mensaje del cliente, con una confianza 0-1 por campo y una confianza general:
title, description, service_type (refrigeracion|lavarropas|aire_acondicionado|electricidad|plomeria|gasista|cerrajeria|otros), address, city, province, preferred_date, preferred_time, urgency (normal|urgente|emergencia), customer_name, appliance_brand, appliance_model, problem_description.
Respondé únicamente con un objeto JSON plano con esas claves más "field_confidence" (mapa) y "overall_confidence".`

type extractionPayload struct {
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	ServiceType        string             `json:"service_type"`
	Address            string             `json:"address"`
	City               string             `json:"city"`
	Province           string             `json:"province"`
	PreferredDate      string             `json:"preferred_date"`
	PreferredTime      string             `json:"preferred_time"`
	Urgency            string             `json:"urgency"`
	CustomerName       string             `json:"customer_name"`
	ApplianceBrand     string             `json:"appliance_brand"`
	ApplianceModel     string             `json:"appliance_model"`
	ProblemDescription string             `json:"problem_description"`
	FieldConfidence    map[string]float64 `json:"field_confidence"`
	OverallConfidence  float64            `json:"overall_confidence"`
}

// Extract invokes the chat-completion collaborator with a structured-output
// contract. A deserialization failure degrades to a low-confidence default
// rather than failing the run.
func (p *Pipeline) Extract(ctx context.Context, state VoiceIntakeState) (VoiceIntakeState, error) {
	userPrompt := wrapUserData(sanitizeUserInput(state.Transcription, 4000))

	raw, err := p.collab.Chat.Complete(ctx, extractSystemPrompt, userPrompt, ports.CompletionOptions{
		Structured:  true,
		Temperature: 0.1,
		MaxTokens:   1024,
	})
	if err != nil {
		return failWith(state, "extraction failed: "+err.Error()), nil
	}

	extraction := parseExtraction(raw, state.Transcription)
	state.Extraction = extraction
	state.OverallConfidence = extraction.OverallConfidence
	state.Status = StatusRouting

	extractionJSON, _ := json.Marshal(extraction)
	var extractionMap map[string]interface{}
	_ = json.Unmarshal(extractionJSON, &extractionMap)
	confidence := extraction.OverallConfidence
	_ = p.collab.Store.UpdateMessage(ctx, state.MessageID, ports.MessageUpdate{
		Extraction: extractionMap,
		Confidence: &confidence,
		Status:     statusPtr(PersistedExtracted),
	})

	p.logNode("extract", state)
	return state, nil
}

func parseExtraction(raw, fallbackText string) JobExtraction {
	body := extractBalancedJSON(raw)

	var payload extractionPayload
	if body == "" || json.Unmarshal([]byte(body), &payload) != nil {
		return JobExtraction{
			Description:       fallbackText,
			OverallConfidence: 0.3,
		}
	}

	return JobExtraction{
		Title:              payload.Title,
		Description:        payload.Description,
		ServiceType:        payload.ServiceType,
		Address:            payload.Address,
		City:               payload.City,
		Province:           payload.Province,
		PreferredDate:      payload.PreferredDate,
		PreferredTime:      payload.PreferredTime,
		Urgency:            payload.Urgency,
		CustomerName:       payload.CustomerName,
		ApplianceBrand:     payload.ApplianceBrand,
		ApplianceModel:     payload.ApplianceModel,
		ProblemDescription: payload.ProblemDescription,
		FieldConfidence:    payload.FieldConfidence,
		OverallConfidence:  clamp01(payload.OverallConfidence),
	}
}

// extractBalancedJSON finds the outermost balanced {...} object in s, a
// pre-parse filter for completions where the collaborator cannot guarantee
// strict structured output.
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

// Route implements the route conditional edge: it is not itself
// a graph node, it is the predicate consulted by the edge from extract.
func (p *Pipeline) Route(state VoiceIntakeState) string {
	if state.Status == StatusFailed {
		return "handle_failure"
	}
	switch {
	case state.OverallConfidence >= p.thresholds.High:
		return "auto_create"
	case state.OverallConfidence >= p.thresholds.Medium:
		return "confirm"
	default:
		return "human_review"
	}
}

// AutoCreate builds a job from the extraction and calls create_job with
// source=voice_ai_auto. Any failure falls through to human_review rather
// than failed.
func (p *Pipeline) AutoCreate(ctx context.Context, state VoiceIntakeState) (VoiceIntakeState, error) {
	job, err := p.collab.Store.CreateJob(ctx, state.OrgID, state.Phone, state.Extraction, "voice_ai_auto")
	if err != nil {
		state.Status = StatusHumanReview
		return state, nil
	}
	state.JobID = job.ID

	body := fmt.Sprintf("✅ Trabajo creado. Nos pondremos en contacto para coordinar %s.", nonEmpty(state.Extraction.Title, "tu servicio"))
	if _, sendErr := p.collab.Messenger.SendText(ctx, state.Phone, body, state.OrgID); sendErr != nil {
		state.Status = StatusHumanReview
		return state, nil
	}

	state.Status = StatusCompleted
	_ = p.collab.Store.UpdateMessage(ctx, state.MessageID, ports.MessageUpdate{Status: statusPtr(PersistedJobCreated)})
	p.logNode("auto_create", state)
	return state, nil
}

// Confirm formats a summary of the extraction and sends it as an outbound
// message. Terminal for this run.
func (p *Pipeline) Confirm(ctx context.Context, state VoiceIntakeState) (VoiceIntakeState, error) {
	body := FormatConfirmation(state.Extraction)
	result, err := p.collab.Messenger.SendText(ctx, state.Phone, body, state.OrgID)
	if err != nil {
		state.Status = StatusHumanReview
		return state, nil
	}
	state.Status = StatusConfirming
	state.ConfirmationSent = true
	state.ConfirmationID = result.MessageID
	_ = p.collab.Store.UpdateMessage(ctx, state.MessageID, ports.MessageUpdate{Status: statusPtr(PersistedAwaitingConfirmation)})
	p.logNode("confirm", state)
	return state, nil
}

// HumanReview enqueues the message for manual handling and notifies the
// customer a human will follow up.
func (p *Pipeline) HumanReview(ctx context.Context, state VoiceIntakeState) (VoiceIntakeState, error) {
	_ = p.collab.Store.EnqueueReview(ctx, state.OrgID, state.MessageID, state.Transcription, state.Extraction, state.OverallConfidence, state.Phone)
	_, _ = p.collab.Messenger.SendText(ctx, state.Phone, "Recibimos tu mensaje, un miembro de nuestro equipo lo va a revisar en breve.", state.OrgID)
	state.Status = StatusHumanReview
	_ = p.collab.Store.UpdateMessage(ctx, state.MessageID, ports.MessageUpdate{Status: statusPtr(PersistedQueuedForReview)})
	p.logNode("human_review", state)
	return state, nil
}

// HandleFailure is the compensating sink reached only via the failed
// branch. All three actions are best-effort: an exception-swallowing guard
// on each so the compensation path cannot itself fail.
func (p *Pipeline) HandleFailure(ctx context.Context, state VoiceIntakeState) (VoiceIntakeState, error) {
	p.compensate("mark_processing_failed", func() error {
		return p.collab.Store.UpdateMessage(ctx, state.MessageID, ports.MessageUpdate{Status: statusPtr(PersistedProcessingFailed)})
	})
	p.compensate("enqueue_review", func() error {
		return p.collab.Store.EnqueueReview(ctx, state.OrgID, state.MessageID, state.Transcription, JobExtraction{}, 0, state.Phone)
	})
	p.compensate("notify_customer", func() error {
		_, err := p.collab.Messenger.SendText(ctx, state.Phone, "Tuvimos un problema procesando tu mensaje. Nuestro equipo lo va a revisar.", state.OrgID)
		return err
	})
	return state, nil
}

// compensate runs one best-effort compensation action: errors and panics
// are swallowed, the attempt is still observable in the log.
func (p *Pipeline) compensate(action string, fn func() error) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if p.collab.Log != nil {
			p.collab.Log.CompensationAttempt(action, err)
		}
	}()
	err = fn()
}

func (p *Pipeline) logNode(node string, state VoiceIntakeState) {
	if p.collab.Log != nil {
		p.collab.Log.NodeTransition("voice_intake", node, string(state.Status))
	}
}

func failWith(state VoiceIntakeState, msg string) VoiceIntakeState {
	state.Status = StatusFailed
	state.ErrorMessage = msg
	return state
}

func statusPtr(s string) *string { return &s }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

const (
	userDataBegin = "<<<BEGIN_USER_DATA>>>"
	userDataEnd   = "<<<END_USER_DATA>>>"
)

// wrapUserData isolates user-supplied content from instruction text in a
// prompt, the same marker convention the chat-completion adapters use
// elsewhere in this codebase.
func wrapUserData(content string) string {
	return userDataBegin + "\n" + content + "\n" + userDataEnd
}

// sanitizeUserInput strips control characters (keeping newlines/tabs) and
// truncates to maxLen.
func sanitizeUserInput(s string, maxLen int) string {
	var sb strings.Builder
	for _, r := range s {
		if r < 0x20 && r != '\n' && r != '\t' {
			continue
		}
		sb.WriteRune(r)
	}
	out := sb.String()
	if len(out) > maxLen {
		out = out[:maxLen] + "... [truncado]"
	}
	return out
}
