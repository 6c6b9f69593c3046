package intake

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"campotech-ai-engine/internal/ports"
)

type fakeSTT struct {
	text string
	err  error
}

func (f fakeSTT) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	return f.text, f.err
}

type fakeTranslator struct{}

func (fakeTranslator) Detect(_ context.Context, text string) (ports.DetectedLanguage, error) {
	return ports.DetectedLanguage{Code: "es", DisplayName: "Spanish", Confidence: 0.9}, nil
}
func (fakeTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}

type fakeChat struct {
	response string
	err      error
}

func (f fakeChat) Complete(_ context.Context, _, _ string, _ ports.CompletionOptions) (string, error) {
	return f.response, f.err
}

type recordingMessenger struct {
	sent []string
	err  error
}

func (m *recordingMessenger) SendText(_ context.Context, _, body, _ string) (ports.SendResult, error) {
	if m.err != nil {
		return ports.SendResult{}, m.err
	}
	m.sent = append(m.sent, body)
	return ports.SendResult{MessageID: "msg-1"}, nil
}
func (m *recordingMessenger) SendButtons(_ context.Context, _, body string, _ []string, _ string) (ports.SendResult, error) {
	m.sent = append(m.sent, body)
	return ports.SendResult{MessageID: "msg-1"}, nil
}

type recordingStore struct {
	createJobCalls int
	enqueueCalls   int
	lastSource     string
}

func (s *recordingStore) CreateJob(_ context.Context, _, _ string, _ interface{}, source string) (ports.CreatedJob, error) {
	s.createJobCalls++
	s.lastSource = source
	return ports.CreatedJob{ID: "job-1"}, nil
}
func (s *recordingStore) EnqueueReview(_ context.Context, _, _, _ string, _ interface{}, _ float64, _ string) error {
	s.enqueueCalls++
	return nil
}
func (s *recordingStore) UpdateMessage(_ context.Context, _ string, _ ports.MessageUpdate) error {
	return nil
}

func extractionJSON(overall float64) string {
	payload := map[string]interface{}{
		"title":               "Reparación heladera",
		"service_type":        "refrigeracion",
		"appliance_brand":     "Samsung",
		"problem_description": "no enfría",
		"overall_confidence":  overall,
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

func baseState() VoiceIntakeState {
	return VoiceIntakeState{
		MessageID:         "m1",
		AudioURL:          "locator",
		Phone:             "+5493434890284",
		OrgID:             "org1",
		BusinessLanguages: map[string]bool{"es": true},
		Permissions:       DefaultPermissions(),
		Status:            StatusTranscribing,
	}
}

func TestIntake_HighConfidenceAutoCreate(t *testing.T) {
	messenger := &recordingMessenger{}
	store := &recordingStore{}
	p := New(Collaborators{
		STT:        fakeSTT{text: "se me rompio la heladera samsung no enfria"},
		Translator: fakeTranslator{},
		Chat:       fakeChat{response: extractionJSON(0.92)},
		Messenger:  messenger,
		Store:      store,
	}, Thresholds{})

	g, err := p.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	out, err := g.Run(context.Background(), baseState())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Status != StatusCompleted {
		t.Fatalf("expected completed, got %v", out.Status)
	}
	if out.JobID == "" {
		t.Fatal("expected job id to be set")
	}
	if store.createJobCalls != 1 || store.lastSource != "voice_ai_auto" {
		t.Fatalf("expected one create_job with voice_ai_auto source, got calls=%d source=%s", store.createJobCalls, store.lastSource)
	}
	if len(messenger.sent) != 1 {
		t.Fatalf("expected exactly one outbound message, got %d", len(messenger.sent))
	}
	found := false
	for _, m := range messenger.sent {
		if strings.Contains(m, "Trabajo creado") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected outbound to contain 'Trabajo creado', got %v", messenger.sent)
	}
}

func TestIntake_MediumConfidenceConfirm(t *testing.T) {
	messenger := &recordingMessenger{}
	store := &recordingStore{}
	p := New(Collaborators{
		STT:        fakeSTT{text: "necesito arreglar mi heladera"},
		Translator: fakeTranslator{},
		Chat:       fakeChat{response: extractionJSON(0.65)},
		Messenger:  messenger,
		Store:      store,
	}, Thresholds{})

	g, err := p.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	out, err := g.Run(context.Background(), baseState())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Status != StatusConfirming {
		t.Fatalf("expected confirming, got %v", out.Status)
	}
	if store.createJobCalls != 0 {
		t.Fatalf("expected no create_job call, got %d", store.createJobCalls)
	}
	if len(messenger.sent) != 1 || !strings.Contains(messenger.sent[0], "¿Es correcto?") {
		t.Fatalf("expected confirmation prompt, got %v", messenger.sent)
	}
	if !strings.Contains(messenger.sent[0], "*Tipo:* Refrigeración") {
		t.Fatalf("expected service-type label in confirmation, got %q", messenger.sent[0])
	}
}

func TestFormatConfirmation_ServiceTypeLabels(t *testing.T) {
	cases := []struct {
		serviceType string
		wantLabel   string
	}{
		{"plomeria", "Plomería"},
		{"aire_acondicionado", "Aire Acondicionado"},
		{"cerrajeria", "Cerrajería"},
		{"otros", "Otros"},
	}
	for _, tc := range cases {
		body := FormatConfirmation(JobExtraction{ServiceType: tc.serviceType})
		if !strings.Contains(body, "*Tipo:* "+tc.wantLabel) {
			t.Fatalf("FormatConfirmation(%q) missing label %q:\n%s", tc.serviceType, tc.wantLabel, body)
		}
	}
}

func TestIntake_LowConfidenceHumanReview(t *testing.T) {
	messenger := &recordingMessenger{}
	store := &recordingStore{}
	p := New(Collaborators{
		STT:        fakeSTT{text: "hola"},
		Translator: fakeTranslator{},
		Chat:       fakeChat{response: extractionJSON(0.35)},
		Messenger:  messenger,
		Store:      store,
	}, Thresholds{})

	g, err := p.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	out, err := g.Run(context.Background(), baseState())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Status != StatusHumanReview {
		t.Fatalf("expected human-review, got %v", out.Status)
	}
	if store.enqueueCalls != 1 {
		t.Fatalf("expected one enqueue_review call, got %d", store.enqueueCalls)
	}
	if len(messenger.sent) != 1 {
		t.Fatalf("expected one waiting message, got %d", len(messenger.sent))
	}
}

func TestIntake_TranscriptionFailureCompensates(t *testing.T) {
	messenger := &recordingMessenger{}
	store := &recordingStore{}
	p := New(Collaborators{
		STT:        fakeSTT{err: errors.New("stt unavailable")},
		Translator: fakeTranslator{},
		Chat:       fakeChat{},
		Messenger:  messenger,
		Store:      store,
	}, Thresholds{})

	g, err := p.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	out, err := g.Run(context.Background(), baseState())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Status != StatusFailed {
		t.Fatalf("expected failed, got %v", out.Status)
	}
	if store.createJobCalls != 0 {
		t.Fatalf("expected no create_job call on failure")
	}
	if store.enqueueCalls != 1 {
		t.Fatalf("expected compensation to enqueue for review, got %d", store.enqueueCalls)
	}
	if len(messenger.sent) != 1 {
		t.Fatalf("expected one problem-notice outbound, got %d", len(messenger.sent))
	}
}

func TestRoute_BoundariesInclusiveTowardHigherBranch(t *testing.T) {
	p := New(Collaborators{}, Thresholds{High: 0.85, Medium: 0.50})
	cases := []struct {
		confidence float64
		want       string
	}{
		{0.85, "auto_create"},
		{0.84, "confirm"},
		{0.50, "confirm"},
		{0.49, "human_review"},
	}
	for _, tc := range cases {
		got := p.Route(VoiceIntakeState{OverallConfidence: tc.confidence})
		if got != tc.want {
			t.Fatalf("Route(%v) = %q, want %q", tc.confidence, got, tc.want)
		}
	}
}
