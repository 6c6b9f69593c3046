// Package genaitranslate implements the ports.Translator collaborator on
// top of the Gemini API for language detection and translation.
package genaitranslate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"campotech-ai-engine/internal/ports"
)

// Adapter satisfies ports.Translator.
type Adapter struct {
	client *genai.Client
	model  string
}

// New builds an Adapter against the Gemini API backend.
func New(ctx context.Context, apiKey, model string) (*Adapter, error) {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client init failed: %w", err)
	}
	return &Adapter{client: client, model: model}, nil
}

const detectInstruction = `Identificá el idioma del siguiente texto. Respondé únicamente con un objeto JSON: {"code": "<código ISO 639-1>", "display_name": "<nombre del idioma>", "confidence": <0-1>}.

Texto:
%s`

// Detect identifies the language of text. Tolerant of
// sub-sentence input.
func (a *Adapter) Detect(ctx context.Context, text string) (ports.DetectedLanguage, error) {
	prompt := strings.Replace(detectInstruction, "%s", text, 1)
	raw, err := a.generate(ctx, prompt, 0.0)
	if err != nil {
		return ports.DetectedLanguage{}, err
	}

	var payload struct {
		Code        string  `json:"code"`
		DisplayName string  `json:"display_name"`
		Confidence  float64 `json:"confidence"`
	}
	body := extractBalancedJSON(raw)
	if body == "" || json.Unmarshal([]byte(body), &payload) != nil {
		return ports.DetectedLanguage{}, fmt.Errorf("genai detect: could not parse response %q", raw)
	}
	return ports.DetectedLanguage{
		Code:        payload.Code,
		DisplayName: payload.DisplayName,
		Confidence:  payload.Confidence,
	}, nil
}

const translateInstruction = `Traducí el siguiente texto del idioma "%s" al idioma "%s". Usá español rioplatense (vos, che) cuando el destino sea español. Respondé únicamente con el texto traducido, sin comillas ni explicación.

Texto:
%s`

// Translate converts text between two language codes. Tolerant of
// sub-sentence input.
func (a *Adapter) Translate(ctx context.Context, text, source, target string) (string, error) {
	prompt := strings.Replace(translateInstruction, "%s", source, 1)
	prompt = strings.Replace(prompt, "%s", target, 1)
	prompt = strings.Replace(prompt, "%s", text, 1)

	out, err := a.generate(ctx, prompt, 0.2)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (a *Adapter) generate(ctx context.Context, instruction string, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	}
	resp, err := a.client.Models.GenerateContent(ctx, a.model, []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				genai.NewPartFromText(instruction),
			},
		},
	}, config)
	if err != nil {
		return "", fmt.Errorf("genai generate failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("genai generate returned no text")
	}
	return text, nil
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
