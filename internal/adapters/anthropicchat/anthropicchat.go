// Package anthropicchat implements the ports.ChatCompletion collaborator on
// top of the Anthropic Messages API.
package anthropicchat

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"campotech-ai-engine/internal/ports"
	"campotech-ai-engine/platform/logger"
)

// Adapter satisfies ports.ChatCompletion.
type Adapter struct {
	client    anthropic.Client
	model     string
	maxTokens int
	log       *logger.Logger
}

// New builds an Adapter. model defaults to claude-sonnet-4-20250514 when
// empty.
func New(apiKey, model string, log *logger.Logger) *Adapter {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	return &Adapter{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: 4096,
		log:       log,
	}
}

// Complete issues a single system+user completion request. When
// opts.MaxTokens is set it overrides the adapter default.
func (a *Adapter) Complete(ctx context.Context, systemPrompt, userPrompt string, opts ports.CompletionOptions) (string, error) {
	maxTokens := a.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		if a.log != nil {
			a.log.CollaboratorCall("anthropic", "complete", 0, err)
		}
		return "", fmt.Errorf("anthropic completion failed: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("anthropic completion returned no text content")
	}
	return out.String(), nil
}
