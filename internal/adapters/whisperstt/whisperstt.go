// Package whisperstt implements the ports.SpeechToText collaborator on top
// of a local whisper.cpp model.
package whisperstt

import (
	"context"
	"fmt"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"campotech-ai-engine/platform/logger"
)

// Adapter satisfies ports.SpeechToText.
type Adapter struct {
	model whisper.Model
	log   *logger.Logger
}

// New loads the whisper.cpp model at modelPath.
func New(modelPath string, log *logger.Logger) (*Adapter, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper model load failed: %w", err)
	}
	return &Adapter{model: model, log: log}, nil
}

// Close releases the underlying model.
func (a *Adapter) Close() error {
	return a.model.Close()
}

// Transcribe decodes audio to PCM and runs it through the whisper.cpp
// context with the given language hint.
func (a *Adapter) Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error) {
	samples, err := decodePCM16kMono(audio)
	if err != nil {
		return "", fmt.Errorf("audio decode failed: %w", err)
	}

	wctx, err := a.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper context init failed: %w", err)
	}
	if languageHint != "" {
		if err := wctx.SetLanguage(languageHint); err != nil {
			return "", fmt.Errorf("whisper set language failed: %w", err)
		}
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper process failed: %w", err)
	}

	var text string
	for {
		segment, err := wctx.NextSegment()
		if err != nil {
			break
		}
		text += segment.Text
	}
	if text == "" {
		return "", fmt.Errorf("whisper produced no transcription segments")
	}
	return text, nil
}

// decodePCM16kMono converts the audio payload to the float32 PCM samples
// whisper.cpp expects. It reads the payload as raw little-endian 16-bit
// mono PCM; compressed containers such as Opus-in-Ogg are not decoded, and
// nothing outside this package replaces the function.
var decodePCM16kMono = func(audio []byte) ([]float32, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio payload")
	}
	samples := make([]float32, len(audio)/2)
	for i := range samples {
		lo := int16(audio[2*i])
		hi := int16(audio[2*i+1])
		samples[i] = float32(lo|hi<<8) / 32768.0
	}
	return samples, nil
}
