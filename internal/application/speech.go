package application

import (
	"context"
	"fmt"

	"vision-assistant/internal/domain"
)

type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// NoopSTT is a no-op speech-to-text client for text-only sources (e.g., Alexa).
// It returns an error if called with actual audio data.
type NoopSTT struct{}

func (n *NoopSTT) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return "", fmt.Errorf("transcribing audio: %w: set openai.api_key to enable it", domain.ErrNotConfigured)
}

// Speaker is the voice prompt chain as seen by workflows.
type Speaker interface {
	Speak(ctx context.Context, text, hint string, onDone func())
	SetLanguageOverride(lang string)
	Stop()
}
