//go:build !portaudio

package source

import (
	"context"
	"fmt"
	"log/slog"

	"vision-assistant/internal/domain"
)

// MicrophoneSource is unavailable in builds without the portaudio tag. Start
// fails so the assistant reports the missing input at startup.
type MicrophoneSource struct{}

func NewMicrophoneSource(_ int, _ int16, logger *slog.Logger) *MicrophoneSource {
	logger.Warn("microphone input needs a build with -tags portaudio")
	return &MicrophoneSource{}
}

func (*MicrophoneSource) Name() string { return "microphone" }

func (*MicrophoneSource) Start(context.Context) error {
	return fmt.Errorf("microphone: %w: built without portaudio", domain.ErrNotConfigured)
}

func (*MicrophoneSource) Stop() error { return nil }

func (*MicrophoneSource) NextCommand(context.Context) ([]byte, error) {
	return nil, fmt.Errorf("microphone: %w", domain.ErrNotConfigured)
}
