//go:build !portaudio
// +build !portaudio

package playback

import (
	"context"
	"errors"
	"log/slog"
)

var errNoAudioDevice = errors.New("speaker playback requires building with -tags portaudio")

type Speaker struct {
	logger *slog.Logger
}

func NewSpeaker(logger *slog.Logger) *Speaker {
	return &Speaker{logger: logger}
}

func (s *Speaker) Start() error {
	return errNoAudioDevice
}

func (s *Speaker) Close() error {
	return nil
}

func (s *Speaker) Play(_ context.Context, _ []byte) error {
	return errNoAudioDevice
}
