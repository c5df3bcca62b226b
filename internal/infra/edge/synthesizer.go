// Package edge synthesizes speech through the Microsoft Edge read-aloud
// service, which needs no subscription key.
package edge

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/difyz9/edge-tts-go/pkg/communicate"

	"vision-assistant/internal/domain"
	"vision-assistant/internal/voice"
)

type Options struct {
	Rate           int // percent relative to normal speed
	Volume         int // percent relative to normal volume
	Pitch          int // hertz
	ConnectTimeout int // seconds
	ReceiveTimeout int // seconds
}

func DefaultOptions() Options {
	return Options{ConnectTimeout: 10, ReceiveTimeout: 60}
}

type Synthesizer struct {
	opts   Options
	logger *slog.Logger
}

func NewSynthesizer(opts Options, logger *slog.Logger) *Synthesizer {
	d := DefaultOptions()
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = d.ConnectTimeout
	}
	if opts.ReceiveTimeout <= 0 {
		opts.ReceiveTimeout = d.ReceiveTimeout
	}
	return &Synthesizer{opts: opts, logger: logger}
}

func (s *Synthesizer) Configured() bool {
	return true
}

func signed(v int, unit string) string {
	return fmt.Sprintf("%+d%s", v, unit)
}

// Synthesize returns the MP3 audio for req, collected from the streamed chunks.
func (s *Synthesizer) Synthesize(ctx context.Context, req voice.SpeechRequest) ([]byte, error) {
	comm, err := communicate.NewCommunicate(
		req.Text,
		req.Voice,
		signed(s.opts.Rate, "%"),
		signed(s.opts.Volume, "%"),
		signed(s.opts.Pitch, "Hz"),
		"",
		s.opts.ConnectTimeout,
		s.opts.ReceiveTimeout,
	)
	if err != nil {
		return nil, fmt.Errorf("edge tts: %w: %v", domain.ErrRejected, err)
	}

	chunks, errs := comm.Stream(ctx)
	var audio bytes.Buffer
	for chunk := range chunks {
		if chunk.Type == "audio" {
			audio.Write(chunk.Data)
		}
	}
	if err := <-errs; err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("edge tts: %w: %v", domain.ErrTransport, err)
	}
	if audio.Len() == 0 {
		return nil, fmt.Errorf("edge tts: %w: no audio received", domain.ErrParse)
	}

	s.logger.Debug("speech synthesized", "voice", req.Voice, "bytes", audio.Len())
	return audio.Bytes(), nil
}
