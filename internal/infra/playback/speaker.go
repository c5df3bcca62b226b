//go:build portaudio
// +build portaudio

package playback

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

// Speaker plays speech on the default output device.
type Speaker struct {
	logger *slog.Logger
}

func NewSpeaker(logger *slog.Logger) *Speaker {
	return &Speaker{logger: logger}
}

func (s *Speaker) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}
	return nil
}

func (s *Speaker) Close() error {
	return portaudio.Terminate()
}

// Play blocks until the clip has been written to the device or ctx is done.
func (s *Speaker) Play(ctx context.Context, audio []byte) error {
	clip, err := Decode(audio)
	if err != nil {
		return err
	}

	out := make([]float32, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(clip.SampleRate), framesPerBuffer, out)
	if err != nil {
		return fmt.Errorf("opening output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting output stream: %w", err)
	}
	defer stream.Stop()

	s.logger.Debug("playing speech", "duration", clip.Duration())
	for off := 0; off < len(clip.Samples); off += framesPerBuffer {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(out, clip.Samples[off:])
		clear(out[n:])
		if err := stream.Write(); err != nil {
			return fmt.Errorf("writing to output stream: %w", err)
		}
	}
	return nil
}
