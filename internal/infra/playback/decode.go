// Package playback turns synthesized MP3 speech into sound.
package playback

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep/mp3"

	"vision-assistant/internal/domain"
)

// Clip is decoded mono audio.
type Clip struct {
	Samples    []float32
	SampleRate int
}

func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Decode reads an MP3 document and mixes it down to mono.
func Decode(audio []byte) (Clip, error) {
	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(audio)))
	if err != nil {
		return Clip{}, fmt.Errorf("decoding mp3: %w: %v", domain.ErrParse, err)
	}
	defer streamer.Close()

	clip := Clip{SampleRate: int(format.SampleRate)}
	buf := make([][2]float64, 512)
	for {
		n, ok := streamer.Stream(buf)
		for _, frame := range buf[:n] {
			clip.Samples = append(clip.Samples, clamp((frame[0]+frame[1])*0.5))
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return Clip{}, fmt.Errorf("decoding mp3: %w: %v", domain.ErrParse, err)
	}
	return clip, nil
}

func clamp(v float64) float32 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return float32(v)
	}
}
