package playback

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// FilePlayer writes each narration to an MP3 file and holds Play for as long
// as the audio lasts, so prompts still chain on headless hosts.
type FilePlayer struct {
	dir      string
	clock    clockwork.Clock
	logger   *slog.Logger
	duration func([]byte) (time.Duration, error)
}

func NewFilePlayer(dir string, clock clockwork.Clock, logger *slog.Logger) *FilePlayer {
	return &FilePlayer{
		dir:    dir,
		clock:  clock,
		logger: logger,
		duration: func(audio []byte) (time.Duration, error) {
			clip, err := Decode(audio)
			return clip.Duration(), err
		},
	}
}

func (p *FilePlayer) Play(ctx context.Context, audio []byte) error {
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return fmt.Errorf("creating playback dir: %w", err)
	}

	path := filepath.Join(p.dir, fmt.Sprintf("speech-%s.mp3", uuid.NewString()))
	if err := os.WriteFile(path, audio, 0644); err != nil {
		return fmt.Errorf("writing speech: %w", err)
	}

	d, err := p.duration(audio)
	if err != nil {
		return err
	}
	p.logger.Info("speech saved", "path", path, "duration", d)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.clock.After(d):
		return nil
	}
}
