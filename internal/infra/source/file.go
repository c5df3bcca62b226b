package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

var (
	AudioExtensions = []string{".wav", ".mp3", ".m4a", ".webm"}
	ImageExtensions = []string{".jpg", ".jpeg", ".png"}
)

// FileSource watches a directory and hands out each new matching file once,
// renaming it with a .processed suffix.
type FileSource struct {
	dir        string
	extensions []string
	interval   time.Duration
	processed  map[string]bool
	mu         sync.Mutex
}

func NewFileSource(dir string, extensions []string) *FileSource {
	return &FileSource{
		dir:        dir,
		extensions: extensions,
		interval:   500 * time.Millisecond,
		processed:  make(map[string]bool),
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating watch dir: %w", err)
	}
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

func (f *FileSource) NextCommand(ctx context.Context) ([]byte, error) {
	return f.next(ctx)
}

// Capture returns the next image dropped into the directory.
func (f *FileSource) Capture(ctx context.Context) ([]byte, error) {
	if err := f.Start(ctx); err != nil {
		return nil, err
	}
	return f.next(ctx)
}

func (f *FileSource) next(ctx context.Context) ([]byte, error) {
	if data, err := f.checkForNewFile(); err != nil || data != nil {
		return data, err
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			data, err := f.checkForNewFile()
			if err != nil {
				return nil, err
			}
			if data != nil {
				return data, nil
			}
		}
	}
}

func (f *FileSource) checkForNewFile() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !slices.Contains(f.extensions, ext) {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.processed[path] {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", path, err)
		}

		f.processed[path] = true

		processedPath := path + ".processed"
		os.Rename(path, processedPath)

		return data, nil
	}

	return nil, nil
}
