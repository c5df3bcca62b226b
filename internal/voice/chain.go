// Package voice speaks narrations one at a time and reports completion so
// workflows can continue once the user has heard a prompt.
package voice

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

type State int

const (
	StateIdle State = iota
	StateSynthesizing
	StatePlaying
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSynthesizing:
		return "synthesizing"
	case StatePlaying:
		return "playing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type SpeechRequest struct {
	Text     string
	Language string
	Voice    string
}

// Synthesizer turns text into encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error)
}

// Player plays encoded audio and returns when playback ends or ctx is done.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// Configurable is implemented by synthesizers that can tell up front whether
// they have credentials.
type Configurable interface {
	Configured() bool
}

type Chain struct {
	synth  Synthesizer
	player Player
	voices *Selector
	logger *slog.Logger

	mu       sync.Mutex
	override string
	active   *playback
	state    State
}

type playback struct {
	cancel context.CancelFunc
	onDone func()
	once   sync.Once
	done   chan struct{}
}

func NewChain(synth Synthesizer, player Player, voices *Selector, logger *slog.Logger) *Chain {
	if voices == nil {
		voices = DefaultSelector()
	}
	return &Chain{
		synth:  synth,
		player: player,
		voices: voices,
		logger: logger,
	}
}

// SetLanguageOverride pins the voice language for following Speak calls.
// An empty code clears it.
func (c *Chain) SetLanguageOverride(lang string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.override = lang
}

func (c *Chain) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Speak synthesizes and plays text without blocking. onDone runs exactly
// once: after playback, after any failure, or after a later Speak or Stop
// interrupts this one.
func (c *Chain) Speak(ctx context.Context, text, hint string, onDone func()) {
	pctx, cancel := context.WithCancel(ctx)
	pb := &playback{cancel: cancel, onDone: onDone, done: make(chan struct{})}

	c.mu.Lock()
	prev := c.active
	c.active = pb
	c.state = StateIdle
	voice := c.voices.Select(c.override, hint)
	c.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}

	if strings.TrimSpace(text) == "" {
		c.logger.Warn("speak called with empty text")
		c.finish(pb)
		return
	}
	if cfg, ok := c.synth.(Configurable); ok && !cfg.Configured() {
		c.logger.Warn("speech synthesis not configured, skipping", "text", preview(text))
		c.setState(pb, StateFailed)
		c.finish(pb)
		return
	}

	req := SpeechRequest{Text: text, Language: voice.Language, Voice: voice.Name}
	c.setState(pb, StateSynthesizing)
	go c.run(pctx, pb, prev, req)
}

// Stop interrupts the active playback, if any.
func (c *Chain) Stop() {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()
	if active != nil {
		active.cancel()
	}
}

func (c *Chain) run(ctx context.Context, pb, prev *playback, req SpeechRequest) {
	defer c.finish(pb)

	c.logger.Debug("synthesizing speech", "language", req.Language, "voice", req.Voice, "text", preview(req.Text))
	audio, err := c.synth.Synthesize(ctx, req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Error("speech synthesis failed", "error", err)
		}
		c.setState(pb, StateFailed)
		return
	}

	if prev != nil {
		select {
		case <-prev.done:
		case <-ctx.Done():
			return
		}
	}
	if ctx.Err() != nil {
		return
	}

	c.setState(pb, StatePlaying)
	if err := c.player.Play(ctx, audio); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Error("playback failed", "error", err)
		c.setState(pb, StateFailed)
	}
}

func (c *Chain) setState(pb *playback, s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == pb {
		c.state = s
	}
}

// finish always lands in StateDone; StateFailed is only observable between
// the failure and this call.
func (c *Chain) finish(pb *playback) {
	pb.once.Do(func() {
		pb.cancel()
		c.mu.Lock()
		if c.active == pb {
			c.active = nil
			c.state = StateDone
		}
		c.mu.Unlock()
		close(pb.done)

		if pb.onDone != nil {
			pb.onDone()
		}
	})
}

func preview(text string) string {
	r := []rune(text)
	if len(r) <= 50 {
		return text
	}
	return string(r[:50]) + "..."
}
