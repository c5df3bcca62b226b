// Package workflow holds the asynchronous building blocks the assistant's
// workflows are composed from: a single-threaded coordination loop, a poller
// for long-running remote jobs and a fan-out join barrier.
package workflow

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Loop runs posted functions one at a time on the goroutine that called Run.
// Completions arriving from HTTP calls or timers are posted here before they
// touch session state, so session fields never need their own locks.
type Loop struct {
	logger *slog.Logger

	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
}

func NewLoop(logger *slog.Logger) *Loop {
	return &Loop{
		logger: logger,
		wake:   make(chan struct{}, 1),
	}
}

// Post enqueues fn and never blocks. It reports false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run drains posted functions until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		batch := l.take()
		for _, fn := range batch {
			l.exec(fn)
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.closed = true
			l.queue = nil
			l.mu.Unlock()
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.queue
	l.queue = nil
	return batch
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("coordination task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
}
