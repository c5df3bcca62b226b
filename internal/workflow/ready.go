package workflow

import (
	"context"
	"sync"
)

// Readiness tracks whether the newest piece of work has finished. Busy hands
// out a token; only Done with the latest token makes Wait return, so a late
// completion of superseded work cannot report readiness early.
type Readiness struct {
	mu    sync.Mutex
	token uint64
	idle  bool
	ch    chan struct{}
}

func NewReadiness() *Readiness {
	ch := make(chan struct{})
	close(ch)
	return &Readiness{idle: true, ch: ch}
}

func (r *Readiness) Busy() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.idle {
		r.ch = make(chan struct{})
		r.idle = false
	}
	r.token++
	return r.token
}

// Token is the most recent token handed out by Busy.
func (r *Readiness) Token() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.token
}

func (r *Readiness) Done(token uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token != r.token || r.idle {
		return
	}
	r.idle = true
	close(r.ch)
}

// Wait blocks until the latest work is done or ctx ends.
func (r *Readiness) Wait(ctx context.Context) error {
	r.mu.Lock()
	ch := r.ch
	r.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
