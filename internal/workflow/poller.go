package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"vision-assistant/internal/domain"
)

// PollPolicy bounds how a remote job is polled. Termination is decided by
// attempt count only, never by wall-clock time.
type PollPolicy struct {
	InitialDelay time.Duration
	Interval     time.Duration
	MaxAttempts  int
}

func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		InitialDelay: 3 * time.Second,
		Interval:     2 * time.Second,
		MaxAttempts:  15,
	}
}

// Delay is the wait after poll number attempt (zero based) reported running.
func (p PollPolicy) Delay(attempt int) time.Duration {
	if attempt == 0 {
		return p.InitialDelay
	}
	return p.Interval
}

// PollFunc issues one status check against the job at location.
type PollFunc[T any] func(ctx context.Context, location string) (domain.PollResult[T], error)

type Poller[T any] struct {
	policy PollPolicy
	clock  clockwork.Clock
	logger *slog.Logger
}

func NewPoller[T any](policy PollPolicy, clock clockwork.Clock, logger *slog.Logger) *Poller[T] {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultPollPolicy().MaxAttempts
	}
	return &Poller[T]{
		policy: policy,
		clock:  clock,
		logger: logger,
	}
}

// Handle is one submitted remote job. deliver is invoked exactly once with the
// terminal outcome, unless the handle is cancelled first.
type Handle[T any] struct {
	ID          string
	Location    string
	SubmittedAt time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	poll    PollFunc[T]
	deliver func(domain.Outcome[T])

	mu        sync.Mutex
	status    domain.OperationStatus
	attempts  int
	timer     clockwork.Timer
	cancelled bool
	delivered bool
}

func (h *Handle[T]) Status() domain.OperationStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

func (h *Handle[T]) Attempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts
}

// Cancel stops any scheduled poll and suppresses the pending delivery.
func (h *Handle[T]) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled {
		return
	}
	h.cancelled = true
	if h.timer != nil {
		h.timer.Stop()
	}
	h.cancel()
}

// Start takes over a submission. Immediate payloads and accepted responses
// without a location are delivered right away; everything else is polled
// starting now, without blocking the caller.
func (p *Poller[T]) Start(ctx context.Context, sub domain.Submission[T], poll PollFunc[T], deliver func(domain.Outcome[T])) *Handle[T] {
	pollCtx, cancel := context.WithCancel(ctx)
	h := &Handle[T]{
		ID:          uuid.NewString(),
		Location:    sub.Location,
		SubmittedAt: p.clock.Now(),
		ctx:         pollCtx,
		cancel:      cancel,
		poll:        poll,
		deliver:     deliver,
		status:      domain.StatusAccepted,
	}

	switch {
	case sub.Immediate:
		p.finish(h, domain.Outcome[T]{Status: domain.StatusSucceeded, Payload: sub.Payload})
	case sub.Location == "":
		p.finish(h, domain.Outcome[T]{Status: domain.StatusFailed, Err: domain.ErrMissingHandle})
	default:
		p.logger.Debug("operation accepted", "operation", h.ID, "location", h.Location)
		go p.pollOnce(h, 0)
	}
	return h
}

func (p *Poller[T]) pollOnce(h *Handle[T], attempt int) {
	h.mu.Lock()
	stop := h.cancelled || h.status.Terminal()
	h.mu.Unlock()
	if stop {
		return
	}

	if attempt >= p.policy.MaxAttempts {
		p.logger.Warn("operation polling exhausted", "operation", h.ID, "attempts", attempt)
		p.finish(h, domain.Outcome[T]{
			Status:   domain.StatusTimedOut,
			Err:      fmt.Errorf("%w after %d attempts", domain.ErrTimedOut, attempt),
			Attempts: attempt,
		})
		return
	}

	p.logger.Debug("polling operation", "operation", h.ID, "attempt", attempt+1)
	res, err := h.poll(h.ctx, h.Location)

	h.mu.Lock()
	h.attempts = attempt + 1
	h.mu.Unlock()

	if err != nil {
		p.finish(h, domain.Outcome[T]{Status: domain.StatusFailed, Err: err, Attempts: attempt + 1})
		return
	}

	switch res.Status {
	case domain.StatusSucceeded:
		p.finish(h, domain.Outcome[T]{Status: domain.StatusSucceeded, Payload: res.Payload, Attempts: attempt + 1})
	case domain.StatusFailed:
		p.finish(h, domain.Outcome[T]{Status: domain.StatusFailed, Err: domain.ErrOperationFailed, Attempts: attempt + 1})
	case domain.StatusAccepted, domain.StatusRunning:
		p.schedule(h, attempt)
	default:
		p.finish(h, domain.Outcome[T]{
			Status:   domain.StatusFailed,
			Err:      fmt.Errorf("%w: poll status %s", domain.ErrParse, res.Status),
			Attempts: attempt + 1,
		})
	}
}

func (p *Poller[T]) schedule(h *Handle[T], attempt int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled || h.status.Terminal() {
		return
	}
	h.status = domain.StatusRunning
	next := attempt + 1
	h.timer = p.clock.AfterFunc(p.policy.Delay(attempt), func() {
		p.pollOnce(h, next)
	})
}

func (p *Poller[T]) finish(h *Handle[T], out domain.Outcome[T]) {
	h.mu.Lock()
	if h.cancelled || h.delivered {
		h.mu.Unlock()
		return
	}
	h.delivered = true
	h.status = out.Status
	h.mu.Unlock()

	h.cancel()
	h.deliver(out)
}
