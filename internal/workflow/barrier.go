package workflow

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrBarrierFired        = errors.New("barrier already fired")
	ErrDuplicateCompletion = errors.New("sub-request already completed")
)

// Barrier joins a fixed number of independent sub-requests. onComplete runs
// exactly once, on the goroutine that records the last completion.
type Barrier[K comparable, V any] struct {
	expected   int
	onComplete func(map[K]V)

	mu      sync.Mutex
	results map[K]V
	fired   bool
}

func NewBarrier[K comparable, V any](expected int, onComplete func(map[K]V)) (*Barrier[K, V], error) {
	if expected < 1 {
		return nil, fmt.Errorf("barrier needs at least one sub-request, got %d", expected)
	}
	return &Barrier[K, V]{
		expected:   expected,
		onComplete: onComplete,
		results:    make(map[K]V, expected),
	}, nil
}

// Complete records the result of sub-request key. Failures are completions
// too; callers pass them in as values.
func (b *Barrier[K, V]) Complete(key K, v V) error {
	b.mu.Lock()
	if b.fired {
		b.mu.Unlock()
		return ErrBarrierFired
	}
	if _, ok := b.results[key]; ok {
		b.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrDuplicateCompletion, key)
	}
	b.results[key] = v
	if len(b.results) < b.expected {
		b.mu.Unlock()
		return nil
	}
	b.fired = true
	joined := make(map[K]V, len(b.results))
	for k, r := range b.results {
		joined[k] = r
	}
	b.mu.Unlock()

	b.onComplete(joined)
	return nil
}

func (b *Barrier[K, V]) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.expected - len(b.results)
}

func (b *Barrier[K, V]) Fired() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fired
}
