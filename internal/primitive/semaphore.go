// Package primitive holds the thin OS-primitive shims the scheduler
// is built on: a counting semaphore used to park and wake idle
// workers. Grounded on sourcegraph/zoekt's shard scheduler, which
// throttles concurrent work through the same golang.org/x/sync/
// semaphore.Weighted type this package wraps.
package primitive

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// maxWeight bounds how many permits a Semaphore can ever hold
// outstanding at once. The scheduler never needs more than one permit
// per worker thread, so this comfortably covers any realistic thread
// count.
const maxWeight = 1 << 20

// Semaphore is a counting semaphore created with zero permits: Signal
// releases n permits, Wait blocks until one is available and consumes
// it. Built on semaphore.Weighted, which models the opposite polarity
// (it starts fully available and Acquire consumes capacity), so
// construction pre-acquires the full weight once, synchronously and
// without blocking (nothing else holds it yet), leaving zero available
// until the first Signal.
type Semaphore struct {
	w *semaphore.Weighted
}

// NewSemaphore returns a Semaphore with 0 permits available.
func NewSemaphore() *Semaphore {
	s := &Semaphore{w: semaphore.NewWeighted(maxWeight)}
	if !s.w.TryAcquire(maxWeight) {
		// Unreachable: nothing else can hold a brand new Weighted's
		// capacity yet.
		panic("primitive: failed to drain new semaphore")
	}
	return s
}

// Signal releases n permits.
func (s *Semaphore) Signal(n int) {
	if n <= 0 {
		return
	}
	s.w.Release(int64(n))
}

// Wait blocks until a permit is available, then consumes one.
func (s *Semaphore) Wait(ctx context.Context) error {
	return s.w.Acquire(ctx, 1)
}
