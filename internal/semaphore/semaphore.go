// Package semaphore provides a counting semaphore for bounding how many
// preprocessing jobs run concurrently in one process.
package semaphore

import (
	"context"
	"sync/atomic"
)

// Semaphore bounds concurrent access to a resource of fixed capacity (here,
// the number of simultaneous cpp.Preprocess calls the batch command allows).
type Semaphore struct {
	ch chan struct{}

	waits atomic.Int64
	reqs  atomic.Int64
}

// New creates a semaphore with the given capacity.
func New(n int) *Semaphore {
	return &Semaphore{ch: make(chan struct{}, n)}
}

// WaitAcquire blocks until a slot is free or ctx is done. The returned func
// releases the slot and must be called exactly once when acquisition
// succeeded.
func (s *Semaphore) WaitAcquire(ctx context.Context) (func(), error) {
	s.waits.Add(1)
	defer s.waits.Add(-1)
	select {
	case s.ch <- struct{}{}:
		s.reqs.Add(1)
		return func() { <-s.ch }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	}
}

// Do runs f while holding a slot.
func (s *Semaphore) Do(ctx context.Context, f func(ctx context.Context) error) error {
	done, err := s.WaitAcquire(ctx)
	if err != nil {
		return err
	}
	defer done()
	return f(ctx)
}

// Capacity returns the semaphore's total capacity.
func (s *Semaphore) Capacity() int { return cap(s.ch) }

// NumServing returns the number of slots currently held.
func (s *Semaphore) NumServing() int { return len(s.ch) }

// NumRequests returns the total number of successful acquisitions.
func (s *Semaphore) NumRequests() int { return int(s.reqs.Load()) }
