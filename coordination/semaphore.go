package coordination

import (
	"context"
	"sync"
)

// Semaphore is a counted permit with a strict FIFO acquire queue (spec §3/
// §4.2 Semaphore). The zero value is not valid; use NewSemaphore.
type Semaphore struct {
	mu      sync.Mutex
	permits int
	waiters []chan struct{}
}

// NewSemaphore creates a Semaphore with the given initial permit count.
// Panics if permits is negative.
func NewSemaphore(permits int) *Semaphore {
	if permits < 0 {
		panic("coordination: NewSemaphore: negative permits")
	}
	return &Semaphore{permits: permits}
}

// TryAcquire attempts to acquire one permit without blocking. Returns false
// if none is available (even if waiters are already queued, to preserve
// FIFO fairness: a TryAcquire must not jump the queue).
func (s *Semaphore) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.permits > 0 && len(s.waiters) == 0 {
		s.permits--
		return true
	}
	return false
}

// Acquire blocks until a permit is available, or ctx is done. Waiters are
// served strictly in FIFO order. If ctx is cancelled while queued, the
// waiter is removed from the queue (spec: "Cancellation of an acquirer
// removes it from the waiter queue").
func (s *Semaphore) Acquire(ctx context.Context) error {
	s.mu.Lock()
	if s.permits > 0 && len(s.waiters) == 0 {
		s.permits--
		s.mu.Unlock()
		return nil
	}

	ch := make(chan struct{}, 1)
	s.waiters = append(s.waiters, ch)
	s.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		s.removeWaiter(ch)
		return ctx.Err()
	}
}

func (s *Semaphore) removeWaiter(ch chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range s.waiters {
		if w == ch {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			return
		}
	}
	// Already popped by Release concurrently with this cancellation; the
	// permit it was handed is passed on to the next queued waiter, or back
	// to the balance if none is queued.
	select {
	case <-ch:
		if len(s.waiters) > 0 {
			w := s.waiters[0]
			s.waiters = s.waiters[1:]
			w <- struct{}{}
		} else {
			s.permits++
		}
	default:
	}
}

// Release returns n permits (default 1 when called with no arguments via
// ReleaseOne), handing them to the oldest waiters first; any remainder
// beyond what waiters consume increments the permit balance.
func (s *Semaphore) Release(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for n > 0 && len(s.waiters) > 0 {
		w := s.waiters[0]
		s.waiters = s.waiters[1:]
		n--
		w <- struct{}{}
	}
	s.permits += n
}

// ReleaseOne is shorthand for Release(1).
func (s *Semaphore) ReleaseOne() { s.Release(1) }

// Permits returns the current available permit balance without suspending.
func (s *Semaphore) Permits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permits
}

// Waiting returns the number of queued acquirers without suspending.
func (s *Semaphore) Waiting() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiters)
}
