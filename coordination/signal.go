// Package coordination implements the primitive synchronization types of
// spec §4.2: Signal, WaitGroup, Semaphore, Mutex, Monitor, and Deferred.
// Named "coordination" rather than "sync" to avoid shadowing the standard
// library package of that name at import sites.
//
// The channel-fanout style used throughout (a mutex-guarded state struct
// that hands out per-waiter channels under lock, then signals them outside
// the lock) is adapted from the teacher's eventloop/promise.go promise
// type.
package coordination

import (
	"context"
	"sync"
)

// Signal is a manual-reset event (spec §3 Signal). The zero value is an
// unsignaled Signal ready to use.
type Signal struct {
	mu        sync.Mutex
	signaled  bool
	waiters   []chan struct{}
}

// Notify sets the signal and releases all current waiters. Idempotent: a
// second Notify before Reset is a no-op (the signal is already signaled).
func (s *Signal) Notify() {
	s.mu.Lock()
	if s.signaled {
		s.mu.Unlock()
		return
	}
	s.signaled = true
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()

	for _, w := range waiters {
		close(w)
	}
}

// Reset transitions signaled -> unsignaled. A no-op if already unsignaled.
func (s *Signal) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signaled = false
}

// NotifyAndReset releases current waiters, then immediately resets to
// unsignaled - so a waiter that calls Wait after this returns will suspend
// again, rather than observing the signaled state.
func (s *Signal) NotifyAndReset() {
	s.Notify()
	s.Reset()
}

// Wait blocks until the signal is notified, or ctx is done. Returns
// immediately if already signaled.
func (s *Signal) Wait(ctx context.Context) error {
	s.mu.Lock()
	if s.signaled {
		s.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	s.waiters = append(s.waiters, ch)
	s.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsSignaled reports the current state without suspending.
func (s *Signal) IsSignaled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signaled
}
