package coordination

import (
	"context"
	"fmt"
	"sync"
)

// WaitGroup is a counted latch backed by a Signal (spec §3/§4.2 WaitGroup).
// Unlike sync.WaitGroup, Add may be called concurrently with Wait without
// the caller tracking happens-before ordering themselves, and the counter
// going negative panics immediately rather than only on Wait.
//
// The zero value is a usable WaitGroup with counter 0.
type WaitGroup struct {
	mu      sync.Mutex
	counter int
	signal  Signal
}

// Add adds delta (may be negative) to the counter. If the counter
// transitions from 0 to positive, the internal signal is reset so Wait
// suspends again; if it transitions to 0, the signal is notified, releasing
// all current waiters. Driving the counter negative panics.
func (w *WaitGroup) Add(delta int) {
	w.mu.Lock()
	next := w.counter + delta
	if next < 0 {
		w.mu.Unlock()
		panic(fmt.Sprintf("coordination: WaitGroup counter went negative (%d + %d)", w.counter, delta))
	}

	wasZero := w.counter == 0
	w.counter = next
	w.mu.Unlock()

	switch {
	case wasZero && next > 0:
		w.signal.Reset()
	case next == 0 && !wasZero:
		w.signal.Notify()
	case next == 0 && wasZero:
		// counter was already 0 and Add(0) was called; nothing to do, but
		// ensure waiters registered before this call still see signaled.
		w.signal.Notify()
	}
}

// Done decrements the counter by one; equivalent to Add(-1).
func (w *WaitGroup) Done() { w.Add(-1) }

// Wait blocks until the counter reaches 0, or ctx is done.
func (w *WaitGroup) Wait(ctx context.Context) error {
	w.mu.Lock()
	counter := w.counter
	w.mu.Unlock()
	if counter == 0 {
		return nil
	}
	return w.signal.Wait(ctx)
}

// Count returns the current counter value without suspending.
func (w *WaitGroup) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.counter
}
