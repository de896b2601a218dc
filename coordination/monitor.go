package coordination

import (
	"context"
	"sync"
)

// Monitor is a list of waiters awaiting a pulse (spec §3/§4.2 Monitor).
// Pulses are not retained: a waiter that calls Wait after a pulse has
// already fired does not observe that pulse - it queues for the next one.
// The zero value is a usable Monitor.
type Monitor struct {
	mu      sync.Mutex
	waiters []*monitorWaiter
}

type monitorWaiter struct {
	ch        chan struct{}
	cancelled bool
}

// Wait queues the caller to be released by the next PulseOne or PulseAll,
// and blocks until that happens or ctx is done. If ctx is done first, the
// waiter is marked cancelled in place (not removed, to keep index-based
// bookkeeping simple) so PulseOne skips it when choosing the oldest live
// receiver.
func (m *Monitor) Wait(ctx context.Context) error {
	w := &monitorWaiter{ch: make(chan struct{}, 1)}
	m.mu.Lock()
	m.waiters = append(m.waiters, w)
	m.mu.Unlock()

	select {
	case <-w.ch:
		return nil
	case <-ctx.Done():
		m.mu.Lock()
		w.cancelled = true
		m.mu.Unlock()
		return ctx.Err()
	}
}

// PulseOne resolves the oldest non-cancelled queued waiter, if any,
// guaranteeing at least one live receiver is released when one exists.
func (m *Monitor) PulseOne() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.waiters) > 0 {
		w := m.waiters[0]
		m.waiters = m.waiters[1:]
		if w.cancelled {
			continue
		}
		w.ch <- struct{}{}
		return
	}
}

// PulseAll resolves every currently queued waiter that is not marked
// cancelled; waiters already marked cancelled are dropped from the queue
// without being sent a pulse.
func (m *Monitor) PulseAll() {
	m.mu.Lock()
	waiters := m.waiters
	m.waiters = nil
	m.mu.Unlock()

	for _, w := range waiters {
		if !w.cancelled {
			w.ch <- struct{}{}
		}
	}
}

// Waiting returns the number of currently queued waiters, without
// suspending.
func (m *Monitor) Waiting() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiters)
}
