package coordination

import (
	"context"
	"sync"
	"sync/atomic"
)

// Mutex is a thin exclusive-lock facade over a one-permit Semaphore (spec
// §4.2 Mutex). Unlike sync.Mutex, Unlock on an already-unlocked Mutex is a
// no-op rather than a panic (spec: "an important divergence from 'panic on
// unbalanced release'" - see DESIGN.md for why this implementation keeps
// that divergence rather than strengthening it).
type Mutex struct {
	sem    Semaphore
	locked atomic.Bool
	once   sync.Once
}

func (m *Mutex) init() {
	m.once.Do(func() {
		m.sem.permits = 1
	})
}

// TryLock attempts to acquire the mutex without blocking.
func (m *Mutex) TryLock() bool {
	m.init()
	if m.sem.TryAcquire() {
		m.locked.Store(true)
		return true
	}
	return false
}

// Lock blocks until the mutex is acquired, or ctx is done.
func (m *Mutex) Lock(ctx context.Context) error {
	m.init()
	if err := m.sem.Acquire(ctx); err != nil {
		return err
	}
	m.locked.Store(true)
	return nil
}

// Unlock releases the mutex. A no-op if not currently locked.
func (m *Mutex) Unlock() {
	m.init()
	if !m.locked.CompareAndSwap(true, false) {
		return
	}
	m.sem.Release(1)
}

// IsLocked reports whether the mutex is currently held, without suspending.
func (m *Mutex) IsLocked() bool {
	return m.locked.Load()
}
