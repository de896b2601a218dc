package coordination

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemaphore_ConstructionInvariants(t *testing.T) {
	assert.Panics(t, func() { NewSemaphore(-1) })
	assert.NotPanics(t, func() { NewSemaphore(0) })
}

func TestSemaphore_TryAcquireRespectsPermits(t *testing.T) {
	s := NewSemaphore(1)
	assert.True(t, s.TryAcquire())
	assert.False(t, s.TryAcquire())
	s.ReleaseOne()
	assert.True(t, s.TryAcquire())
}

func TestSemaphore_TryAcquireDoesNotJumpQueue(t *testing.T) {
	s := NewSemaphore(1)
	require.True(t, s.TryAcquire())

	acquired := make(chan struct{})
	go func() {
		require.NoError(t, s.Acquire(context.Background()))
		close(acquired)
	}()

	// Give the goroutine a chance to enqueue as a waiter.
	for s.Waiting() == 0 {
		time.Sleep(time.Millisecond)
	}

	// A permit becomes available, but a waiter is already queued: TryAcquire
	// must not steal it ahead of the queued Acquire.
	s.ReleaseOne()
	assert.False(t, s.TryAcquire())

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("queued acquirer never woke")
	}
}

func TestSemaphore_ReleaseServesFIFO(t *testing.T) {
	s := NewSemaphore(0)
	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, s.Acquire(context.Background()))
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}()
		for s.Waiting() <= i {
			time.Sleep(time.Millisecond)
		}
	}

	// Hand out one permit at a time and wait for its acquirer to record
	// itself, so the recorded order is the order permits were served in
	// rather than the order the woken goroutines happened to be scheduled.
	for i := 0; i < 3; i++ {
		s.Release(1)
		for {
			mu.Lock()
			n := len(order)
			mu.Unlock()
			if n > i {
				break
			}
			time.Sleep(time.Millisecond)
		}
	}
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestSemaphore_AcquireCancelledByContextRemovesWaiter(t *testing.T) {
	s := NewSemaphore(0)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- s.Acquire(ctx)
	}()

	for s.Waiting() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("cancelled acquire never returned")
	}

	assert.Equal(t, 0, s.Waiting())
	assert.Equal(t, 0, s.Permits())
}

// TestSemaphore_Invariant exercises the documented FIFO invariant across
// concurrent acquire/release traffic: Permits()>0 and Waiting()>0 must never
// both be observed true, since Release always drains waiters before banking
// a permit, and TryAcquire/Acquire always drain permits before queueing.
func TestSemaphore_Invariant(t *testing.T) {
	s := NewSemaphore(2)
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if s.TryAcquire() {
					time.Sleep(time.Microsecond)
					s.ReleaseOne()
				}
			}
		}()
	}

	deadline := time.Now().Add(50 * time.Millisecond)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		permits, waiting := s.permits, len(s.waiters)
		s.mu.Unlock()
		assert.False(t, permits > 0 && waiting > 0, "permits=%d waiting=%d violates the invariant", permits, waiting)
	}

	close(stop)
	wg.Wait()
}
