package coordination

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitGroup_ZeroValueWaitsImmediately(t *testing.T) {
	var wg WaitGroup
	require.NoError(t, wg.Wait(context.Background()))
}

func TestWaitGroup_AddDoneCounterSemantics(t *testing.T) {
	var wg WaitGroup
	wg.Add(2)
	assert.Equal(t, 2, wg.Count())

	wg.Done()
	assert.Equal(t, 1, wg.Count())

	done := make(chan struct{})
	go func() {
		require.NoError(t, wg.Wait(context.Background()))
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before counter reached 0")
	case <-time.After(20 * time.Millisecond):
	}

	wg.Done()
	assert.Equal(t, 0, wg.Count())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait never returned after counter reached 0")
	}
}

func TestWaitGroup_NegativeCounterPanics(t *testing.T) {
	var wg WaitGroup
	assert.Panics(t, func() { wg.Done() })
}

func TestWaitGroup_WaitCancelledByContext(t *testing.T) {
	var wg WaitGroup
	wg.Add(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- wg.Wait(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait never returned after context cancellation")
	}
}

func TestWaitGroup_ReenteringPositiveResetsSignal(t *testing.T) {
	var wg WaitGroup
	wg.Add(1)
	wg.Done()
	require.NoError(t, wg.Wait(context.Background()))

	wg.Add(1)
	done := make(chan struct{})
	go func() {
		require.NoError(t, wg.Wait(context.Background()))
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before the re-raised counter reached 0 again")
	case <-time.After(20 * time.Millisecond):
	}

	wg.Done()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait never returned after the re-raised counter reached 0")
	}
}
