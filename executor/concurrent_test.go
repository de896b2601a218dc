package executor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrent_RunsOverlapping(t *testing.T) {
	c := NewConcurrent[int](4, 8)

	var running, maxRunning int32
	start := make(chan struct{})
	done := make(chan struct{}, 2)

	for i := 0; i < 2; i++ {
		_ = c.Execute(context.Background(), nil, func(ctx context.Context) (int, error) {
			n := atomic.AddInt32(&running, 1)
			for {
				cur := atomic.LoadInt32(&maxRunning)
				if n <= cur || atomic.CompareAndSwapInt32(&maxRunning, cur, n) {
					break
				}
			}
			<-start
			atomic.AddInt32(&running, -1)
			done <- struct{}{}
			return 0, nil
		})
	}
	// Hold the gate shut until both calls are running (or a second passes),
	// so a fast first call cannot finish before the second one starts.
	waitUntil := time.Now().Add(time.Second)
	for atomic.LoadInt32(&maxRunning) < 2 && time.Now().Before(waitUntil) {
		time.Sleep(time.Millisecond)
	}
	close(start)
	<-done
	<-done

	assert.Equal(t, int32(2), atomic.LoadInt32(&maxRunning))
}

func TestConcurrent_WaitAggregatesFirstError(t *testing.T) {
	c := NewConcurrent[int](2, 8)
	boom := errors.New("boom")

	d1 := c.Execute(context.Background(), nil, func(ctx context.Context) (int, error) {
		return 0, boom
	})
	d2 := c.Execute(context.Background(), nil, func(ctx context.Context) (int, error) {
		return 1, nil
	})

	_, _ = d1.Wait(context.Background())
	_, _ = d2.Wait(context.Background())

	err := c.Wait()
	assert.ErrorIs(t, err, boom)
}

func TestConcurrent_ShutdownLifecycle(t *testing.T) {
	c := NewConcurrent[int](1, 4)
	assert.False(t, c.IsShutdownInitiated())
	assert.False(t, c.IsShutdown())

	d := c.Execute(context.Background(), nil, func(ctx context.Context) (int, error) {
		return 1, nil
	})
	_, err := d.Wait(context.Background())
	require.NoError(t, err)

	<-c.Shutdown()
	assert.True(t, c.IsShutdownInitiated())
	assert.True(t, c.IsShutdown())
}
