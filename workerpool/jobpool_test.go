package workerpool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/asyncrt/cancel"
	"github.com/joeycumines/asyncrt/coordination"
)

func TestJobPool_SubmitResolvesResult(t *testing.T) {
	pool := New(1, 4)
	jp := NewJobPool[int](pool)

	job, err := jp.Submit(context.Background(), nil, func(ctx context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.NotEqual(t, job.ID.String(), "")

	v, err := job.Result.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestJobPool_SubmitRejectsResultOnError(t *testing.T) {
	pool := New(1, 4)
	jp := NewJobPool[int](pool)
	sentinel := errors.New("boom")

	job, err := jp.Submit(context.Background(), nil, func(ctx context.Context) (int, error) {
		return 0, sentinel
	})
	require.NoError(t, err)

	_, err = job.Result.Wait(context.Background())
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, coordination.Rejected, job.Result.Status())
}

func TestJobPool_SubmitHonorsCancellationToken(t *testing.T) {
	pool := New(1, 4)
	jp := NewJobPool[int](pool)
	token, controller := cancel.New()

	block := make(chan struct{})
	require.NoError(t, pool.Submit(context.Background(), func(ctx context.Context) error { <-block; return nil }))

	job, err := jp.Submit(context.Background(), token, func(ctx context.Context) (int, error) {
		return 1, nil
	})
	require.NoError(t, err)
	assert.Same(t, token, job.Token)

	controller.Cancel(errors.New("cancelled for test"))

	_, err = job.Result.Wait(context.Background())
	assert.Equal(t, coordination.RejectedCancelled, job.Result.Status())
	assert.Error(t, err)
	close(block)
}

// TestJobPool_ShutdownNowReturnsWrappedJobs is a regression test for
// ShutdownNow: it must return the *Job[T] wrappers (with their ID, Result,
// and Token intact) for every dropped submission, not raw closures, so a
// caller can inspect or reject the dropped jobs' Deferreds.
func TestJobPool_ShutdownNowReturnsWrappedJobs(t *testing.T) {
	pool := New(1, 4)
	jp := NewJobPool[int](pool)
	token, _ := cancel.New()

	block := make(chan struct{})
	defer close(block)
	running, err := jp.Submit(context.Background(), nil, func(ctx context.Context) (int, error) {
		<-block
		return 0, nil
	})
	require.NoError(t, err)

	queued, err := jp.Submit(context.Background(), token, func(ctx context.Context) (int, error) {
		t.Fatal("queued job must not run after ShutdownNow")
		return 0, nil
	})
	require.NoError(t, err)

	dropped := jp.ShutdownNow()
	require.Len(t, dropped, 1)
	assert.Equal(t, queued.ID, dropped[0].ID)
	assert.Same(t, token, dropped[0].Token)
	assert.NotEqual(t, running.ID, dropped[0].ID)

	assert.Equal(t, coordination.Pending, dropped[0].Result.Status())
	dropped[0].Result.Reject(errors.New("dropped by shutdown"))
	_, err = dropped[0].Result.Wait(context.Background())
	assert.Error(t, err)

	assert.Equal(t, Shutdown, pool.State())
}

func TestJobPool_ShutdownDelegatesToPool(t *testing.T) {
	pool := New(1, 2)
	jp := NewJobPool[int](pool)

	done := jp.Shutdown()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("jobpool shutdown never resolved")
	}
	assert.Equal(t, Shutdown, pool.State())
}
