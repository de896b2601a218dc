package coordination

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeferred_ResolveIsIdempotent(t *testing.T) {
	d := &Deferred[int]{}
	d.Resolve(1)
	d.Resolve(2)
	d.Reject(errors.New("too late"))

	v, err := d.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, Resolved, d.Status())
}

func TestDeferred_RejectIsIdempotent(t *testing.T) {
	d := &Deferred[int]{}
	first := errors.New("first")
	d.Reject(first)
	d.Reject(errors.New("second"))
	d.Resolve(9)

	_, err := d.Wait(context.Background())
	assert.Same(t, first, err)
	assert.Equal(t, Rejected, d.Status())
}

func TestDeferred_WaitOnAlreadySettledReturnsImmediately(t *testing.T) {
	d := &Deferred[string]{}
	d.Resolve("done")

	v, err := d.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestDeferred_WaitCancelledByContext(t *testing.T) {
	d := &Deferred[int]{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := d.Wait(ctx)
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait never returned after context cancellation")
	}
}

func TestDeferred_OnSettledFiresOnceAfterSettle(t *testing.T) {
	d := &Deferred[int]{}
	results := make(chan int, 1)
	d.OnSettled(func(status Status, v int, err error) {
		results <- v
	})
	d.Resolve(42)

	select {
	case v := <-results:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("OnSettled callback never fired")
	}
}

func TestDeferred_OnSettledFiresImmediatelyIfAlreadySettled(t *testing.T) {
	d := &Deferred[int]{}
	d.Resolve(7)

	results := make(chan int, 1)
	d.OnSettled(func(status Status, v int, err error) {
		results <- v
	})

	select {
	case v := <-results:
		assert.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("OnSettled callback never fired for an already-settled Deferred")
	}
}

type fakeToken struct {
	cancelled bool
	reason    error
}

func (f *fakeToken) IsCancelled() bool { return f.cancelled }
func (f *fakeToken) Reason() error     { return f.reason }
func (f *fakeToken) Register(cb func(reason error)) func() {
	if f.cancelled {
		cb(f.reason)
	}
	return func() {}
}

func TestDeferred_AlreadyCancelledTokenSettlesImmediately(t *testing.T) {
	reason := errors.New("already gone")
	token := &fakeToken{cancelled: true, reason: reason}

	d := NewDeferred[int](token)
	assert.Equal(t, RejectedCancelled, d.Status())

	_, err := d.Wait(context.Background())
	assert.Error(t, err)
}
