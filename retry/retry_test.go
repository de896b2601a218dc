package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	asyncerrors "github.com/joeycumines/asyncrt/errors"
	"github.com/joeycumines/asyncrt/deadline"
	"github.com/joeycumines/asyncrt/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transientErr struct{}

func (transientErr) Error() string      { return "transient" }
func (transientErr) IsRetryable() bool  { return true }

func TestRetryable_SucceedsOnFirstAttempt(t *testing.T) {
	r := New[int](clock.Real, 3, time.Second)
	v, err := r.Execute(context.Background(), nil, func(ctx context.Context) (int, error) {
		return 9, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 9, v)
}

func TestRetryable_RetriesTransientThenSucceeds(t *testing.T) {
	r := New[int](clock.Real, 3, 10*time.Millisecond)
	r.NextDelayCalc = constantBackoff{}

	attempts := 0
	v, err := r.Execute(context.Background(), nil, func(ctx context.Context) (int, error) {
		attempts++
		if attempts < 2 {
			return 0, transientErr{}
		}
		return 5, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	assert.Equal(t, 2, attempts)
}

func TestRetryable_NonTransientReturnsImmediately(t *testing.T) {
	r := New[int](clock.Real, 3, time.Second)
	sentinel := errors.New("fatal")
	attempts := 0
	_, err := r.Execute(context.Background(), nil, func(ctx context.Context) (int, error) {
		attempts++
		return 0, sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, attempts)
}

func TestRetryable_ExhaustsRetriesWrapsNonRetryable(t *testing.T) {
	r := New[int](clock.Real, 2, time.Millisecond)
	r.NextDelayCalc = constantBackoff{}

	_, err := r.Execute(context.Background(), nil, func(ctx context.Context) (int, error) {
		return 0, transientErr{}
	})
	var nonRetryable *asyncerrors.NonRetryableError
	assert.ErrorAs(t, err, &nonRetryable)
}

func TestRetryable_AlreadyExpiredDeadlineRejectsImmediately(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	dl := deadline.New(fake, 0)
	r := New[int](fake, 3, time.Second)

	_, err := r.Execute(context.Background(), &dl, func(ctx context.Context) (int, error) {
		t.Fatal("should not be called")
		return 0, nil
	})
	var expired *asyncerrors.DeadlineExceededError
	assert.ErrorAs(t, err, &expired)
}

type constantBackoff struct{}

func (constantBackoff) NextBackOff() time.Duration { return time.Millisecond }
func (constantBackoff) Reset()                     {}

type statusCodeErr struct{ code int }

func (e statusCodeErr) Error() string   { return "http error" }
func (e statusCodeErr) StatusCode() int { return e.code }

func TestDefaultIsTransient_HTTPStatusCodes(t *testing.T) {
	assert.True(t, DefaultIsTransient(statusCodeErr{code: 429}))
	assert.True(t, DefaultIsTransient(statusCodeErr{code: 500}))
	assert.True(t, DefaultIsTransient(statusCodeErr{code: 503}))
	assert.True(t, DefaultIsTransient(statusCodeErr{code: 504}))
	assert.False(t, DefaultIsTransient(statusCodeErr{code: 404}))
}

func TestDefaultIsTransient_ConnectionErrorStrings(t *testing.T) {
	assert.True(t, DefaultIsTransient(errors.New("dial tcp: connection refused")))
	assert.True(t, DefaultIsTransient(errors.New("read: connection reset by peer")))
	assert.False(t, DefaultIsTransient(errors.New("invalid request body")))
}

func TestDefaultIsTransient_IsRetryableDuckType(t *testing.T) {
	assert.True(t, DefaultIsTransient(transientErr{}))
}
