package cancel

import (
	"context"

	asyncerrors "github.com/joeycumines/asyncrt/errors"
)

// Race runs fn in a new goroutine and races its completion against t firing
// (spec §4.1 cancellationRace). fn receives a context derived from t, so it
// can observe cancellation cooperatively via ctx.Done() in addition to the
// race itself.
//
// If t is already cancelled, Race does not invoke fn at all: it schedules
// onCancel (if non-nil) on its own goroutine - matching the spec's "schedule
// onCancel microtask" note that cancellation notifications must not be
// delivered inline, to preserve reentrancy - and returns the zero value with
// a *errors.CancellationError.
//
// If t fires while fn is still running, Race returns immediately with the
// cancellation error; fn's goroutine is abandoned but not killed (Go has no
// preemptive goroutine cancellation - fn must itself respect ctx.Done() to
// release resources promptly).
func Race[T any](t *Token, onCancel func(), fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if t == nil {
		t = None()
	}

	if t.IsCancelled() {
		if onCancel != nil {
			go onCancel()
		}
		return zero, &asyncerrors.CancellationError{Token: t, Reason: t.Reason()}
	}

	ctx, cancelCtx := t.Context()
	defer cancelCtx()

	type outcome struct {
		v   T
		err error
	}
	resultCh := make(chan outcome, 1)
	go func() {
		v, err := fn(ctx)
		resultCh <- outcome{v, err}
	}()

	select {
	case res := <-resultCh:
		return res.v, res.err
	case <-t.Done():
		if onCancel != nil {
			go onCancel()
		}
		return zero, &asyncerrors.CancellationError{Token: t, Reason: t.Reason()}
	}
}
