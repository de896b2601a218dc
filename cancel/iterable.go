package cancel

import (
	"context"

	asyncerrors "github.com/joeycumines/asyncrt/errors"
)

// Iterator is the minimal pull-based sequence contract this module's
// generators satisfy: Next blocks until a value is ready, done, or ctx is
// cancelled; Return releases any resources the iterator holds (the Go
// analogue of a JS async generator's return()).
type Iterator[T any] interface {
	Next(ctx context.Context) (value T, ok bool, err error)
	Return(cause error) error
}

// IterableOptions configures Cancellable (spec §4.1
// CancellationIterableOptions, §6).
type IterableOptions struct {
	// OnCancel, if set, is invoked (on its own goroutine, never inline) the
	// first time cancellation ends the stream.
	OnCancel func()
	// ThrowOnCancellation controls whether a cancellation that ends the
	// stream is surfaced as an error from Next, or swallowed as a silent
	// end-of-stream. Defaults to false (silent), matching the spec.
	ThrowOnCancellation bool
}

// cancellable wraps an Iterator so every Next races against a Token.
type cancellable[T any] struct {
	inner   Iterator[T]
	token   *Token
	opts    IterableOptions
	stopped bool
}

// Cancellable wraps iter so that each call to Next races the underlying
// Next against token's cancellation (spec §4.1 cancellableIterable). On
// cancellation, the underlying iterator's Return is invoked to release its
// resources, and the wrapper itself reports end-of-stream (ok=false) rather
// than producing a fresh value.
//
// If ThrowOnCancellation is false (default) and the cancellation came from
// token itself, Next returns (zero, false, nil): a silent end of stream. If
// the cancellation came from a *different* token (propagated from the
// underlying iterator) or ThrowOnCancellation is true, the cancellation
// error is returned instead.
func Cancellable[T any](iter Iterator[T], token *Token, opts IterableOptions) Iterator[T] {
	if token == nil {
		token = None()
	}
	return &cancellable[T]{inner: iter, token: token, opts: opts}
}

func (c *cancellable[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if c.stopped {
		return zero, false, nil
	}

	v, err := Race(c.token, c.opts.OnCancel, func(ctx context.Context) (T, error) {
		v, ok, err := c.inner.Next(ctx)
		if err != nil {
			return zero, err
		}
		if !ok {
			return zero, errEndOfStream
		}
		return v, nil
	})

	if err == errEndOfStream {
		return zero, false, nil
	}

	var cancelErr *asyncerrors.CancellationError
	if asErrorsAs(err, &cancelErr) {
		c.stopped = true
		_ = c.inner.Return(err)

		sameToken := cancelErr.Token == c.token
		if !sameToken || c.opts.ThrowOnCancellation {
			return zero, false, err
		}
		return zero, false, nil
	}

	if err != nil {
		return zero, false, err
	}

	return v, true, nil
}

func (c *cancellable[T]) Return(cause error) error {
	c.stopped = true
	return c.inner.Return(cause)
}

// sentinel used internally to distinguish "upstream ended" from "upstream errored"
// inside the Race callback above, without exporting it.
type endOfStreamError struct{}

func (endOfStreamError) Error() string { return "end of stream" }

var errEndOfStream error = endOfStreamError{}

// asErrorsAs walks err's Unwrap chain for a *CancellationError, like
// errors.As specialised to that one target type, without importing the
// standard errors package alongside this module's own errors package.
func asErrorsAs(err error, target **asyncerrors.CancellationError) bool {
	for err != nil {
		if ce, ok := err.(*asyncerrors.CancellationError); ok {
			*target = ce
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
