// Package retry implements Retryable (spec §4.8): a bounded-retry executor
// that sleeps between attempts per a configurable backoff, classifies
// errors as transient or not, and respects an optional deadline. The
// inter-attempt delay calculation is delegated to
// github.com/cenkalti/backoff/v4 rather than hand-rolled, per this
// project's policy of using the ecosystem library for a concern the
// examples already depend on.
package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	asyncerrors "github.com/joeycumines/asyncrt/errors"
	"github.com/joeycumines/asyncrt/deadline"
	"github.com/joeycumines/asyncrt/internal/clock"
)

// IsTransient classifies err as retryable. The default,
// DefaultIsTransient, consults asyncerrors.IsRetryable plus the well-known
// HTTP-status-like and connection-error sentinels named in the error
// taxonomy's design notes.
type IsTransient func(err error) bool

// statusCoder is the duck type common HTTP client errors implement: an
// error carrying the response status code that produced it. Not declared by
// any stdlib type, but widely implemented across HTTP client libraries
// (e.g. wrapping *http.Response.StatusCode), which is exactly what spec §7
// means by "objects carrying" a status.
type statusCoder interface {
	StatusCode() int
}

// transientConnectionSubstrings are well-known connection-failure fragments
// that show up across platforms and transports with differently-typed
// underlying causes (a syscall.Errno on Unix, an OS-specific wrap on
// Windows, a generic net.OpError message), so they are matched by string
// rather than by concrete error type - per spec §7 "common connection
// errors by string code".
var transientConnectionSubstrings = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"i/o timeout",
}

// DefaultIsTransient recognizes, in order: the error taxonomy's own
// IsRetryable() duck type (RateLimitExceeded, RetryableError, or any
// caller-defined error exposing IsRetryable() bool - spec §7 "objects
// carrying isRetryable: boolean"); HTTP 429/500/503/504 via the
// statusCoder duck type; net.Error timeouts; and common connection-error
// strings.
func DefaultIsTransient(err error) bool {
	if asyncerrors.IsRetryable(err) {
		return true
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		switch sc.StatusCode() {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := err.Error()
	for _, frag := range transientConnectionSubstrings {
		if strings.Contains(msg, frag) {
			return true
		}
	}

	return false
}

// Callable is the operation Retryable attempts.
type Callable[T any] func(ctx context.Context) (T, error)

// Retryable executes a Callable with bounded retries, deadline-aware
// sleeps, and transient-error classification (spec §4.8).
type Retryable[T any] struct {
	Clock         clock.Clock
	MaxRetries    int
	MaxDelay      time.Duration
	NextDelayCalc backoff.BackOff
	IsTransient   IsTransient
}

// New creates a Retryable with sensible defaults: an exponential backoff
// (capped at MaxDelay) from cenkalti/backoff/v4, DefaultIsTransient
// classification, and maxRetries attempts.
func New[T any](clk clock.Clock, maxRetries int, maxDelay time.Duration) *Retryable[T] {
	if clk == nil {
		clk = clock.Real
	}
	eb := backoff.NewExponentialBackOff()
	eb.MaxElapsedTime = 0 // Retryable enforces its own deadline/maxRetries bound
	return &Retryable[T]{
		Clock:         clk,
		MaxRetries:    maxRetries,
		MaxDelay:      maxDelay,
		NextDelayCalc: eb,
		IsTransient:   DefaultIsTransient,
	}
}

// Execute runs fn, retrying on transient failures (spec §4.8):
//   - an already-expired dl rejects immediately with DeadlineExceededError.
//   - the effective per-sleep cap is min(dl.Remaining(), r.MaxDelay).
//   - attempts 2..MaxRetries sleep NextDelayCalc.NextBackOff() (or the
//     last error's RetryAfter hint, if any), bounded by the deadline; a
//     sleep cut short by the deadline exits with DeadlineExceededError.
//   - non-transient errors are returned immediately, unwrapped.
//   - exhausting MaxRetries wraps the last error in NonRetryableError.
//
// dl may be nil, meaning no deadline (unbounded).
func (r *Retryable[T]) Execute(ctx context.Context, dl *deadline.Deadline, fn Callable[T]) (T, error) {
	var zero T
	if dl != nil && dl.IsExpired() {
		return zero, &asyncerrors.DeadlineExceededError{}
	}

	var lastErr error
	for attempt := 1; attempt <= r.MaxRetries; attempt++ {
		if attempt > 1 {
			delay := r.nextDelay(lastErr)
			if r.MaxDelay > 0 && delay > r.MaxDelay {
				delay = r.MaxDelay
			}
			if dl != nil {
				if remaining := dl.Remaining(); delay > remaining {
					delay = remaining
				}
			}
			if delay > 0 {
				timer := r.Clock.NewTimer(delay)
				select {
				case <-timer.C():
				case <-ctx.Done():
					timer.Stop()
					return zero, ctx.Err()
				}
				timer.Stop()
			}
			if dl != nil && dl.IsExpired() {
				return zero, &asyncerrors.DeadlineExceededError{}
			}
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !r.IsTransient(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, &asyncerrors.NonRetryableError{Err: lastErr}
}

func (r *Retryable[T]) nextDelay(lastErr error) time.Duration {
	if rle, ok := lastErr.(*asyncerrors.RateLimitExceeded); ok {
		return rle.RetryAfter
	}
	if re, ok := lastErr.(*asyncerrors.RetryableError); ok && re.RetryAfter > 0 {
		return re.RetryAfter
	}
	return r.NextDelayCalc.NextBackOff()
}
