// Package errors is the error vocabulary surfaced at the boundaries of this
// module (spec §6 "Error taxonomy", §7 "Error Handling Design"). Each type
// supports errors.Is/errors.As through Unwrap, following the cause-chain
// style of the teacher's eventloop/errors.go (itself modeled on the ES2022
// Error.cause convention).
package errors

import (
	"fmt"
	"time"
)

// CancellationError carries the token that caused cancellation (opaque here
// as an any to avoid an import cycle with package cancel) and an optional
// cause.
type CancellationError struct {
	Token  any
	Cause  error
	Reason error
}

func (e *CancellationError) Error() string {
	if e.Reason != nil {
		return "cancelled: " + e.Reason.Error()
	}
	return "cancelled"
}

func (e *CancellationError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return e.Reason
}

func (e *CancellationError) Is(target error) bool {
	_, ok := target.(*CancellationError)
	return ok
}

// DisposedError is raised from operations on disposed timers/promises/tokens.
type DisposedError struct {
	Message string
}

func (e *DisposedError) Error() string {
	if e.Message == "" {
		return "disposed"
	}
	return e.Message
}

func (e *DisposedError) Is(target error) bool {
	_, ok := target.(*DisposedError)
	return ok
}

// BufferFullError is raised by a RingBuffer using the "fixed" overflow
// policy when a write would exceed capacity.
type BufferFullError struct {
	Capacity int
}

func (e *BufferFullError) Error() string {
	return fmt.Sprintf("buffer full (capacity %d)", e.Capacity)
}

func (e *BufferFullError) Is(target error) bool {
	_, ok := target.(*BufferFullError)
	return ok
}

// QueueLengthExceededError is raised by WorkerPool.Submit when the pending
// queue is already at maxQueueLength.
type QueueLengthExceededError struct {
	MaxQueueLength int
}

func (e *QueueLengthExceededError) Error() string {
	return fmt.Sprintf("queue length exceeded (max %d)", e.MaxQueueLength)
}

func (e *QueueLengthExceededError) Is(target error) bool {
	_, ok := target.(*QueueLengthExceededError)
	return ok
}

// ShutdownError is raised by Submit after shutdown has been initiated.
type ShutdownError struct{}

func (e *ShutdownError) Error() string { return "pool is shutting down" }

func (e *ShutdownError) Is(target error) bool {
	_, ok := target.(*ShutdownError)
	return ok
}

// RateLimitExceeded is raised by RateLimiter.Execute when the combined limit
// set reports a positive delay. IsRetryable is always true; RetryAfter is
// the duration the caller should wait before retrying.
type RateLimitExceeded struct {
	RetryAfter time.Duration
}

func (e *RateLimitExceeded) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

func (e *RateLimitExceeded) IsRetryable() bool { return true }

func (e *RateLimitExceeded) Is(target error) bool {
	_, ok := target.(*RateLimitExceeded)
	return ok
}

// DeadlineExceededError is raised when a Deadline has elapsed prior to, or
// during, a suspending operation.
type DeadlineExceededError struct{}

func (e *DeadlineExceededError) Error() string { return "deadline exceeded" }

func (e *DeadlineExceededError) Is(target error) bool {
	_, ok := target.(*DeadlineExceededError)
	return ok
}

// RetryableError wraps an error judged transient by Retryable's
// errorHelper.isTransient, optionally carrying a server-provided retry-after
// hint (e.g. from a 429 response).
type RetryableError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RetryableError) Error() string { return "retryable: " + e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

func (e *RetryableError) IsRetryable() bool { return true }

// NonRetryableError wraps the last error observed after a Retryable
// execution exhausts its attempt budget.
type NonRetryableError struct {
	Err error
}

func (e *NonRetryableError) Error() string { return "retries exhausted: " + e.Err.Error() }

func (e *NonRetryableError) Unwrap() error { return e.Err }

// retryable is satisfied by any error that knows its own retry-eligibility,
// e.g. RateLimitExceeded and RetryableError.
type retryable interface {
	IsRetryable() bool
}

// IsRetryable classifies err using, in order: an explicit IsRetryable()
// method, well-known transient sentinels are left to callers (HTTP status
// codes and connection error strings are not modeled in this package - see
// retry.DefaultIsTransient), otherwise false.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if r, ok := err.(retryable); ok {
		return r.IsRetryable()
	}
	return false
}
