package ratelimit

import (
	"context"
	"time"

	asyncerrors "github.com/joeycumines/asyncrt/errors"
	"github.com/joeycumines/asyncrt/cancel"
	"github.com/joeycumines/asyncrt/executor"
)

// Limit pairs a TokenBucket with the token cost each RateLimiter.Execute
// call consumes from it.
type Limit struct {
	Bucket *TokenBucket
	Cost   int64
}

// RateLimiter gates execution of fn behind one or more TokenBucket limits
// (spec §4.7 RateLimiter.execute), delegating the actual invocation to a
// configured Executor (default: executor.Immediate).
type RateLimiter[T any] struct {
	limits []Limit
	exec   executor.Executor[T]
}

// New creates a RateLimiter over the given limits. If exec is nil, an
// executor.Immediate is used.
func New[T any](exec executor.Executor[T], limits ...Limit) *RateLimiter[T] {
	if exec == nil {
		exec = executor.Immediate[T]{}
	}
	return &RateLimiter[T]{limits: limits, exec: exec}
}

// Execute implements the spec's combinator:
//  1. Already-cancelled input rejects immediately with DeadlineExceededError.
//  2. Try each limit in order, consuming Cost tokens; on failure at any
//     step, refund every limit that already succeeded and return the
//     maximum "time until consumable" seen across all limits (including
//     the one that failed).
//  3. A positive delay rejects with RateLimitExceeded(retryAfter=delay).
//  4. Otherwise, delegate to the configured executor.
func (r *RateLimiter[T]) Execute(ctx context.Context, token *cancel.Token, fn executor.Callable[T]) (T, error) {
	var zero T
	if token != nil && token.IsCancelled() {
		return zero, &asyncerrors.DeadlineExceededError{}
	}

	var succeeded []Limit
	var maxDelay time.Duration
	failed := false

	for _, limit := range r.limits {
		ok, err := limit.Bucket.ConsumeTokens(limit.Cost)
		if err != nil {
			for _, s := range succeeded {
				s.Bucket.ReturnTokens(s.Cost)
			}
			return zero, err
		}
		if ok {
			succeeded = append(succeeded, limit)
			continue
		}
		failed = true
		if d := limit.Bucket.GetTimeUntilConsumable(limit.Cost); d > maxDelay {
			maxDelay = d
		}
	}

	if failed {
		for _, s := range succeeded {
			s.Bucket.ReturnTokens(s.Cost)
		}
		return zero, &asyncerrors.RateLimitExceeded{RetryAfter: maxDelay}
	}

	d := r.exec.Execute(ctx, token, fn)
	return d.Wait(ctx)
}
