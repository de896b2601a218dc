// Package ratelimit implements TokenBucket (spec §3) and the RateLimiter
// combinator/execute contract (spec §4.7), grounded on the teacher's
// catrate.Limiter for its locking discipline and injectable-clock test seam
// (catrate's package-level timeNow/timeNewTicker vars), but replacing
// catrate's sliding-window ring-buffer algorithm with the spec's simpler
// linearly-replenishing counter.
package ratelimit

import (
	"sync"
	"time"

	asyncerrors "github.com/joeycumines/asyncrt/errors"
	"github.com/joeycumines/asyncrt/internal/clock"
)

// TokenBucket is a monotonically replenishing token counter (spec §3
// TokenBucket).
type TokenBucket struct {
	mu                 sync.Mutex
	clk                clock.Clock
	maxBalance         int64
	replenishInterval  time.Duration
	balance            int64
	lastReplenish      time.Time
}

// NewTokenBucket creates a full TokenBucket. Panics if maxBalance <= 0 or
// replenishInterval <= 0.
func NewTokenBucket(clk clock.Clock, maxBalance int64, replenishInterval time.Duration) *TokenBucket {
	if maxBalance <= 0 {
		panic("ratelimit: maxBalance must be positive")
	}
	if replenishInterval <= 0 {
		panic("ratelimit: replenishInterval must be positive")
	}
	if clk == nil {
		clk = clock.Real
	}
	return &TokenBucket{
		clk:               clk,
		maxBalance:        maxBalance,
		replenishInterval: replenishInterval,
		balance:           maxBalance,
		lastReplenish:     clk.Now(),
	}
}

// replenishLocked advances the balance per the elapsed wall time, capped at
// maxBalance: deltaTokens = floor((elapsed / interval) * maxBalance),
// capped at maxBalance (spec §3 TokenBucket invariant). Must be called with
// mu held.
func (b *TokenBucket) replenishLocked() {
	now := b.clk.Now()
	elapsed := now.Sub(b.lastReplenish)
	if elapsed <= 0 {
		return
	}
	delta := int64(float64(elapsed) / float64(b.replenishInterval) * float64(b.maxBalance))
	if delta <= 0 {
		return
	}
	b.balance += delta
	if b.balance > b.maxBalance {
		b.balance = b.maxBalance
	}
	b.lastReplenish = now
}

// ConsumeTokens attempts to deduct k tokens. Returns false, leaving the
// balance unchanged, if insufficient are available. Returns a
// non-retryable error if k < 1 or k > maxBalance (spec §3 invariants).
func (b *TokenBucket) ConsumeTokens(k int64) (bool, error) {
	if k < 1 {
		return false, &asyncerrors.NonRetryableError{Err: errInvalidTokenCount(k, "k must be >= 1")}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if k > b.maxBalance {
		return false, &asyncerrors.NonRetryableError{Err: errInvalidTokenCount(k, "k must be <= maxBalance")}
	}
	b.replenishLocked()
	if b.balance < k {
		return false, nil
	}
	b.balance -= k
	return true, nil
}

// ReturnTokens refunds k tokens, clamped to maxBalance.
func (b *TokenBucket) ReturnTokens(k int64) {
	if k <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replenishLocked()
	b.balance += k
	if b.balance > b.maxBalance {
		b.balance = b.maxBalance
	}
}

// GetTimeUntilConsumable returns the duration until the balance reaches at
// least k.
func (b *TokenBucket) GetTimeUntilConsumable(k int64) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replenishLocked()
	if b.balance >= k {
		return 0
	}
	deficit := k - b.balance
	// invert deltaTokens = (elapsed/interval)*maxBalance for elapsed.
	seconds := float64(deficit) / float64(b.maxBalance) * b.replenishInterval.Seconds()
	return time.Duration(seconds * float64(time.Second))
}

// Balance returns the current token balance without suspending (applies
// pending replenishment first).
func (b *TokenBucket) Balance() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replenishLocked()
	return b.balance
}

type invalidTokenCountError struct {
	k   int64
	msg string
}

func errInvalidTokenCount(k int64, msg string) error {
	return &invalidTokenCountError{k: k, msg: msg}
}

func (e *invalidTokenCountError) Error() string {
	return e.msg
}
