// Package cancel implements the cooperative cancellation core (spec §4.1):
// a Token/Controller abstraction, combinable tokens, timeout tokens, and
// cancellation-aware wrappers for suspending operations.
//
// It is adapted from the teacher's eventloop/abort.go AbortController/
// AbortSignal (itself modeled on the W3C DOM AbortController spec): Token
// plays the role of AbortSignal, Controller the role of AbortController.
// Where the teacher's AbortSignal stores an untyped reason, Token stores an
// error, matching this module's all-errors cancellation vocabulary.
package cancel

import (
	"context"
	"sync"
	"time"

	asyncerrors "github.com/joeycumines/asyncrt/errors"
	"github.com/joeycumines/asyncrt/internal/clock"
)

// State is the lifecycle state of a Token.
type State int

const (
	// StateNone marks the inert sentinel token: it can never become cancelled.
	StateNone State = iota
	// Active marks a token that can become cancelled.
	Active
	// StateCancelled marks a token that has fired.
	StateCancelled
)

// Token is a cooperative cancellation signal (spec §3 CancellationToken).
// The zero value is not valid; use New, which returns an Active token.
type Token struct {
	mu       sync.Mutex
	state    State
	reason   error
	handlers []func(reason error)
	done     chan struct{}

	// timeoutDeadline is non-zero only for tokens created via Timeout; used
	// by Combine to pick the longest-remaining timeout among candidates.
	timeoutDeadline time.Time
	hasTimeout      bool
}

// none is the shared inert sentinel: State is always None, register is a
// no-op, isCancelled is always false.
var none = &Token{state: StateNone, done: closedNever()}

func closedNever() chan struct{} {
	// A channel that is never closed; used as the "done" channel for the
	// inert None token so a select on it simply never fires.
	return make(chan struct{})
}

// None returns the inert token: isCancelled is always false, register is a
// no-op that returns an inert unregister function.
func None() *Token { return none }

// New creates a fresh Active token, owned by the Controller returned
// alongside it.
func New() (*Token, *Controller) {
	t := &Token{state: Active, done: make(chan struct{})}
	return t, &Controller{token: t}
}

// Cancelled returns a token that is already cancelled with reason r. If r is
// nil, a generic CancellationError is used.
func Cancelled(reason error) *Token {
	t := &Token{state: StateCancelled, done: make(chan struct{})}
	close(t.done)
	if reason == nil {
		reason = &asyncerrors.CancellationError{Token: t}
	}
	t.reason = reason
	return t
}

// Timeout returns a token that self-cancels after d elapses, using clk to
// schedule the timer (clock.Real in production). The returned cancel func
// releases the timer early without cancelling the token (spec: "if the
// token is disposable and disposed before firing, its pending timer is
// cancelled").
func Timeout(clk clock.Clock, d time.Duration) (*Token, func()) {
	if clk == nil {
		clk = clock.Real
	}
	t := &Token{
		state:           Active,
		done:            make(chan struct{}),
		timeoutDeadline: clk.Now().Add(d),
		hasTimeout:      true,
	}
	timer := clk.NewTimer(d)
	stop := make(chan struct{})
	go func() {
		select {
		case <-timer.C():
			t.cancel(&asyncerrors.CancellationError{Token: t, Reason: &timeoutReason{Duration: d}})
		case <-stop:
			timer.Stop()
		}
	}()
	var once sync.Once
	dispose := func() {
		once.Do(func() { close(stop) })
	}
	return t, dispose
}

type timeoutReason struct{ Duration time.Duration }

func (e *timeoutReason) Error() string { return "timeout elapsed" }

// FromContext wraps a context.Context as a Token, tracking ctx.Done() and
// adopting ctx.Err() as the cancellation reason. This is the Go-native
// analogue of spec's Cancellable.signal(abortSignal) (§3).
func FromContext(ctx context.Context) *Token {
	if ctx.Err() != nil {
		return Cancelled(ctx.Err())
	}
	t := &Token{state: Active, done: make(chan struct{})}
	go func() {
		<-ctx.Done()
		t.cancel(ctx.Err())
	}()
	return t
}

// Context adapts t to a context.Context/CancelFunc pair, so any stdlib or
// ecosystem API that accepts a context integrates without a bespoke
// wrapper (spec §6's "cancellation signal bridge").
func (t *Token) Context() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	if t.IsCancelled() {
		cancel()
		return ctx, cancel
	}
	unregister := t.Register(func(error) { cancel() })
	return ctx, func() {
		unregister()
		cancel()
	}
}

// IsCancelled reports whether the token has fired. Never suspends.
func (t *Token) IsCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == StateCancelled
}

// State reports the token's current lifecycle state. Never suspends.
func (t *Token) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Reason returns the cancellation reason, or nil if not cancelled.
func (t *Token) Reason() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

// Done returns a channel closed exactly once, when the token is cancelled.
// For the None token, Done never closes.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// ThrowIfCancelled returns a *errors.CancellationError wrapping the token's
// reason if cancelled, else nil.
func (t *Token) ThrowIfCancelled() error {
	t.mu.Lock()
	cancelled := t.state == StateCancelled
	reason := t.reason
	t.mu.Unlock()
	if !cancelled {
		return nil
	}
	return &asyncerrors.CancellationError{Token: t, Reason: reason}
}

// Register attaches cb to fire, exactly once, when t is cancelled - or
// immediately (synchronously) if t is already cancelled. It returns an
// unregister function; calling it before cancellation prevents cb from
// firing at all. For the None token, Register is a no-op and the returned
// unregister function does nothing.
func (t *Token) Register(cb func(reason error)) (unregister func()) {
	if t == none {
		return func() {}
	}

	t.mu.Lock()
	if t.state == StateCancelled {
		reason := t.reason
		t.mu.Unlock()
		cb(reason)
		return func() {}
	}

	idx := len(t.handlers)
	t.handlers = append(t.handlers, cb)
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if idx < len(t.handlers) {
				t.handlers[idx] = nil
			}
		})
	}
}

// cancel transitions the token to Cancelled exactly once, firing registered
// callbacks in registration order. Idempotent.
func (t *Token) cancel(reason error) {
	t.mu.Lock()
	if t.state == StateCancelled {
		t.mu.Unlock()
		return
	}
	t.state = StateCancelled
	if reason == nil {
		reason = &asyncerrors.CancellationError{Token: t}
	}
	t.reason = reason
	handlers := make([]func(error), len(t.handlers))
	copy(handlers, t.handlers)
	t.handlers = nil
	close(t.done)
	t.mu.Unlock()

	for _, h := range handlers {
		if h != nil {
			h(reason)
		}
	}
}

// remaining returns the time left on a timeout token, or 0 if it is not a
// timeout token or has already expired. Used by Combine.
func (t *Token) remaining(clk clock.Clock) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hasTimeout {
		return 0, false
	}
	d := t.timeoutDeadline.Sub(clk.Now())
	if d < 0 {
		d = 0
	}
	return d, true
}
