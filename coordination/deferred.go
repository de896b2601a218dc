package coordination

import (
	"context"
	"sync"

	asyncerrors "github.com/joeycumines/asyncrt/errors"
)

// Status is the lifecycle state of a Deferred (spec §3 Deferred).
type Status int

const (
	Pending Status = iota
	Resolved
	Rejected
	RejectedCancelled
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Rejected:
		return "rejected"
	case RejectedCancelled:
		return "rejected_cancelled"
	default:
		return "unknown"
	}
}

// Deferred is a future with externally callable Resolve/Reject (spec §3/
// §4.2 Deferred), adapted from the teacher's eventloop/promise.go channel-
// fanout promise type, generalized to Go generics and given the spec's
// extra RejectedCancelled terminal state driven by a cancel.Token.
type Deferred[T any] struct {
	mu          sync.Mutex
	status      Status
	value       T
	err         error
	subscribers []chan struct{}
	unregister  func()
}

// tokenLike is the minimal surface this package needs from a cancellation
// token, kept local to avoid an import cycle with package cancel (which
// does not need to know about Deferred).
type tokenLike interface {
	IsCancelled() bool
	Reason() error
	Register(cb func(reason error)) func()
}

// NewDeferred creates a pending Deferred. If token is non-nil and already
// cancelled, the Deferred starts in RejectedCancelled. Otherwise, the
// Deferred registers with token so a later cancellation drives a one-shot
// transition to RejectedCancelled, carrying the token's reason.
func NewDeferred[T any](token tokenLike) *Deferred[T] {
	d := &Deferred[T]{}
	if token == nil {
		return d
	}
	if token.IsCancelled() {
		d.status = RejectedCancelled
		d.err = &asyncerrors.CancellationError{Token: token, Reason: token.Reason()}
		return d
	}
	d.unregister = token.Register(func(reason error) {
		d.settle(RejectedCancelled, *new(T), &asyncerrors.CancellationError{Token: token, Reason: reason})
	})
	return d
}

// Resolve transitions the Deferred to Resolved with v. A no-op if already
// settled.
func (d *Deferred[T]) Resolve(v T) {
	d.settle(Resolved, v, nil)
}

// Reject transitions the Deferred to Rejected with err. A no-op if already
// settled.
func (d *Deferred[T]) Reject(err error) {
	var zero T
	d.settle(Rejected, zero, err)
}

func (d *Deferred[T]) settle(status Status, v T, err error) {
	d.mu.Lock()
	if d.status != Pending {
		d.mu.Unlock()
		return
	}
	d.status = status
	d.value = v
	d.err = err
	subs := d.subscribers
	d.subscribers = nil
	unregister := d.unregister
	d.mu.Unlock()

	if unregister != nil {
		unregister()
	}
	for _, ch := range subs {
		close(ch)
	}
}

// Status returns the current lifecycle state without suspending.
func (d *Deferred[T]) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// IsDone reports whether the Deferred has settled (status != Pending).
func (d *Deferred[T]) IsDone() bool {
	return d.Status() != Pending
}

// Wait blocks until the Deferred settles or ctx is done, then returns the
// settled value/error. A settled Deferred's Wait returns immediately.
func (d *Deferred[T]) Wait(ctx context.Context) (T, error) {
	d.mu.Lock()
	if d.status != Pending {
		v, err := d.value, d.err
		d.mu.Unlock()
		return v, err
	}
	ch := make(chan struct{})
	d.subscribers = append(d.subscribers, ch)
	d.mu.Unlock()

	select {
	case <-ch:
		d.mu.Lock()
		v, err := d.value, d.err
		d.mu.Unlock()
		return v, err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// OnSettled registers cb to run exactly once, with the terminal status,
// when the Deferred settles - or immediately (on its own goroutine, never
// inline, to match this module's "never invoke cancellation-adjacent
// callbacks inline" rule) if already settled.
func (d *Deferred[T]) OnSettled(cb func(status Status, value T, err error)) {
	d.mu.Lock()
	if d.status != Pending {
		status, v, err := d.status, d.value, d.err
		d.mu.Unlock()
		go cb(status, v, err)
		return
	}
	ch := make(chan struct{})
	d.subscribers = append(d.subscribers, ch)
	d.mu.Unlock()

	go func() {
		<-ch
		d.mu.Lock()
		status, v, err := d.status, d.value, d.err
		d.mu.Unlock()
		cb(status, v, err)
	}()
}
