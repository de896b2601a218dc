// Package executor implements the Executor family (spec §4.6): a single
// contract, execute(callable, cancellation) -> future, with immediate,
// micro, macro, sequential, and concurrent variants. Adapted from the
// teacher's eventloop.Loop.Promisify goroutine-plus-panic-recovery shape,
// generalized from a single-loop-thread dispatcher to free-standing
// goroutine scheduling (this module has no central event loop; "micro" and
// "macro" differ only in which Go scheduling primitive they use to
// approximate the DOM task-priority distinction).
package executor

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/joeycumines/asyncrt/cancel"
	"github.com/joeycumines/asyncrt/coordination"
	"github.com/joeycumines/asyncrt/internal/clock"
	"github.com/joeycumines/asyncrt/workerpool"
)

// PanicError wraps a panic value recovered from an executed callable,
// mirroring the teacher's eventloop.PanicError.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("executor: callable panicked: %v", e.Value)
}

// Callable is a unit of work dispatched by an Executor.
type Callable[T any] func(ctx context.Context) (T, error)

// Executor is the single contract every variant implements (spec §4.6):
// execute a callable, racing it against an optional cancellation token, and
// return a future observing its outcome.
type Executor[T any] interface {
	Execute(ctx context.Context, token *cancel.Token, fn Callable[T]) *coordination.Deferred[T]
}

func runRecovered[T any](d *coordination.Deferred[T], fn Callable[T], ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			d.Reject(&PanicError{Value: r})
		}
	}()
	v, err := fn(ctx)
	if err != nil {
		d.Reject(err)
		return
	}
	d.Resolve(v)
}

// withCancellation derives a Deferred that is pre-wired to reject with a
// CancellationError if token fires, per the family-wide invariant that
// every executor races its callable's result against the cancellation
// argument.
func withCancellation[T any](token *cancel.Token) *coordination.Deferred[T] {
	if token == nil {
		return coordination.NewDeferred[T](nil)
	}
	return coordination.NewDeferred[T](token)
}

// Immediate invokes fn synchronously (unless token is already cancelled, in
// which case fn is never called) and returns an already-settled future.
type Immediate[T any] struct{}

func (Immediate[T]) Execute(ctx context.Context, token *cancel.Token, fn Callable[T]) *coordination.Deferred[T] {
	d := withCancellation[T](token)
	if d.IsDone() {
		return d
	}
	runRecovered(d, fn, ctx)
	return d
}

// Micro schedules fn on its own goroutine, approximating the microtask
// boundary: dispatch happens as soon as the Go scheduler runs the
// goroutine, with no artificial delay.
type Micro[T any] struct{}

func (Micro[T]) Execute(ctx context.Context, token *cancel.Token, fn Callable[T]) *coordination.Deferred[T] {
	d := withCancellation[T](token)
	if d.IsDone() {
		return d
	}
	go func() {
		if d.IsDone() {
			return
		}
		runRecovered(d, fn, ctx)
	}()
	return d
}

// Macro schedules fn after yielding the goroutine at least once via
// runtime.Gosched, approximating the macrotask/"next tick" boundary as
// distinct from the microtask boundary Micro models.
type Macro[T any] struct{}

func (Macro[T]) Execute(ctx context.Context, token *cancel.Token, fn Callable[T]) *coordination.Deferred[T] {
	d := withCancellation[T](token)
	if d.IsDone() {
		return d
	}
	go func() {
		runtime.Gosched()
		if d.IsDone() {
			return
		}
		runRecovered(d, fn, ctx)
	}()
	return d
}

// Task is an alias for Macro (spec: "macro/task schedule on the next
// macrotask boundary" - both names refer to the same variant).
type Task[T any] = Macro[T]

// Delayed schedules fn to run after d has elapsed, using clk to source the
// timer (so tests can inject internal/clock.Fake). Not one of the spec's
// named variants; it reuses the goroutine/panic-recovery plumbing above.
type Delayed[T any] struct {
	Clock clock.Clock
	Delay time.Duration
}

func (e Delayed[T]) Execute(ctx context.Context, token *cancel.Token, fn Callable[T]) *coordination.Deferred[T] {
	clk := e.Clock
	if clk == nil {
		clk = clock.Real
	}
	d := withCancellation[T](token)
	if d.IsDone() {
		return d
	}
	timer := clk.NewTimer(e.Delay)
	go func() {
		defer timer.Stop()
		select {
		case <-timer.C():
			if d.IsDone() {
				return
			}
			runRecovered(d, fn, ctx)
		case <-ctx.Done():
			d.Reject(ctx.Err())
		}
	}()
	return d
}

// Sequential chains executions off a single serial tail: each call is
// appended after the previous completes, guaranteeing submission-order
// execution with no two callables overlapping in suspension (spec: a
// single WorkerPool of concurrency 1 is exactly this guarantee, so
// Sequential is implemented directly atop package workerpool rather than
// hand-rolling a tail chain).
type Sequential[T any] struct {
	pool *workerpool.WorkerPool
	jobs *workerpool.JobPool[T]
}

// NewSequential creates a Sequential executor with its own single-worker
// backing pool.
func NewSequential[T any](maxQueueLength int) *Sequential[T] {
	pool := workerpool.New(1, maxQueueLength)
	return &Sequential[T]{pool: pool, jobs: workerpool.NewJobPool[T](pool)}
}

func (s *Sequential[T]) Execute(ctx context.Context, token *cancel.Token, fn Callable[T]) *coordination.Deferred[T] {
	job, err := s.jobs.Submit(ctx, token, fn)
	if err != nil {
		d := withCancellation[T](token)
		d.Reject(err)
		return d
	}
	return job.Result
}

// Shutdown delegates to the backing WorkerPool.
func (s *Sequential[T]) Shutdown() <-chan struct{} { return s.pool.Shutdown() }

// Sequentialize wraps any Executor, forcing sequential dispatch onto it
// while retaining its execution locus: each call waits for the previous to
// settle before invoking the wrapped executor's Execute (spec: "takes any
// executor and enforces sequential dispatch, retaining its execution
// locus").
func Sequentialize[T any](inner Executor[T]) *Sequentialized[T] {
	tail := make(chan struct{}, 1)
	tail <- struct{}{}
	return &Sequentialized[T]{inner: inner, tail: tail}
}

// Sequentialized enforces sequential dispatch atop an arbitrary Executor.
type Sequentialized[T any] struct {
	inner Executor[T]
	tail  chan struct{}
}

func (s *Sequentialized[T]) Execute(ctx context.Context, token *cancel.Token, fn Callable[T]) *coordination.Deferred[T] {
	d := withCancellation[T](token)
	if d.IsDone() {
		return d
	}
	go func() {
		<-s.tail
		inner := s.inner.Execute(ctx, token, fn)
		v, err := inner.Wait(context.Background())
		s.tail <- struct{}{}
		if err != nil {
			d.Reject(err)
			return
		}
		d.Resolve(v)
	}()
	return d
}
