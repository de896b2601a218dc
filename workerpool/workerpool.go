// Package workerpool implements WorkerPool (spec §3/§4.4), a bounded
// concurrent task runner with a FIFO pending queue, adapted from the
// teacher's microbatch.Batcher single-goroutine "run loop reacting to
// channel events" shape - generalized from batch-of-N accumulation to
// per-task FIFO dispatch bounded by maxConcurrency, and given the spec's
// explicit three-state shutdown lifecycle.
package workerpool

import (
	"context"
	"sync"
	"time"

	asyncerrors "github.com/joeycumines/asyncrt/errors"
	"github.com/joeycumines/asyncrt/coordination"
	"github.com/joeycumines/asyncrt/internal/clock"
	"github.com/joeycumines/asyncrt/internal/xlog"
)

// State is the lifecycle state of a WorkerPool (spec §4.4 WorkerPool).
type State int

const (
	Running State = iota
	ShutdownInitiated
	Shutdown
)

// Task is a unit of work submitted to a WorkerPool.
type Task func(ctx context.Context) error

type pendingTask struct {
	ctx  context.Context
	task Task
	// meta is an opaque slot for package-internal wrappers (see jobpool.go)
	// to stash their own per-submission value, so a dropped pendingTask can
	// be mapped back to whatever wraps it without relying on closure
	// identity.
	meta any
}

// WorkerPool runs submitted tasks under a concurrency bound with a bounded
// FIFO pending queue (spec §4.4).
type WorkerPool struct {
	maxConcurrency int
	maxQueueLength int
	clk            clock.Clock
	onTaskComplete func(dur time.Duration, err error)

	mu      sync.Mutex
	state   State
	pending []pendingTask
	active  int

	shutdownDone coordination.Deferred[struct{}]
}

// Option configures a WorkerPool at construction time, following this
// module's functional-options idiom (spec §0 configuration).
type Option interface {
	apply(*WorkerPool)
}

type optionFunc func(*WorkerPool)

func (f optionFunc) apply(p *WorkerPool) { f(p) }

// WithOnTaskComplete installs a metrics hook invoked after every task
// finishes (including a failed one), with its run duration and error. It
// runs synchronously on the task's own goroutine, so it must not block.
func WithOnTaskComplete(cb func(dur time.Duration, err error)) Option {
	return optionFunc(func(p *WorkerPool) { p.onTaskComplete = cb })
}

// WithClock overrides the clock used to time tasks for the metrics hook
// (defaults to clock.Real); primarily for deterministic tests.
func WithClock(clk clock.Clock) Option {
	return optionFunc(func(p *WorkerPool) { p.clk = clk })
}

// New creates a running WorkerPool. Panics if maxConcurrency < 1 or
// maxQueueLength < maxConcurrency, per spec construction invariants.
func New(maxConcurrency, maxQueueLength int, opts ...Option) *WorkerPool {
	if maxConcurrency < 1 {
		panic("workerpool: maxConcurrency must be >= 1")
	}
	if maxQueueLength < maxConcurrency {
		panic("workerpool: maxQueueLength must be >= maxConcurrency")
	}
	p := &WorkerPool{maxConcurrency: maxConcurrency, maxQueueLength: maxQueueLength, clk: clock.Real}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(p)
		}
	}
	return p
}

// Submit enqueues task for execution under ctx. Returns ShutdownError once
// shutdown has been initiated, or QueueLengthExceededError if the pending
// queue is already at maxQueueLength.
func (p *WorkerPool) Submit(ctx context.Context, task Task) error {
	return p.submit(ctx, task, nil)
}

// submit is Submit plus an opaque meta value carried alongside the task, so
// that package-internal wrappers (jobpool.go) can recover their own
// per-submission state from shutdownNowPending's dropped entries.
func (p *WorkerPool) submit(ctx context.Context, task Task, meta any) error {
	p.mu.Lock()
	if p.state != Running {
		p.mu.Unlock()
		return &asyncerrors.ShutdownError{}
	}
	if len(p.pending) >= p.maxQueueLength {
		p.mu.Unlock()
		return &asyncerrors.QueueLengthExceededError{MaxQueueLength: p.maxQueueLength}
	}
	p.pending = append(p.pending, pendingTask{ctx: ctx, task: task, meta: meta})
	p.mu.Unlock()

	p.schedule()
	return nil
}

// schedule dequeues and dispatches tasks while active < maxConcurrency and
// the pending queue is non-empty. Failures are swallowed from the pool's
// perspective; callers observe results through their own wrapper (see
// JobPool in jobpool.go).
func (p *WorkerPool) schedule() {
	for {
		p.mu.Lock()
		if p.active >= p.maxConcurrency || len(p.pending) == 0 {
			p.mu.Unlock()
			return
		}
		next := p.pending[0]
		p.pending = p.pending[1:]
		p.active++
		p.mu.Unlock()

		go p.run(next)
	}
}

func (p *WorkerPool) run(t pendingTask) {
	defer func() {
		p.mu.Lock()
		p.active--
		done := p.maybeTransitionToShutdownLocked()
		p.mu.Unlock()
		if done {
			p.shutdownDone.Resolve(struct{}{})
		}
		p.schedule()
	}()

	start := p.clk.Now()
	err := t.task(t.ctx)
	if err != nil {
		xlog.Get().Debug("workerpool: task failed", "error", err)
	}
	if p.onTaskComplete != nil {
		p.onTaskComplete(p.clk.Now().Sub(start), err)
	}
}

// maybeTransitionToShutdownLocked transitions ShutdownInitiated -> Shutdown
// once active == 0 and the pending queue is empty. Must be called with mu
// held. Returns true if this call performed the transition.
func (p *WorkerPool) maybeTransitionToShutdownLocked() bool {
	if p.state == ShutdownInitiated && p.active == 0 && len(p.pending) == 0 {
		p.state = Shutdown
		return true
	}
	return false
}

// Shutdown enters ShutdownInitiated: no further tasks are accepted, but
// already-queued and already-running tasks continue. Returns a channel
// that closes once the pool has fully drained into the Shutdown state.
func (p *WorkerPool) Shutdown() <-chan struct{} {
	p.mu.Lock()
	if p.state == Running {
		p.state = ShutdownInitiated
		xlog.Get().Info("workerpool: shutdown initiated")
	}
	done := p.maybeTransitionToShutdownLocked()
	p.mu.Unlock()
	if done {
		xlog.Get().Info("workerpool: shutdown complete")
		p.shutdownDone.Resolve(struct{}{})
	}

	ch := make(chan struct{})
	p.shutdownDone.OnSettled(func(coordination.Status, struct{}, error) {
		close(ch)
	})
	return ch
}

// ShutdownNow immediately enters Shutdown, discarding any queued-but-never-
// run tasks and returning them for inspection. Tasks already running
// finish normally; the pool itself is reported as shut down immediately.
func (p *WorkerPool) ShutdownNow() []Task {
	dropped := p.shutdownNowPending()
	out := make([]Task, len(dropped))
	for i, t := range dropped {
		out[i] = t.task
	}
	return out
}

// shutdownNowPending is ShutdownNow's implementation, returning the full
// pendingTask (including meta) rather than just the bare Task - used by
// jobpool.go so JobPool.ShutdownNow can map dropped entries back to the
// *Job[T] that wraps them.
func (p *WorkerPool) shutdownNowPending() []pendingTask {
	p.mu.Lock()
	dropped := p.pending
	p.pending = nil
	wasDone := p.state == Shutdown
	p.state = Shutdown
	p.mu.Unlock()

	if !wasDone {
		xlog.Get().Info("workerpool: shutdown complete (forced)")
		p.shutdownDone.Resolve(struct{}{})
	}
	return dropped
}

// State returns the current lifecycle state without suspending.
func (p *WorkerPool) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IsFull reports whether the pending queue is at maxQueueLength.
func (p *WorkerPool) IsFull() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending) >= p.maxQueueLength
}

// QueueLength returns the number of currently pending (not yet started)
// tasks without suspending.
func (p *WorkerPool) QueueLength() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Active returns the number of currently running tasks without suspending.
func (p *WorkerPool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}
