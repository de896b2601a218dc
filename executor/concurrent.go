package executor

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/joeycumines/asyncrt/cancel"
	"github.com/joeycumines/asyncrt/coordination"
	"github.com/joeycumines/asyncrt/workerpool"
)

// Concurrent is a JobPool exposed through the Executor contract (spec §4.6
// "concurrent(maxConcurrency, maxQueueLength?)"): unlike Sequential, calls
// may overlap up to maxConcurrency at once. An errgroup.Group tracks every
// in-flight job so Wait can report the first error observed across the
// batch, alongside the per-call Deferred each Execute already returns.
type Concurrent[T any] struct {
	pool *workerpool.WorkerPool
	jobs *workerpool.JobPool[T]

	mu    sync.Mutex
	group *errgroup.Group
}

// NewConcurrent creates a Concurrent executor backed by its own WorkerPool.
func NewConcurrent[T any](maxConcurrency, maxQueueLength int) *Concurrent[T] {
	pool := workerpool.New(maxConcurrency, maxQueueLength)
	return &Concurrent[T]{
		pool:  pool,
		jobs:  workerpool.NewJobPool[T](pool),
		group: new(errgroup.Group),
	}
}

func (c *Concurrent[T]) Execute(ctx context.Context, token *cancel.Token, fn Callable[T]) *coordination.Deferred[T] {
	job, err := c.jobs.Submit(ctx, token, fn)
	if err != nil {
		d := withCancellation[T](token)
		d.Reject(err)
		return d
	}

	c.mu.Lock()
	group := c.group
	c.mu.Unlock()
	group.Go(func() error {
		_, err := job.Result.Wait(context.Background())
		return err
	})

	return job.Result
}

// Wait blocks until every job submitted since the last Wait call has
// settled, returning the first error (if any) among them - the errgroup
// analogue of awaiting a whole in-flight batch at once, distinct from
// awaiting any single Execute's Deferred.
func (c *Concurrent[T]) Wait() error {
	c.mu.Lock()
	group := c.group
	c.group = new(errgroup.Group)
	c.mu.Unlock()
	return group.Wait()
}

// Shutdown delegates to the backing WorkerPool's graceful drain.
func (c *Concurrent[T]) Shutdown() <-chan struct{} { return c.pool.Shutdown() }

// ShutdownNow delegates to the backing JobPool's immediate drain, returning
// the dropped jobs so the caller can inspect or reject them.
func (c *Concurrent[T]) ShutdownNow() []*workerpool.Job[T] { return c.jobs.ShutdownNow() }

// IsShutdown reports whether the backing WorkerPool has fully drained into
// its Shutdown state (spec §4.6 isShutdown).
func (c *Concurrent[T]) IsShutdown() bool { return c.pool.State() == workerpool.Shutdown }

// IsShutdownInitiated reports whether Shutdown has been called, whether or
// not draining has completed (spec §4.6 isShutdownInitiated).
func (c *Concurrent[T]) IsShutdownInitiated() bool { return c.pool.State() != workerpool.Running }
