package workerpool

import (
	"context"

	"github.com/google/uuid"

	"github.com/joeycumines/asyncrt/cancel"
	"github.com/joeycumines/asyncrt/coordination"
)

// Job is a unit of work submitted through a JobPool: a callable plus the
// Deferred tracking its outcome (spec §4.5 JobPool). ID is a synthetic
// identifier useful for logging/tracing a job across submission and
// completion; it has no bearing on scheduling.
type Job[T any] struct {
	ID     uuid.UUID
	Run    func(ctx context.Context) (T, error)
	Result *coordination.Deferred[T]
	Token  *cancel.Token
}

// JobPool wraps a WorkerPool, giving each submission a per-job Deferred and
// an optional cancellation token (spec §4.5 JobPool).
type JobPool[T any] struct {
	pool *WorkerPool
}

// NewJobPool wraps an existing WorkerPool.
func NewJobPool[T any](pool *WorkerPool) *JobPool[T] {
	return &JobPool[T]{pool: pool}
}

// Submit wraps run in a Job with its own Deferred and submits it to the
// underlying WorkerPool under ctx. If token is non-nil, the Deferred
// transitions to RejectedCancelled on the token firing, per
// coordination.NewDeferred. Returns the Job (whose Result the caller awaits)
// or the WorkerPool's Submit error if the task could not be accepted.
func (jp *JobPool[T]) Submit(ctx context.Context, token *cancel.Token, run func(ctx context.Context) (T, error)) (*Job[T], error) {
	job := &Job[T]{
		ID:    uuid.New(),
		Run:   run,
		Token: token,
	}
	// A typed nil *cancel.Token passed through the tokenLike interface
	// would not compare equal to a literal nil inside NewDeferred, so the
	// nil check must happen here, at the concrete-type call site.
	if token == nil {
		job.Result = coordination.NewDeferred[T](nil)
	} else {
		job.Result = coordination.NewDeferred[T](token)
	}

	err := jp.pool.submit(ctx, func(ctx context.Context) error {
		v, err := job.Run(ctx)
		if err != nil {
			job.Result.Reject(err)
			return err
		}
		job.Result.Resolve(v)
		return nil
	}, job)
	if err != nil {
		job.Result.Reject(err)
		return nil, err
	}
	return job, nil
}

// ShutdownNow discards queued-but-never-run jobs, returning the wrapped
// *Job[T] values for inspection (spec §4.5 "returns the wrapped jobs for
// inspection"); their Deferreds remain pending - the caller owns deciding
// whether to Reject them, retry them elsewhere, or just log them.
func (jp *JobPool[T]) ShutdownNow() []*Job[T] {
	dropped := jp.pool.shutdownNowPending()
	jobs := make([]*Job[T], 0, len(dropped))
	for _, t := range dropped {
		if job, ok := t.meta.(*Job[T]); ok {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

// Shutdown delegates to the underlying WorkerPool's graceful shutdown.
func (jp *JobPool[T]) Shutdown() <-chan struct{} {
	return jp.pool.Shutdown()
}
