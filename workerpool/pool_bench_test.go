package workerpool

import (
	"context"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/semaphore"
)

// BenchmarkWorkerPool_Dispatch measures Submit+schedule overhead against a
// trivial task, for comparison with BenchmarkSemaphoreOracle below.
func BenchmarkWorkerPool_Dispatch(b *testing.B) {
	pool := New(8, b.N+1)
	done := make(chan struct{}, b.N)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = pool.Submit(context.Background(), func(ctx context.Context) error {
			done <- struct{}{}
			return nil
		})
	}
	for i := 0; i < b.N; i++ {
		<-done
	}
}

// BenchmarkSemaphoreOracle is a cross-check oracle: the same bounded-
// concurrency guarantee WorkerPool provides, built directly atop
// golang.org/x/sync/semaphore.Weighted instead of this package's own
// pending-queue-plus-mutex scheduler. Comparing the two benchmarks is a
// sanity check that WorkerPool's dispatch overhead is in the same
// neighborhood as the stdlib-adjacent primitive it generalizes.
func BenchmarkSemaphoreOracle(b *testing.B) {
	sem := semaphore.NewWeighted(8)
	ctx := context.Background()
	var completed int64
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = sem.Acquire(ctx, 1)
		go func() {
			defer sem.Release(1)
			atomic.AddInt64(&completed, 1)
		}()
	}
	_ = sem.Acquire(ctx, 8)
}
