// Package jobmem provides manually managed containers for memory shared
// between a coordinating goroutine and many concurrently running workers.
//
// The module is split into small packages:
//
//   - alloc: scoped buffers (ephemeral frames, task-scoped, persistent) with a
//     live-allocation registry and leak reporting.
//   - token: access tokens that validate every read and write through a
//     container or one of its views.
//   - container: linear arrays with range-restricted views, a shard-local
//     accumulator and an indexed min-heap.
//   - job: completion handles, a dependency combinator and a worker pool that
//     hands stable worker indices to shard-local writers.
//   - resource: memory limits and background release slots.
//
// This package holds what they share: the error taxonomy, structured logging
// and metrics collection.
//
// # Quick Start
//
//	p := alloc.NewProvider()
//	pool := job.NewPool(0)
//
//	sum, _ := container.NewValue[int64](p, pool.Workers(), container.Sum[int64]{}, alloc.TaskScoped)
//	w, _ := sum.AsParallelWriter()
//	h := pool.ParallelFor(n, 256, func(worker, i int) error {
//	    return w.CombineWith(worker, int64(i))
//	})
//	closed := job.Schedule(w.Close, h)
//	done, _ := sum.DisposeAfter(closed) // freed once the work has finished
//
// # Errors
//
// Every failure is an *Error carrying a Kind. errors.Is matches both the kind
// sentinel and its class:
//
//	if errors.Is(err, jobmem.ErrRangeRestricted) { ... } // index owned by another worker
//	if errors.Is(err, jobmem.ErrAccess) { ... }          // any access error
//
// # Checks
//
// Token validation is compiled out with the jobmem_nochecks build tag. Access
// errors of the token family are then not detected and misuse is undefined
// behavior. Index checks and lifecycle bookkeeping stay enabled.
//
// # Observability
//
//	p := alloc.NewProvider(
//	    alloc.WithLogger(jobmem.NewJSONLogger(slog.LevelDebug)),
//	    alloc.WithMetricsCollector(&jobmem.BasicMetricsCollector{}),
//	)
package jobmem
