// Package job provides completion handles and a minimal fan-out pool.
//
// It is the boundary to the task scheduler that runs units of work: a Handle
// represents a scheduled, possibly unfinished unit of work; Combine merges N
// handles into one that completes when all of them have completed; Schedule
// runs a function once its dependencies completed.
//
// Pool.ParallelFor dispatches an index range over a fixed number of worker
// goroutines and passes each invocation a worker index in [0, Workers()) that
// is stable for the duration of the dispatch. Shard-local accumulators use that
// index as their shard id.
//
// Cancellation is not modelled: handles mean "wait for completion".
package job
