// Package container provides manually disposed containers backed by alloc
// buffers and shared with concurrently running workers.
//
// Every container owns one buffer. The owner accesses it through the buffer's
// primary token handle; workers receive views derived with BeginShared:
//
//   - Array and RangeView: linear random access, optionally restricted to a
//     disjoint index window per worker (see Array.Partition).
//   - ParallelCounter: atomic increments from many workers.
//   - Value and ParallelWriter: a shard-local accumulator with one cache-line
//     padded cell per worker.
//   - MinHeap: a binary min-heap of (value, priority) nodes.
//
// # Disposal
//
// Dispose frees a container synchronously and fails with ErrStillInUse while
// views are outstanding. DisposeAfter retires the container at once and frees
// it once a set of job handles has completed:
//
//	h := pool.ParallelFor(n, 64, work)
//	done, err := arr.DisposeAfter(h)
//
// Access checks are compiled out with the jobmem_nochecks build tag. Accesses
// through released containers or stale views are then undefined behavior.
package container
