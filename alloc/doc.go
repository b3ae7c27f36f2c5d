// Package alloc provides arena buffers: fixed-capacity, manually released
// memory blocks obtained from a tagged allocation scope.
//
// # Scopes
//
//   - Ephemeral: valid only within the current synchronous call. Allocated in
//     a Frame and reclaimed when the frame ends; never released explicitly.
//   - TaskScoped: valid until a given set of tasks completes. Released
//     explicitly or with ReleaseAfter.
//   - Persistent: valid until explicitly released. Backed by off-heap
//     anonymous mappings by default.
//
// # Element Types
//
// Buffer memory is invisible to the garbage collector, so element types must
// not contain Go pointers (no pointers, strings, slices, maps, channels,
// functions or interfaces). Allocate rejects such types with
// jobmem.ErrInvalidElementType.
//
// # Tracking
//
// The Provider records every live buffer. Outstanding reports the count, which
// tests use to assert that every allocation was released. A buffer that
// becomes unreachable without being released is reported as a leak through
// the configured logger and metrics collector, and its memory is reclaimed.
//
// # Usage
//
//	p := alloc.NewProvider()
//
//	buf, err := alloc.Allocate[float32](p, 1024, alloc.Persistent)
//	if err != nil { ... }
//	defer buf.Release()
//
//	f := p.BeginFrame()
//	tmp, _ := alloc.AllocateIn[int32](f, 64)
//	_ = tmp
//	f.End() // reclaims tmp
package alloc
