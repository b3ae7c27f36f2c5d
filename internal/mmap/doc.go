// Package mmap provides anonymous memory mappings for off-heap allocation.
//
// # Overview
//
// MapAnon creates read-write anonymous mappings outside the Go garbage
// collector's control. Persistent buffers use it so that long-lived storage
// adds no GC scanning work.
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with MAP_ANON|MAP_PRIVATE
//   - Windows: VirtualAlloc with MEM_RESERVE|MEM_COMMIT
//
// # Thread Safety
//
// Close is idempotent and protected by atomic operations. Callers must ensure
// no goroutine touches Bytes() after Close returns.
package mmap
