// Package arena provides a chunked bump allocator for memory that is freed
// all at once.
//
// Allocations are carved from chunks with a lock-free CAS on the chunk offset.
// A new chunk is taken under a mutex when the current one is full. Requests
// larger than a chunk get a dedicated chunk. Reset hands every chunk back to
// its source.
//
// # Concurrency Model
//
// Alloc is safe for concurrent use. Reset must not run concurrently with Alloc.
package arena
