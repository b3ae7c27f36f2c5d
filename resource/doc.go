// Package resource implements the Controller for global allocation limits.
//
// The Controller manages two resources shared by every allocation scope:
//
//   - Memory: track and limit bytes held by live buffers (non-blocking, fail-fast)
//   - Background slots: limit how many deferred releases run at the same time
//
// # Memory Management
//
// Memory tracking uses a weighted semaphore for hard limits and an atomic
// counter for usage. AcquireMemory is non-blocking and returns immediately
// with ErrMemoryLimitExceeded if the limit would be exceeded; retrying with
// the same size will not succeed until memory is released:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB limit
//	})
//
//	if err := rc.AcquireMemory(1024*1024); err != nil {
//	    // ErrMemoryLimitExceeded
//	}
//	defer rc.ReleaseMemory(1024*1024)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
// This allows optional resource limiting without nil checks everywhere.
package resource
