package jobmem

import (
	"sync/atomic"
)

// MetricsCollector defines an interface for collecting allocation metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordAllocate is called after each allocation attempt.
	// bytes is the requested size, err is nil if successful.
	RecordAllocate(scope string, bytes int64, err error)

	// RecordRelease is called after each release. deferred is true when the
	// release ran as a continuation of outstanding work.
	RecordRelease(scope string, bytes int64, deferred bool, err error)

	// RecordLeak is called when a buffer was garbage collected without release.
	// reported is false when the log report was dropped by rate limiting.
	RecordLeak(scope string, bytes int64, reported bool)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAllocate(string, int64, error)       {}
func (NoopMetricsCollector) RecordRelease(string, int64, bool, error) {}
func (NoopMetricsCollector) RecordLeak(string, int64, bool)           {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	AllocateCount    atomic.Int64
	AllocateErrors   atomic.Int64
	AllocatedBytes   atomic.Int64
	ReleaseCount     atomic.Int64
	ReleaseErrors    atomic.Int64
	DeferredReleases atomic.Int64
	ReleasedBytes    atomic.Int64
	LeakCount        atomic.Int64
	LeaksDropped     atomic.Int64
}

// RecordAllocate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAllocate(_ string, bytes int64, err error) {
	b.AllocateCount.Add(1)
	if err != nil {
		b.AllocateErrors.Add(1)
		return
	}
	b.AllocatedBytes.Add(bytes)
}

// RecordRelease implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRelease(_ string, bytes int64, deferred bool, err error) {
	b.ReleaseCount.Add(1)
	if err != nil {
		b.ReleaseErrors.Add(1)
		return
	}
	if deferred {
		b.DeferredReleases.Add(1)
	}
	b.ReleasedBytes.Add(bytes)
}

// RecordLeak implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLeak(_ string, _ int64, reported bool) {
	b.LeakCount.Add(1)
	if !reported {
		b.LeaksDropped.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AllocateCount:    b.AllocateCount.Load(),
		AllocateErrors:   b.AllocateErrors.Load(),
		AllocatedBytes:   b.AllocatedBytes.Load(),
		ReleaseCount:     b.ReleaseCount.Load(),
		ReleaseErrors:    b.ReleaseErrors.Load(),
		DeferredReleases: b.DeferredReleases.Load(),
		ReleasedBytes:    b.ReleasedBytes.Load(),
		LeakCount:        b.LeakCount.Load(),
		LeaksDropped:     b.LeaksDropped.Load(),
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AllocateCount    int64
	AllocateErrors   int64
	AllocatedBytes   int64
	ReleaseCount     int64
	ReleaseErrors    int64
	DeferredReleases int64
	ReleasedBytes    int64
	LeakCount        int64
	LeaksDropped     int64
}
