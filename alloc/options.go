package alloc

import (
	"log/slog"
	"math"

	"golang.org/x/time/rate"

	"github.com/hupe1980/jobmem"
	"github.com/hupe1980/jobmem/internal/arena"
	"github.com/hupe1980/jobmem/resource"
)

// DefaultMaxAllocationBytes is the largest single allocation permitted by default.
const DefaultMaxAllocationBytes = math.MaxInt32

type options struct {
	logger             *jobmem.Logger
	metricsCollector   jobmem.MetricsCollector
	controller         *resource.Controller
	maxAllocationBytes int64
	offHeapPersistent  bool
	leakLimit          rate.Limit
	leakBurst          int
	frameChunkSize     int
}

// Option configures a Provider.
type Option func(*options)

// WithLogger configures structured logging.
// Pass nil to disable logging.
func WithLogger(logger *jobmem.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = jobmem.NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(jobmem.NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = jobmem.NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc jobmem.MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = jobmem.NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithController sets the resource controller that bounds buffer memory and
// the number of deferred releases running at once.
func WithController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithMaxAllocationBytes sets the addressable allocation limit for a single
// buffer. Values <= 0 restore DefaultMaxAllocationBytes.
func WithMaxAllocationBytes(n int64) Option {
	return func(o *options) {
		if n <= 0 {
			n = DefaultMaxAllocationBytes
		}
		o.maxAllocationBytes = n
	}
}

// WithOffHeapPersistent controls whether persistent buffers are backed by
// anonymous memory mappings (default) or by the Go heap.
func WithOffHeapPersistent(enabled bool) Option {
	return func(o *options) {
		o.offHeapPersistent = enabled
	}
}

// WithLeakReportLimit limits how many leak reports per second reach the
// logger. Leaks beyond the limit are still counted by the metrics collector.
func WithLeakReportLimit(limit rate.Limit, burst int) Option {
	return func(o *options) {
		o.leakLimit = limit
		o.leakBurst = burst
	}
}

// WithFrameChunkSize sets the size of the arena chunks backing frames.
// Values <= 0 restore the default of 64 KiB.
func WithFrameChunkSize(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = arena.DefaultChunkSize
		}
		o.frameChunkSize = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:             jobmem.NoopLogger(),
		metricsCollector:   jobmem.NoopMetricsCollector{},
		maxAllocationBytes: DefaultMaxAllocationBytes,
		offHeapPersistent:  true,
		leakLimit:          rate.Limit(10),
		leakBurst:          10,
		frameChunkSize:     arena.DefaultChunkSize,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// AllocOption configures a single allocation.
type AllocOption func(*allocConfig)

type allocConfig struct {
	clear bool
}

// Uninitialized skips zero-filling. Contents are unspecified until written.
func Uninitialized() AllocOption {
	return func(c *allocConfig) {
		c.clear = false
	}
}

func applyAllocOptions(optFns []AllocOption) allocConfig {
	c := allocConfig{clear: true}
	for _, fn := range optFns {
		if fn != nil {
			fn(&c)
		}
	}
	return c
}
