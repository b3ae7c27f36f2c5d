package alloc

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"golang.org/x/time/rate"

	"github.com/hupe1980/jobmem"
	"github.com/hupe1980/jobmem/internal/mem"
	"github.com/hupe1980/jobmem/internal/mmap"
)

var errFrameRequired = errors.New("ephemeral buffers must be allocated in a frame")

// Provider maps scopes to memory sources and tracks every live buffer.
// It is safe for concurrent use.
type Provider struct {
	opts options
	heap *mem.Pool

	nextID atomic.Uint64

	mu   sync.Mutex
	live *roaring64.Bitmap

	liveBytes atomic.Int64
	allocated atomic.Uint64
	released  atomic.Uint64
	leaked    atomic.Uint64

	leakLimiter *rate.Limiter
}

// Stats is a snapshot of provider bookkeeping.
type Stats struct {
	Live      uint64 // buffers currently outstanding
	LiveBytes int64  // bytes held by outstanding buffers
	Allocated uint64 // buffers ever allocated
	Released  uint64 // buffers released (synchronously, deferred or by frame end)
	Leaked    uint64 // buffers reclaimed after becoming unreachable unreleased
}

// NewProvider creates a Provider.
func NewProvider(optFns ...Option) *Provider {
	o := applyOptions(optFns)
	return &Provider{
		opts:        o,
		heap:        mem.NewPool(),
		live:        roaring64.New(),
		leakLimiter: rate.NewLimiter(o.leakLimit, o.leakBurst),
	}
}

// Outstanding returns the number of live buffers.
func (p *Provider) Outstanding() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live.GetCardinality()
}

// Live returns the ids of all live buffers in ascending order.
func (p *Provider) Live() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live.ToArray()
}

// IsLive reports whether the buffer with the given id is still tracked.
func (p *Provider) IsLive(id uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live.Contains(id)
}

// Stats returns the current provider statistics.
func (p *Provider) Stats() Stats {
	return Stats{
		Live:      p.Outstanding(),
		LiveBytes: p.liveBytes.Load(),
		Allocated: p.allocated.Load(),
		Released:  p.released.Load(),
		Leaked:    p.leaked.Load(),
	}
}

// Logger returns the provider's logger.
func (p *Provider) Logger() *jobmem.Logger {
	return p.opts.logger
}

// block is one memory region handed out by a source.
type block struct {
	raw     []byte
	mapping *mmap.Mapping
	pooled  bool
}

func (p *Provider) obtain(f *Frame, scope Scope, size int, clearMem bool) (*block, error) {
	if size == 0 {
		return &block{}, nil
	}

	if f != nil {
		// Frame memory is returned in bulk by Frame.End.
		raw, dirty, err := f.arena.Alloc(size)
		if err != nil {
			return nil, err
		}
		if dirty && clearMem {
			mem.Clear(raw)
		}
		return &block{raw: raw}, nil
	}

	if scope == Persistent && p.opts.offHeapPersistent {
		m, err := mmap.MapAnon(size)
		if err == nil {
			return &block{raw: m.Bytes(), mapping: m}, nil
		}
		p.opts.logger.Warn("off-heap mapping failed, falling back to heap", "size", size, "error", err)
	}

	raw, reused := p.heap.Get(size)
	if reused && clearMem {
		mem.Clear(raw)
	}
	return &block{raw: raw, pooled: true}, nil
}

func (p *Provider) free(b *block) error {
	switch {
	case b.mapping != nil:
		return b.mapping.Close()
	case b.pooled:
		p.heap.Put(b.raw)
	}
	return nil
}

func (p *Provider) track(id uint64, bytes int64) {
	p.mu.Lock()
	p.live.Add(id)
	p.mu.Unlock()

	p.liveBytes.Add(bytes)
	p.allocated.Add(1)
}

// untrack removes id from the live set and reports whether it was present.
// Removing an unknown id leaves the bookkeeping of other buffers untouched.
func (p *Provider) untrack(id uint64, bytes int64) bool {
	p.mu.Lock()
	present := p.live.Contains(id)
	if present {
		p.live.Remove(id)
	}
	p.mu.Unlock()

	if !present {
		return false
	}
	p.liveBytes.Add(-bytes)
	p.opts.controller.ReleaseMemory(bytes)
	return true
}

type leakInfo struct {
	id       uint64
	scope    Scope
	capacity int
	bytes    int64
	blk      *block
}

// reclaimLeak runs as a cleanup once a buffer became unreachable.
// Released buffers stop their cleanup, so reaching this means a leak.
func (p *Provider) reclaimLeak(info leakInfo) {
	if !p.untrack(info.id, info.bytes) {
		return
	}
	p.leaked.Add(1)

	reported := p.leakLimiter.Allow()
	if reported {
		p.opts.logger.LogLeak(context.Background(), info.id, info.scope.String(), info.capacity)
	}
	p.opts.metricsCollector.RecordLeak(info.scope.String(), info.bytes, reported)

	_ = p.free(info.blk)
}

// WithFrame runs fn with a fresh ephemeral frame and ends the frame when fn returns.
func (p *Provider) WithFrame(fn func(f *Frame) error) error {
	f := p.BeginFrame()
	err := fn(f)
	return errors.Join(err, f.End())
}
