package arena

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrInvalidSize is returned for a negative allocation size.
	ErrInvalidSize = errors.New("arena: invalid size")
	// ErrInvalidAlignment is returned when the alignment is not a power of two.
	ErrInvalidAlignment = errors.New("arena: alignment must be a power of two")
)

const (
	// DefaultChunkSize is the default size of a chunk (64 KiB).
	DefaultChunkSize = 64 * 1024
	// DefaultAlignment is the default alignment of allocations.
	DefaultAlignment = 64
)

// Source supplies and takes back chunk memory. The returned block must be
// aligned to at least the arena's alignment.
type Source interface {
	Get(size int) (b []byte, reused bool)
	Put(b []byte)
}

// Stats tracks arena memory usage.
type Stats struct {
	ChunksAllocated uint64 // Historical: total chunks ever taken
	ActiveChunks    uint64 // Current: chunks held until Reset
	BytesReserved   uint64 // Current: total chunk memory held
	BytesUsed       uint64 // Current: bytes requested by allocations
	BytesWasted     uint64 // Current: alignment padding
	TotalAllocs     uint64 // Historical: total allocations
}

type atomicStats struct {
	ChunksAllocated atomic.Uint64
	ActiveChunks    atomic.Uint64
	BytesReserved   atomic.Uint64
	BytesUsed       atomic.Uint64
	BytesWasted     atomic.Uint64
	TotalAllocs     atomic.Uint64
}

type chunk struct {
	data   []byte
	dirty  bool
	offset atomic.Int64
}

// Arena is a bump allocator over chunks taken from a Source.
type Arena struct {
	chunkSize int
	alignment int
	src       Source

	mu      sync.Mutex
	chunks  []*chunk
	current atomic.Pointer[chunk]
	stats   atomicStats
}

// Option is a configuration option for Arena.
type Option func(*Arena)

// WithChunkSize sets the chunk size. Values <= 0 restore DefaultChunkSize.
func WithChunkSize(size int) Option {
	return func(a *Arena) {
		if size <= 0 {
			size = DefaultChunkSize
		}
		a.chunkSize = size
	}
}

// WithAlignment sets the alignment of every allocation.
func WithAlignment(align int) Option {
	return func(a *Arena) {
		a.alignment = align
	}
}

// New creates an empty Arena. No chunk is taken before the first Alloc.
func New(src Source, opts ...Option) (*Arena, error) {
	a := &Arena{
		chunkSize: DefaultChunkSize,
		alignment: DefaultAlignment,
		src:       src,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.alignment <= 0 || a.alignment&(a.alignment-1) != 0 {
		return nil, ErrInvalidAlignment
	}
	return a, nil
}

// Alloc returns size bytes aligned to the arena's alignment. dirty reports
// whether the bytes may hold data from an earlier use of the chunk memory.
func (a *Arena) Alloc(size int) (b []byte, dirty bool, err error) {
	if size < 0 {
		return nil, false, ErrInvalidSize
	}
	if size == 0 {
		return nil, false, nil
	}

	if size > a.chunkSize {
		c := a.newChunk(size)
		c.offset.Store(int64(size))
		a.record(size, 0)
		return c.data[:size:size], c.dirty, nil
	}

	for {
		c := a.current.Load()
		if c == nil {
			a.grow(nil)
			continue
		}

		cur := c.offset.Load()
		align := int64(a.alignment)
		padding := (align - cur%align) % align
		next := cur + padding + int64(size)
		if next > int64(len(c.data)) {
			a.grow(c)
			continue
		}
		if c.offset.CompareAndSwap(cur, next) {
			start := cur + padding
			a.record(size, int(padding))
			return c.data[start:next:next], c.dirty, nil
		}
	}
}

func (a *Arena) record(used, wasted int) {
	a.stats.BytesUsed.Add(uint64(used))     //nolint:gosec // non-negative
	a.stats.BytesWasted.Add(uint64(wasted)) //nolint:gosec // non-negative
	a.stats.TotalAllocs.Add(1)
}

// grow installs a fresh current chunk unless another goroutine already
// replaced full.
func (a *Arena) grow(full *chunk) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current.Load() != full {
		return
	}
	a.current.Store(a.newChunkLocked(a.chunkSize))
}

func (a *Arena) newChunk(size int) *chunk {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.newChunkLocked(size)
}

func (a *Arena) newChunkLocked(size int) *chunk {
	data, reused := a.src.Get(size)
	c := &chunk{data: data, dirty: reused}
	a.chunks = append(a.chunks, c)

	a.stats.ChunksAllocated.Add(1)
	a.stats.ActiveChunks.Add(1)
	a.stats.BytesReserved.Add(uint64(len(data))) //nolint:gosec // non-negative
	return c
}

// Reset returns every chunk to the source. Memory handed out by Alloc must
// no longer be used.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, c := range a.chunks {
		a.src.Put(c.data)
	}
	a.chunks = nil
	a.current.Store(nil)

	a.stats.ActiveChunks.Store(0)
	a.stats.BytesReserved.Store(0)
	a.stats.BytesUsed.Store(0)
	a.stats.BytesWasted.Store(0)
}

// Stats returns a snapshot of the arena statistics.
func (a *Arena) Stats() Stats {
	return Stats{
		ChunksAllocated: a.stats.ChunksAllocated.Load(),
		ActiveChunks:    a.stats.ActiveChunks.Load(),
		BytesReserved:   a.stats.BytesReserved.Load(),
		BytesUsed:       a.stats.BytesUsed.Load(),
		BytesWasted:     a.stats.BytesWasted.Load(),
		TotalAllocs:     a.stats.TotalAllocs.Load(),
	}
}
