package alloc

import (
	"context"
	"errors"
	"sync"

	"github.com/hupe1980/jobmem"
	"github.com/hupe1980/jobmem/internal/arena"
)

var errFrameEnded = errors.New("frame already ended")

type frameMember interface {
	reclaim() error
}

// Frame is an ephemeral allocation scope. Every buffer allocated in it is
// reclaimed by End; ephemeral buffers are never released individually.
// Frame memory is carved from cache-line aligned chunks of a bump arena.
type Frame struct {
	p     *Provider
	arena *arena.Arena

	mu      sync.Mutex
	ended   bool
	members []frameMember
}

// BeginFrame starts a new ephemeral frame.
func (p *Provider) BeginFrame() *Frame {
	a, err := arena.New(p.heap, arena.WithChunkSize(p.opts.frameChunkSize))
	if err != nil {
		// The default alignment is a power of two.
		panic(err)
	}
	return &Frame{p: p, arena: a}
}

// FrameStats describes the memory held by a frame.
type FrameStats struct {
	Chunks        uint64 // arena chunks currently held
	BytesReserved uint64 // chunk memory currently held
	BytesUsed     uint64 // bytes handed to buffers
}

// Stats returns the current memory usage of f.
func (f *Frame) Stats() FrameStats {
	s := f.arena.Stats()
	return FrameStats{
		Chunks:        s.ActiveChunks,
		BytesReserved: s.BytesReserved,
		BytesUsed:     s.BytesUsed,
	}
}

// Provider returns the provider the frame allocates from.
func (f *Frame) Provider() *Provider {
	return f.p
}

// AllocateIn obtains an ephemeral buffer that lives until f ends.
func AllocateIn[T any](f *Frame, capacity int, opts ...AllocOption) (*Buffer[T], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ended {
		err := jobmem.Errorf("alloc.AllocateIn", jobmem.InvalidScope, errFrameEnded)
		f.p.opts.logger.LogAllocate(context.Background(), 0, Ephemeral.String(), capacity, err)
		f.p.opts.metricsCollector.RecordAllocate(Ephemeral.String(), 0, err)
		return nil, err
	}

	b, err := allocate[T](f.p, f, capacity, Ephemeral, opts)
	if err != nil {
		return nil, err
	}
	f.members = append(f.members, b)
	return b, nil
}

// End reclaims every buffer allocated in f. Views of those buffers become
// invalid. Ending a frame twice fails with DoubleRelease.
func (f *Frame) End() error {
	f.mu.Lock()
	if f.ended {
		f.mu.Unlock()
		return jobmem.Errorf("alloc.Frame.End", jobmem.DoubleRelease, errFrameEnded)
	}
	f.ended = true
	members := f.members
	f.members = nil
	f.mu.Unlock()

	var errs []error
	for _, m := range members {
		if err := m.reclaim(); err != nil {
			errs = append(errs, err)
		}
	}
	f.arena.Reset()
	f.p.opts.logger.LogFrameEnd(context.Background(), len(members))
	return errors.Join(errs...)
}
