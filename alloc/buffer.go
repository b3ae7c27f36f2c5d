package alloc

import (
	"context"
	"errors"
	"reflect"
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/hupe1980/jobmem"
	"github.com/hupe1980/jobmem/internal/conv"
	"github.com/hupe1980/jobmem/internal/mem"
	"github.com/hupe1980/jobmem/job"
	"github.com/hupe1980/jobmem/resource"
	"github.com/hupe1980/jobmem/token"
)

// Buffer is a fixed-capacity block of T obtained from a scope.
// Element size and capacity never change. A Buffer is destroyed exactly once,
// by Release, ReleaseAfter or the end of its frame.
type Buffer[T any] struct {
	p        *Provider
	id       uint64
	scope    Scope
	capacity int
	elemSize int
	bytes    int64

	data []T
	blk  *block
	tok  *token.Token

	cleanup runtime.Cleanup
	freed   atomic.Bool
}

// Allocate obtains a buffer of capacity elements from scope. Memory is
// zero-filled unless Uninitialized is passed.
//
// Ephemeral buffers must be allocated with AllocateIn.
func Allocate[T any](p *Provider, capacity int, scope Scope, opts ...AllocOption) (*Buffer[T], error) {
	if scope == Ephemeral {
		err := jobmem.Errorf("alloc.Allocate", jobmem.InvalidScope, errFrameRequired)
		p.opts.logger.LogAllocate(context.Background(), 0, scope.String(), capacity, err)
		p.opts.metricsCollector.RecordAllocate(scope.String(), 0, err)
		return nil, err
	}
	return allocate[T](p, nil, capacity, scope, opts)
}

func allocate[T any](p *Provider, f *Frame, capacity int, scope Scope, optFns []AllocOption) (*Buffer[T], error) {
	b, err := newBuffer[T](p, f, capacity, scope, applyAllocOptions(optFns))

	var (
		id    uint64
		bytes int64
	)
	if b != nil {
		id, bytes = b.id, b.bytes
	}
	p.opts.logger.LogAllocate(context.Background(), id, scope.String(), capacity, err)
	p.opts.metricsCollector.RecordAllocate(scope.String(), bytes, err)

	return b, err
}

func newBuffer[T any](p *Provider, f *Frame, capacity int, scope Scope, cfg allocConfig) (*Buffer[T], error) {
	const op = "alloc.Allocate"

	if !scope.Valid() {
		return nil, jobmem.Errorf(op, jobmem.InvalidScope, nil)
	}
	if capacity < 0 {
		return nil, jobmem.Errorf(op, jobmem.InvalidCapacity, nil)
	}

	var zero T
	if !pointerFree(reflect.TypeOf(&zero).Elem()) {
		return nil, jobmem.Errorf(op, jobmem.InvalidElementType, nil)
	}

	elemSize := int(unsafe.Sizeof(zero))
	size, ok := conv.MulInt64(int64(capacity), int64(elemSize))
	if !ok || size > p.opts.maxAllocationBytes {
		return nil, jobmem.Errorf(op, jobmem.CapacityOverflow, nil)
	}
	n, ok := conv.Int64ToInt(size)
	if !ok {
		return nil, jobmem.Errorf(op, jobmem.CapacityOverflow, nil)
	}

	if err := p.opts.controller.AcquireMemory(size); err != nil {
		if errors.Is(err, resource.ErrMemoryLimitExceeded) {
			return nil, jobmem.Errorf(op, jobmem.MemoryLimitExceeded, err)
		}
		return nil, err
	}

	blk, err := p.obtain(f, scope, n, cfg.clear)
	if err != nil {
		p.opts.controller.ReleaseMemory(size)
		return nil, err
	}

	var data []T
	if size == 0 {
		// Zero-sized elements or an empty buffer need no backing memory.
		data = make([]T, capacity)
	} else {
		data = mem.Slice[T](blk.raw, capacity)
	}

	b := &Buffer[T]{
		p:        p,
		id:       p.nextID.Add(1),
		scope:    scope,
		capacity: capacity,
		elemSize: elemSize,
		bytes:    size,
		data:     data,
		blk:      blk,
		tok:      token.New(),
	}
	p.track(b.id, b.bytes)

	b.cleanup = runtime.AddCleanup(b, p.reclaimLeak, leakInfo{
		id:       b.id,
		scope:    scope,
		capacity: capacity,
		bytes:    size,
		blk:      blk,
	})

	return b, nil
}

// ID returns the provider-unique id of b.
func (b *Buffer[T]) ID() uint64 { return b.id }

// Scope returns the scope b was allocated from.
func (b *Buffer[T]) Scope() Scope { return b.scope }

// Capacity returns the number of elements.
func (b *Buffer[T]) Capacity() int { return b.capacity }

// ElemSize returns the size of one element in bytes.
func (b *Buffer[T]) ElemSize() int { return b.elemSize }

// Bytes returns the size of the buffer in bytes.
func (b *Buffer[T]) Bytes() int64 { return b.bytes }

// Token returns the access token validating b.
func (b *Buffer[T]) Token() *token.Token { return b.tok }

// Provider returns the provider b was allocated from.
func (b *Buffer[T]) Provider() *Provider { return b.p }

// Slice returns the raw storage without any access check. The caller must
// already have established exclusivity; the slice is invalid once b is freed.
// Returns nil after the memory was released.
func (b *Buffer[T]) Slice() []T {
	if b.freed.Load() {
		return nil
	}
	return b.data
}

// Released reports whether b was released for new access.
// Physical release may still be pending after ReleaseAfter.
func (b *Buffer[T]) Released() bool {
	return b.tok.State() == token.Released
}

// Freed reports whether the memory of b was physically released.
func (b *Buffer[T]) Freed() bool {
	return b.freed.Load()
}

// Release frees b synchronously. It fails with InvalidScope for ephemeral
// buffers, StillInUse while shared views are outstanding and DoubleRelease if
// b was already released.
func (b *Buffer[T]) Release() error {
	const op = "alloc.Release"

	if !b.scope.ManualRelease() {
		err := jobmem.Errorf(op, jobmem.InvalidScope, nil)
		b.logRelease(false, err)
		return err
	}
	if err := b.tok.Release(); err != nil {
		err = wrap(op, err)
		b.logRelease(false, err)
		return err
	}
	return b.free(false)
}

// ReleaseAfter retires b for new access immediately and frees its memory once
// every handle in deps has completed. Shared views opened before the call keep
// working until they are closed or the memory is freed. The returned handle
// completes after the memory was freed.
func (b *Buffer[T]) ReleaseAfter(deps ...job.Handle) (job.Handle, error) {
	const op = "alloc.ReleaseAfter"

	if !b.scope.ManualRelease() {
		err := jobmem.Errorf(op, jobmem.InvalidScope, nil)
		b.logRelease(true, err)
		return job.Completed(), err
	}
	if err := b.tok.Retire(); err != nil {
		err = wrap(op, err)
		b.logRelease(true, err)
		return job.Completed(), err
	}

	ctrl := b.p.opts.controller
	return job.Schedule(func() error {
		if err := ctrl.AcquireBackground(context.Background()); err != nil {
			return err
		}
		defer ctrl.ReleaseBackground()
		return b.free(true)
	}, deps...), nil
}

// reclaim is called by the owning frame when it ends.
func (b *Buffer[T]) reclaim() error {
	if err := b.tok.Retire(); err != nil {
		return wrap("alloc.Frame.End", err)
	}
	return b.free(false)
}

func (b *Buffer[T]) free(deferred bool) error {
	if b.freed.Swap(true) {
		return nil
	}
	b.cleanup.Stop()
	b.tok.Invalidate()

	b.p.untrack(b.id, b.bytes)
	b.p.released.Add(1)

	err := b.p.free(b.blk)
	b.logRelease(deferred, err)
	return err
}

func (b *Buffer[T]) logRelease(deferred bool, err error) {
	b.p.opts.logger.LogRelease(context.Background(), b.id, b.scope.String(), deferred, err)
	b.p.opts.metricsCollector.RecordRelease(b.scope.String(), b.bytes, deferred, err)
}

func wrap(op string, err error) error {
	if k, ok := jobmem.KindOf(err); ok {
		return jobmem.Errorf(op, k, err)
	}
	return err
}
