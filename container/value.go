package container

import (
	"errors"
	"sync/atomic"
	"unsafe"

	"github.com/hupe1980/jobmem"
	"github.com/hupe1980/jobmem/alloc"
	"github.com/hupe1980/jobmem/internal/mem"
	"github.com/hupe1980/jobmem/job"
	"github.com/hupe1980/jobmem/token"
)

var (
	errWorkers  = errors.New("worker count must be positive")
	errOperator = errors.New("operator must not be nil")
)

// Value is a shard-local accumulator. Each worker combines into its own cell;
// cells are padded to separate cache lines so concurrent writers never share
// one. Load folds all cells.
type Value[T any] struct {
	buf     *alloc.Buffer[byte]
	op      Operator[T]
	workers int
	stride  int
}

// NewValue allocates an accumulator with one cell per worker, each holding
// op.Identity().
func NewValue[T any](p *alloc.Provider, workers int, op Operator[T], scope alloc.Scope) (*Value[T], error) {
	return newValue(workers, op, func(n int) (*alloc.Buffer[byte], error) {
		return alloc.Allocate[byte](p, n, scope, alloc.Uninitialized())
	})
}

// NewValueIn allocates an ephemeral accumulator that lives until f ends.
func NewValueIn[T any](f *alloc.Frame, workers int, op Operator[T]) (*Value[T], error) {
	return newValue(workers, op, func(n int) (*alloc.Buffer[byte], error) {
		return alloc.AllocateIn[byte](f, n, alloc.Uninitialized())
	})
}

func newValue[T any](workers int, op Operator[T], allocate func(n int) (*alloc.Buffer[byte], error)) (*Value[T], error) {
	const name = "container.NewValue"

	if workers < 1 {
		return nil, jobmem.Errorf(name, jobmem.InvalidCapacity, errWorkers)
	}
	if op == nil {
		return nil, jobmem.Errorf(name, jobmem.InvalidCapacity, errOperator)
	}
	if !alloc.PointerFree[T]() {
		return nil, jobmem.Errorf(name, jobmem.InvalidElementType, nil)
	}

	stride := mem.Stride(int(unsafe.Sizeof(*new(T))))
	if workers > (1<<31)/stride {
		return nil, jobmem.Errorf(name, jobmem.CapacityOverflow, nil)
	}

	buf, err := allocate(workers * stride)
	if err != nil {
		return nil, err
	}

	v := &Value[T]{buf: buf, op: op, workers: workers, stride: stride}
	v.reset()
	return v, nil
}

// Workers returns the number of cells.
func (v *Value[T]) Workers() int { return v.workers }

// Buffer returns the backing byte buffer.
func (v *Value[T]) Buffer() *alloc.Buffer[byte] { return v.buf }

func (v *Value[T]) cell(shard int) *T {
	return mem.At[T](v.buf.Slice(), shard*v.stride)
}

// CombineWith folds x into the owner's cell.
func (v *Value[T]) CombineWith(x T) error {
	if err := v.buf.Token().Primary().CheckWrite(); err != nil {
		return wrap("container.Value.CombineWith", err)
	}
	c := v.cell(0)
	*c = v.op.Combine(*c, x)
	return nil
}

// Load folds every cell left to right in shard order. The result is computed
// on every call.
func (v *Value[T]) Load() (T, error) {
	if err := v.buf.Token().Primary().CheckRead(); err != nil {
		var zero T
		return zero, wrap("container.Value.Load", err)
	}
	acc := v.op.Identity()
	for i := range v.workers {
		acc = v.op.Combine(acc, *v.cell(i))
	}
	return acc, nil
}

// Store replaces the logical value with x. Contributions of all other cells
// are discarded.
func (v *Value[T]) Store(x T) error {
	if err := v.buf.Token().Primary().CheckWrite(); err != nil {
		return wrap("container.Value.Store", err)
	}
	v.reset()
	c := v.cell(0)
	*c = v.op.Combine(*c, x)
	return nil
}

// Reset restores every cell to the operator's identity.
func (v *Value[T]) Reset() error {
	if err := v.buf.Token().Primary().CheckWrite(); err != nil {
		return wrap("container.Value.Reset", err)
	}
	v.reset()
	return nil
}

func (v *Value[T]) reset() {
	id := v.op.Identity()
	for i := range v.workers {
		*v.cell(i) = id
	}
}

// AsParallelWriter derives a write-only handle for concurrent workers.
// The owner cannot Load until the writer is closed.
func (v *Value[T]) AsParallelWriter() (*ParallelWriter[T], error) {
	h, err := v.buf.Token().BeginShared(token.WriteOnly)
	if err != nil {
		return nil, wrap("container.Value.AsParallelWriter", err)
	}
	return &ParallelWriter[T]{v: v, h: h}, nil
}

// Dispose frees v.
func (v *Value[T]) Dispose() error { return v.buf.Release() }

// DisposeAfter retires v and frees it once deps have completed.
func (v *Value[T]) DisposeAfter(deps ...job.Handle) (job.Handle, error) {
	return v.buf.ReleaseAfter(deps...)
}

// ParallelWriter combines into the cell of the calling worker. Each shard
// must be written by at most one goroutine at a time; job.Pool worker indices
// satisfy this.
type ParallelWriter[T any] struct {
	v      *Value[T]
	h      token.Handle
	closed atomic.Bool
}

// CombineWith folds x into the cell of shard.
func (w *ParallelWriter[T]) CombineWith(shard int, x T) error {
	const op = "container.ParallelWriter.CombineWith"

	if shard < 0 || shard >= w.v.workers {
		return jobmem.IndexError(op, jobmem.InvalidShard, shard, 0, w.v.workers-1, w.v.workers)
	}
	if err := w.h.CheckWrite(); err != nil {
		return wrap(op, err)
	}
	c := w.v.cell(shard)
	*c = w.v.op.Combine(*c, x)
	return nil
}

// Close returns the writer's handle. It must not race with CombineWith.
// Closing twice fails with ErrDoubleRelease.
func (w *ParallelWriter[T]) Close() error {
	if w.closed.Swap(true) {
		return jobmem.Errorf("container.ParallelWriter.Close", jobmem.DoubleRelease, nil)
	}
	return wrap("container.ParallelWriter.Close", w.v.buf.Token().EndShared(w.h))
}
