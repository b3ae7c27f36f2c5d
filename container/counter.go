package container

import (
	"sync/atomic"
	"unsafe"

	"github.com/hupe1980/jobmem"
	"github.com/hupe1980/jobmem/token"
)

// Atomic is the set of element types a ParallelCounter can update.
type Atomic interface {
	~int32 | ~int64 | ~uint32 | ~uint64
}

// Add adds v to the element at i through the owner's handle.
func Add[T Number](a *Array[T], i int, v T) error {
	const op = "container.Add"

	n := a.buf.Capacity()
	if err := checkIndex(op, i, 0, n-1, n); err != nil {
		return err
	}
	if err := a.buf.Token().Primary().CheckWrite(); err != nil {
		return wrap(op, err)
	}
	a.buf.Slice()[i] += v
	return nil
}

// Increment adds one to the element at i.
func Increment[T Number](a *Array[T], i int) error { return Add(a, i, 1) }

// Decrement subtracts one from the element at i.
func Decrement[T Number](a *Array[T], i int) error {
	const op = "container.Decrement"

	n := a.buf.Capacity()
	if err := checkIndex(op, i, 0, n-1, n); err != nil {
		return err
	}
	if err := a.buf.Token().Primary().CheckWrite(); err != nil {
		return wrap(op, err)
	}
	a.buf.Slice()[i]--
	return nil
}

// ParallelCounter updates an integer array atomically from many workers.
// Any index may be written by any worker; reads go through the array after
// the counter is closed.
type ParallelCounter[T Atomic] struct {
	a      *Array[T]
	h      token.Handle
	closed atomic.Bool
}

// AsParallelCounter derives a write-only handle for atomic updates of a.
func AsParallelCounter[T Atomic](a *Array[T]) (*ParallelCounter[T], error) {
	h, err := a.buf.Token().BeginShared(token.WriteOnly)
	if err != nil {
		return nil, wrap("container.AsParallelCounter", err)
	}
	return &ParallelCounter[T]{a: a, h: h}, nil
}

// Add atomically adds v to the element at i.
func (c *ParallelCounter[T]) Add(i int, v T) error {
	return c.add("container.ParallelCounter.Add", i, uint64(v))
}

// Increment atomically adds one to the element at i.
func (c *ParallelCounter[T]) Increment(i int) error {
	return c.add("container.ParallelCounter.Increment", i, 1)
}

// Decrement atomically subtracts one from the element at i.
func (c *ParallelCounter[T]) Decrement(i int) error {
	return c.add("container.ParallelCounter.Decrement", i, ^uint64(0))
}

// add performs a two's complement addition of delta, truncated to the element width.
func (c *ParallelCounter[T]) add(op string, i int, delta uint64) error {
	n := c.a.buf.Capacity()
	if err := checkIndex(op, i, 0, n-1, n); err != nil {
		return err
	}
	if err := c.h.CheckWrite(); err != nil {
		return wrap(op, err)
	}

	p := unsafe.Pointer(&c.a.buf.Slice()[i]) //nolint:gosec // element width is 4 or 8 bytes
	if unsafe.Sizeof(*new(T)) == 4 {
		atomic.AddUint32((*uint32)(p), uint32(delta))
	} else {
		atomic.AddUint64((*uint64)(p), delta)
	}
	return nil
}

// Close returns the counter's handle to the array.
func (c *ParallelCounter[T]) Close() error {
	if c.closed.Swap(true) {
		return jobmem.Errorf("container.ParallelCounter.Close", jobmem.DoubleRelease, nil)
	}
	return wrap("container.ParallelCounter.Close", c.a.buf.Token().EndShared(c.h))
}
