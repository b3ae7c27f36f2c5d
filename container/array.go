package container

import (
	"errors"

	"github.com/hupe1980/jobmem"
	"github.com/hupe1980/jobmem/alloc"
	"github.com/hupe1980/jobmem/job"
	"github.com/hupe1980/jobmem/token"
)

var errPartition = errors.New("partition count must be in [1, capacity]")

// Array is a fixed-capacity linear container.
type Array[T any] struct {
	buf *alloc.Buffer[T]
}

// NewArray allocates an array of capacity elements from scope.
func NewArray[T any](p *alloc.Provider, capacity int, scope alloc.Scope, opts ...alloc.AllocOption) (*Array[T], error) {
	buf, err := alloc.Allocate[T](p, capacity, scope, opts...)
	if err != nil {
		return nil, err
	}
	return &Array[T]{buf: buf}, nil
}

// NewArrayIn allocates an ephemeral array that lives until f ends.
func NewArrayIn[T any](f *alloc.Frame, capacity int, opts ...alloc.AllocOption) (*Array[T], error) {
	buf, err := alloc.AllocateIn[T](f, capacity, opts...)
	if err != nil {
		return nil, err
	}
	return &Array[T]{buf: buf}, nil
}

// Len returns the capacity of a.
func (a *Array[T]) Len() int { return a.buf.Capacity() }

// Buffer returns the backing buffer.
func (a *Array[T]) Buffer() *alloc.Buffer[T] { return a.buf }

// Unchecked returns the raw storage. No access check is performed.
func (a *Array[T]) Unchecked() []T { return a.buf.Slice() }

// Get returns the element at i.
func (a *Array[T]) Get(i int) (T, error) {
	const op = "container.Array.Get"

	var zero T
	n := a.buf.Capacity()
	if err := checkIndex(op, i, 0, n-1, n); err != nil {
		return zero, err
	}
	if err := a.buf.Token().Primary().CheckRead(); err != nil {
		return zero, wrap(op, err)
	}
	return a.buf.Slice()[i], nil
}

// Set stores v at i.
func (a *Array[T]) Set(i int, v T) error {
	const op = "container.Array.Set"

	n := a.buf.Capacity()
	if err := checkIndex(op, i, 0, n-1, n); err != nil {
		return err
	}
	if err := a.buf.Token().Primary().CheckWrite(); err != nil {
		return wrap(op, err)
	}
	a.buf.Slice()[i] = v
	return nil
}

// Fill stores v in every element.
func (a *Array[T]) Fill(v T) error {
	if err := a.buf.Token().Primary().CheckWrite(); err != nil {
		return wrap("container.Array.Fill", err)
	}
	s := a.buf.Slice()
	for i := range s {
		s[i] = v
	}
	return nil
}

// CopyTo copies the contents of a into dst and returns the number of elements copied.
func (a *Array[T]) CopyTo(dst []T) (int, error) {
	if err := a.buf.Token().Primary().CheckRead(); err != nil {
		return 0, wrap("container.Array.CopyTo", err)
	}
	return copy(dst, a.buf.Slice()), nil
}

// View returns a view restricted to [lo, hi]. The owner cannot access a
// directly until every view is closed.
func (a *Array[T]) View(lo, hi int) (*RangeView[T], error) {
	return a.view("container.Array.View", lo, hi, token.ReadWrite)
}

// ReadOnlyView returns a view restricted to [lo, hi] that rejects writes.
func (a *Array[T]) ReadOnlyView(lo, hi int) (*RangeView[T], error) {
	return a.view("container.Array.ReadOnlyView", lo, hi, token.ReadOnly)
}

// FullView returns an unrestricted view covering [0, Len()).
func (a *Array[T]) FullView() (*RangeView[T], error) {
	return a.view("container.Array.FullView", 0, a.Len()-1, token.ReadWrite)
}

func (a *Array[T]) view(op string, lo, hi int, mode token.Mode) (*RangeView[T], error) {
	n := a.buf.Capacity()
	if lo < 0 || lo >= n {
		return nil, jobmem.IndexError(op, jobmem.OutOfCapacity, lo, lo, hi, n)
	}
	if hi < lo || hi >= n {
		return nil, jobmem.IndexError(op, jobmem.OutOfCapacity, hi, lo, hi, n)
	}

	h, err := a.buf.Token().BeginShared(mode)
	if err != nil {
		return nil, wrap(op, err)
	}
	return &RangeView[T]{buf: a.buf, h: h, lo: lo, hi: hi}, nil
}

// Partition splits a into k views whose windows exactly tile [0, Len()).
// Window sizes differ by at most one. k must be in [1, Len()].
func (a *Array[T]) Partition(k int) ([]*RangeView[T], error) {
	const op = "container.Array.Partition"

	n := a.buf.Capacity()
	if k < 1 || k > n {
		return nil, jobmem.Errorf(op, jobmem.InvalidCapacity, errPartition)
	}

	views := make([]*RangeView[T], 0, k)
	base, rem := n/k, n%k
	lo := 0
	for i := range k {
		size := base
		if i < rem {
			size++
		}
		v, err := a.view(op, lo, lo+size-1, token.ReadWrite)
		if err != nil {
			for _, open := range views {
				_ = open.Close()
			}
			return nil, err
		}
		views = append(views, v)
		lo += size
	}
	return views, nil
}

// InUse reports whether views of a are outstanding.
func (a *Array[T]) InUse() bool { return a.buf.Token().InUse() }

// Dispose frees a. It fails with ErrStillInUse while views are open and with
// ErrDoubleRelease if a was already disposed.
func (a *Array[T]) Dispose() error { return a.buf.Release() }

// DisposeAfter retires a and frees it once deps have completed.
func (a *Array[T]) DisposeAfter(deps ...job.Handle) (job.Handle, error) {
	return a.buf.ReleaseAfter(deps...)
}
