package container

import (
	"sync/atomic"

	"github.com/hupe1980/jobmem"
	"github.com/hupe1980/jobmem/alloc"
	"github.com/hupe1980/jobmem/token"
)

// RangeView is a borrowed window [Min(), Max()] of an array's buffer.
// Views of one partition may be used concurrently by different goroutines.
type RangeView[T any] struct {
	buf    *alloc.Buffer[T]
	h      token.Handle
	lo, hi int
	closed atomic.Bool
}

// Min returns the lowest index of the window.
func (v *RangeView[T]) Min() int { return v.lo }

// Max returns the highest index of the window.
func (v *RangeView[T]) Max() int { return v.hi }

// Len returns the number of indices in the window.
func (v *RangeView[T]) Len() int { return v.hi - v.lo + 1 }

// Capacity returns the capacity of the underlying buffer.
func (v *RangeView[T]) Capacity() int { return v.buf.Capacity() }

// Get returns the element at i. It fails with ErrOutOfCapacity for indices
// outside the buffer and with ErrRangeRestricted for indices outside the window.
func (v *RangeView[T]) Get(i int) (T, error) {
	const op = "container.RangeView.Get"

	var zero T
	if err := checkIndex(op, i, v.lo, v.hi, v.buf.Capacity()); err != nil {
		return zero, err
	}
	if err := v.h.CheckRead(); err != nil {
		return zero, wrap(op, err)
	}
	return v.buf.Slice()[i], nil
}

// Set stores x at i.
func (v *RangeView[T]) Set(i int, x T) error {
	const op = "container.RangeView.Set"

	if err := checkIndex(op, i, v.lo, v.hi, v.buf.Capacity()); err != nil {
		return err
	}
	if err := v.h.CheckWrite(); err != nil {
		return wrap(op, err)
	}
	v.buf.Slice()[i] = x
	return nil
}

// Close returns the view to its array. Closing twice fails with ErrDoubleRelease.
func (v *RangeView[T]) Close() error {
	if v.closed.Swap(true) {
		return jobmem.Errorf("container.RangeView.Close", jobmem.DoubleRelease, nil)
	}
	return wrap("container.RangeView.Close", v.buf.Token().EndShared(v.h))
}
