package container

import (
	"cmp"
	"errors"

	"github.com/hupe1980/jobmem"
	"github.com/hupe1980/jobmem/alloc"
	"github.com/hupe1980/jobmem/job"
)

var errLess = errors.New("less function must not be nil")

// Node is a heap entry. Next is a free link for callers that chain nodes;
// the heap never reads it.
type Node[V, P any] struct {
	Value    V
	Priority P
	Next     int
}

// NewNode returns a node with an unset Next link (-1).
func NewNode[V, P any](v V, p P) Node[V, P] {
	return Node[V, P]{Value: v, Priority: p, Next: -1}
}

// MinHeap is a fixed-capacity binary min-heap stored in a buffer.
// Pop order of equal priorities is unspecified.
type MinHeap[V, P any] struct {
	buf  *alloc.Buffer[Node[V, P]]
	less func(a, b P) bool
	size int
}

// NewMinHeap allocates a heap ordered by the natural order of P.
func NewMinHeap[V any, P cmp.Ordered](p *alloc.Provider, capacity int, scope alloc.Scope, opts ...alloc.AllocOption) (*MinHeap[V, P], error) {
	return NewMinHeapFunc[V, P](p, capacity, scope, func(a, b P) bool { return a < b }, opts...)
}

// NewMinHeapFunc allocates a heap ordered by less, which must be a strict weak order.
func NewMinHeapFunc[V, P any](p *alloc.Provider, capacity int, scope alloc.Scope, less func(a, b P) bool, opts ...alloc.AllocOption) (*MinHeap[V, P], error) {
	if less == nil {
		return nil, jobmem.Errorf("container.NewMinHeapFunc", jobmem.InvalidCapacity, errLess)
	}
	buf, err := alloc.Allocate[Node[V, P]](p, capacity, scope, opts...)
	if err != nil {
		return nil, err
	}
	return &MinHeap[V, P]{buf: buf, less: less}, nil
}

// NewMinHeapIn allocates an ephemeral heap that lives until f ends.
func NewMinHeapIn[V any, P cmp.Ordered](f *alloc.Frame, capacity int, opts ...alloc.AllocOption) (*MinHeap[V, P], error) {
	buf, err := alloc.AllocateIn[Node[V, P]](f, capacity, opts...)
	if err != nil {
		return nil, err
	}
	return &MinHeap[V, P]{buf: buf, less: func(a, b P) bool { return a < b }}, nil
}

// Len returns the number of nodes.
func (h *MinHeap[V, P]) Len() int { return h.size }

// Cap returns the maximum number of nodes.
func (h *MinHeap[V, P]) Cap() int { return h.buf.Capacity() }

// Empty reports whether the heap holds no nodes.
func (h *MinHeap[V, P]) Empty() bool { return h.size == 0 }

// Buffer returns the backing buffer.
func (h *MinHeap[V, P]) Buffer() *alloc.Buffer[Node[V, P]] { return h.buf }

// Push inserts v with priority p.
func (h *MinHeap[V, P]) Push(v V, p P) error {
	return h.PushNode(NewNode(v, p))
}

// PushNode inserts n. It fails with ErrCapacityExceeded on a full heap.
func (h *MinHeap[V, P]) PushNode(n Node[V, P]) error {
	const op = "container.MinHeap.Push"

	if err := h.buf.Token().Primary().CheckWrite(); err != nil {
		return wrap(op, err)
	}
	if h.size == h.buf.Capacity() {
		return &jobmem.Error{Op: op, Kind: jobmem.CapacityExceeded, Capacity: h.buf.Capacity()}
	}

	nodes := h.buf.Slice()
	nodes[h.size] = n
	h.size++
	h.up(nodes, h.size-1)
	return nil
}

// Pop removes and returns the node with the smallest priority.
func (h *MinHeap[V, P]) Pop() (Node[V, P], error) {
	const op = "container.MinHeap.Pop"

	var zero Node[V, P]
	if err := h.buf.Token().Primary().CheckWrite(); err != nil {
		return zero, wrap(op, err)
	}
	if h.size == 0 {
		return zero, jobmem.Errorf(op, jobmem.HeapEmpty, nil)
	}

	nodes := h.buf.Slice()
	root := nodes[0]
	h.size--
	nodes[0] = nodes[h.size]
	h.down(nodes, 0)
	return root, nil
}

// Peek returns the node with the smallest priority without removing it.
func (h *MinHeap[V, P]) Peek() (Node[V, P], error) {
	const op = "container.MinHeap.Peek"

	var zero Node[V, P]
	if err := h.buf.Token().Primary().CheckRead(); err != nil {
		return zero, wrap(op, err)
	}
	if h.size == 0 {
		return zero, jobmem.Errorf(op, jobmem.HeapEmpty, nil)
	}
	return h.buf.Slice()[0], nil
}

// Clear removes all nodes. Buffer contents are left untouched.
func (h *MinHeap[V, P]) Clear() error {
	if err := h.buf.Token().Primary().CheckWrite(); err != nil {
		return wrap("container.MinHeap.Clear", err)
	}
	h.size = 0
	return nil
}

// At returns the node stored at heap index i. Indices are not stable across
// Push and Pop.
func (h *MinHeap[V, P]) At(i int) (Node[V, P], error) {
	const op = "container.MinHeap.At"

	var zero Node[V, P]
	if err := checkIndex(op, i, 0, h.size-1, h.buf.Capacity()); err != nil {
		return zero, err
	}
	if err := h.buf.Token().Primary().CheckRead(); err != nil {
		return zero, wrap(op, err)
	}
	return h.buf.Slice()[i], nil
}

// SetAt overwrites the node at heap index i. The heap order is not restored.
func (h *MinHeap[V, P]) SetAt(i int, n Node[V, P]) error {
	const op = "container.MinHeap.SetAt"

	if err := checkIndex(op, i, 0, h.size-1, h.buf.Capacity()); err != nil {
		return err
	}
	if err := h.buf.Token().Primary().CheckWrite(); err != nil {
		return wrap(op, err)
	}
	h.buf.Slice()[i] = n
	return nil
}

// Dispose frees h.
func (h *MinHeap[V, P]) Dispose() error { return h.buf.Release() }

// DisposeAfter retires h and frees it once deps have completed.
func (h *MinHeap[V, P]) DisposeAfter(deps ...job.Handle) (job.Handle, error) {
	return h.buf.ReleaseAfter(deps...)
}

func (h *MinHeap[V, P]) up(nodes []Node[V, P], i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(nodes[i].Priority, nodes[parent].Priority) {
			break
		}
		nodes[i], nodes[parent] = nodes[parent], nodes[i]
		i = parent
	}
}

func (h *MinHeap[V, P]) down(nodes []Node[V, P], i int) {
	n := h.size
	for {
		left := 2*i + 1
		if left >= n {
			return
		}
		smallest := left
		if right := left + 1; right < n && h.less(nodes[right].Priority, nodes[left].Priority) {
			smallest = right
		}
		if !h.less(nodes[smallest].Priority, nodes[i].Priority) {
			return
		}
		nodes[i], nodes[smallest] = nodes[smallest], nodes[i]
		i = smallest
	}
}
