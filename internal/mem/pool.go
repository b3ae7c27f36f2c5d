package mem

import (
	"math/bits"
	"sync"
)

const (
	minPoolShift = 6  // 64 B
	maxPoolShift = 20 // 1 MiB
)

// Pool recycles aligned byte blocks in power-of-two size classes.
// Blocks larger than the largest class are not pooled.
type Pool struct {
	classes [maxPoolShift - minPoolShift + 1]sync.Pool
}

// NewPool creates an empty Pool.
func NewPool() *Pool {
	return &Pool{}
}

func classOf(size int) (int, bool) {
	shift := max(bits.Len(uint(size-1)), minPoolShift)
	if shift > maxPoolShift {
		return 0, false
	}
	return shift - minPoolShift, true
}

// Get returns an aligned block of length size. reused reports whether the
// block came from the pool, in which case its contents are unspecified.
func (p *Pool) Get(size int) (b []byte, reused bool) {
	if size <= 0 {
		return nil, false
	}
	c, ok := classOf(size)
	if !ok {
		return AllocAligned(size), false
	}
	if v := p.classes[c].Get(); v != nil {
		block := *(v.(*[]byte))
		return block[:size], true
	}
	block := AllocAligned(1 << (c + minPoolShift))
	return block[:size], false
}

// Put returns b to the pool. b must have been obtained from Get.
func (p *Pool) Put(b []byte) {
	if cap(b) == 0 {
		return
	}
	c, ok := classOf(cap(b))
	if !ok || cap(b) != 1<<(c+minPoolShift) {
		return
	}
	b = b[:cap(b)]
	p.classes[c].Put(&b)
}
