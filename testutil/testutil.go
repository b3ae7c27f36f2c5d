package testutil

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/hupe1980/jobmem/alloc"
)

// AssertNoLeaks registers a cleanup that fails t if p still tracks live
// buffers when the test ends.
func AssertNoLeaks(t testing.TB, p *alloc.Provider) {
	t.Helper()
	t.Cleanup(func() {
		if n := p.Outstanding(); n != 0 {
			t.Errorf("%d buffers outstanding at end of test: ids %v", n, p.Live())
		}
	})
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic test data
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns a pseudo-random number in [0,1).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// Priorities returns n values in [0, limit).
func (r *RNG) Priorities(n, limit int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int, n)
	for i := range out {
		out[i] = r.rand.Intn(limit)
	}
	return out
}

// Positions returns n xyz triples with components in [-extent, extent).
func (r *RNG) Positions(n int, extent float32) [][3]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([][3]float32, n)
	for i := range out {
		for j := range 3 {
			out[i][j] = (r.rand.Float32()*2 - 1) * extent
		}
	}
	return out
}

// Ops returns n booleans where true means push; pushRate is the probability of true.
func (r *RNG) Ops(n int, pushRate float64) []bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]bool, n)
	for i := range out {
		out[i] = r.rand.Float64() < pushRate
	}
	return out
}
