package arena

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/jobmem/internal/mem"
)

type countingSource struct {
	mu   sync.Mutex
	pool *mem.Pool
	gets int
	puts int
}

func (s *countingSource) Get(size int) ([]byte, bool) {
	s.mu.Lock()
	s.gets++
	s.mu.Unlock()
	return s.pool.Get(size)
}

func (s *countingSource) Put(b []byte) {
	s.mu.Lock()
	s.puts++
	s.mu.Unlock()
	s.pool.Put(b)
}

func newSource() *countingSource {
	return &countingSource{pool: mem.NewPool()}
}

func TestArena_New(t *testing.T) {
	a, err := New(newSource())
	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSize, a.chunkSize)
	assert.Equal(t, DefaultAlignment, a.alignment)
	assert.Zero(t, a.Stats().ActiveChunks)

	_, err = New(newSource(), WithAlignment(3))
	require.ErrorIs(t, err, ErrInvalidAlignment)
}

func TestArena_Alloc(t *testing.T) {
	src := newSource()
	a, err := New(src, WithChunkSize(1024))
	require.NoError(t, err)

	b1, _, err := a.Alloc(100)
	require.NoError(t, err)
	b2, _, err := a.Alloc(10)
	require.NoError(t, err)

	assert.Len(t, b1, 100)
	assert.Len(t, b2, 10)
	assert.Zero(t, uintptr(unsafe.Pointer(&b1[0]))%DefaultAlignment)
	assert.Zero(t, uintptr(unsafe.Pointer(&b2[0]))%DefaultAlignment)
	assert.Equal(t, 1, src.gets)

	stats := a.Stats()
	assert.Equal(t, uint64(110), stats.BytesUsed)
	assert.Equal(t, uint64(28), stats.BytesWasted)
	assert.Equal(t, uint64(2), stats.TotalAllocs)

	// Writes to one allocation do not spill into the next.
	for i := range b1 {
		b1[i] = 0xff
	}
	assert.Equal(t, make([]byte, 10), b2)
}

func TestArena_AllocSizes(t *testing.T) {
	src := newSource()
	a, err := New(src, WithChunkSize(256))
	require.NoError(t, err)

	b, _, err := a.Alloc(0)
	require.NoError(t, err)
	assert.Nil(t, b)

	_, _, err = a.Alloc(-1)
	require.ErrorIs(t, err, ErrInvalidSize)

	big, _, err := a.Alloc(1000)
	require.NoError(t, err)
	assert.Len(t, big, 1000)

	for range 10 {
		_, _, err := a.Alloc(200)
		require.NoError(t, err)
	}
	assert.Equal(t, uint64(11), a.Stats().ActiveChunks)

	a.Reset()
	assert.Equal(t, src.gets, src.puts)
	assert.Zero(t, a.Stats().ActiveChunks)
	assert.Zero(t, a.Stats().BytesReserved)
}

func TestArena_Concurrent(t *testing.T) {
	a, err := New(newSource(), WithChunkSize(4096))
	require.NoError(t, err)

	const workers, perWorker = 8, 200
	results := make([][][]byte, workers)

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				b, _, err := a.Alloc(48)
				if err != nil {
					t.Error(err)
					return
				}
				for i := range b {
					b[i] = byte(w)
				}
				results[w] = append(results[w], b)
			}
		}()
	}
	wg.Wait()

	for w, bs := range results {
		require.Len(t, bs, perWorker)
		for _, b := range bs {
			for _, v := range b {
				require.Equal(t, byte(w), v)
			}
		}
	}
	assert.Equal(t, uint64(workers*perWorker), a.Stats().TotalAllocs)
	a.Reset()
}

func BenchmarkArena_Alloc(b *testing.B) {
	a, err := New(mem.NewPool())
	require.NoError(b, err)

	b.ReportAllocs()
	i := 0
	for b.Loop() {
		if _, _, err := a.Alloc(64); err != nil {
			b.Fatal(err)
		}
		if i++; i%1000 == 0 {
			a.Reset()
		}
	}
}
