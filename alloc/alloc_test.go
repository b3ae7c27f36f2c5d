package alloc

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/jobmem"
	"github.com/hupe1980/jobmem/job"
	"github.com/hupe1980/jobmem/resource"
	"github.com/hupe1980/jobmem/token"
)

type vec3 struct{ X, Y, Z float32 }

func TestAllocate_Release(t *testing.T) {
	for _, scope := range []Scope{TaskScoped, Persistent} {
		t.Run(scope.String(), func(t *testing.T) {
			p := NewProvider()

			b, err := Allocate[int64](p, 100, scope)
			require.NoError(t, err)
			assert.Equal(t, 100, b.Capacity())
			assert.Equal(t, 8, b.ElemSize())
			assert.Equal(t, int64(800), b.Bytes())
			assert.Equal(t, scope, b.Scope())
			assert.Len(t, b.Slice(), 100)
			assert.Equal(t, uint64(1), p.Outstanding())
			assert.True(t, p.IsLive(b.ID()))

			for _, v := range b.Slice() {
				assert.Zero(t, v)
			}

			require.NoError(t, b.Release())
			assert.True(t, b.Released())
			assert.True(t, b.Freed())
			assert.Nil(t, b.Slice())
			assert.Zero(t, p.Outstanding())
			assert.Zero(t, p.Stats().LiveBytes)
		})
	}
}

func TestAllocate_Struct(t *testing.T) {
	p := NewProvider(WithOffHeapPersistent(false))

	b, err := Allocate[vec3](p, 4, Persistent)
	require.NoError(t, err)
	defer func() { require.NoError(t, b.Release()) }()

	b.Slice()[3] = vec3{1, 2, 3}
	assert.Equal(t, vec3{1, 2, 3}, b.Slice()[3])
	assert.Equal(t, 12, b.ElemSize())
}

func TestAllocate_ZeroCapacity(t *testing.T) {
	p := NewProvider()

	b, err := Allocate[float64](p, 0, TaskScoped)
	require.NoError(t, err)
	assert.Empty(t, b.Slice())
	require.NoError(t, b.Release())
}

func TestAllocate_Errors(t *testing.T) {
	p := NewProvider(WithMaxAllocationBytes(1024))

	tests := []struct {
		name string
		fn   func() error
		kind jobmem.Kind
	}{
		{"invalid scope", func() error { _, err := Allocate[int](p, 1, Invalid); return err }, jobmem.InvalidScope},
		{"unknown scope", func() error { _, err := Allocate[int](p, 1, Scope(42)); return err }, jobmem.InvalidScope},
		{"ephemeral without frame", func() error { _, err := Allocate[int](p, 1, Ephemeral); return err }, jobmem.InvalidScope},
		{"negative capacity", func() error { _, err := Allocate[int](p, -1, Persistent); return err }, jobmem.InvalidCapacity},
		{"over limit", func() error { _, err := Allocate[int64](p, 129, Persistent); return err }, jobmem.CapacityOverflow},
		{"overflow", func() error { _, err := Allocate[[1 << 20]byte](p, 1<<50, Persistent); return err }, jobmem.CapacityOverflow},
		{"pointer element", func() error { _, err := Allocate[*int](p, 1, Persistent); return err }, jobmem.InvalidElementType},
		{"string element", func() error { _, err := Allocate[string](p, 1, Persistent); return err }, jobmem.InvalidElementType},
		{"slice field", func() error {
			_, err := Allocate[struct{ S []int }](p, 1, Persistent)
			return err
		}, jobmem.InvalidElementType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			require.Error(t, err)
			assert.ErrorIs(t, err, jobmem.ErrAllocation)
			k, ok := jobmem.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, k)
		})
	}

	assert.Zero(t, p.Outstanding())
}

func TestAllocate_Uninitialized(t *testing.T) {
	p := NewProvider()

	b, err := Allocate[byte](p, 256, TaskScoped, Uninitialized())
	require.NoError(t, err)
	assert.Len(t, b.Slice(), 256)
	require.NoError(t, b.Release())
}

func TestAllocate_PooledBlocksAreCleared(t *testing.T) {
	p := NewProvider()

	b, err := Allocate[byte](p, 128, TaskScoped)
	require.NoError(t, err)
	for i := range b.Slice() {
		b.Slice()[i] = 0xff
	}
	require.NoError(t, b.Release())

	for range 4 {
		b, err = Allocate[byte](p, 128, TaskScoped)
		require.NoError(t, err)
		for _, v := range b.Slice() {
			require.Zero(t, v)
		}
		require.NoError(t, b.Release())
	}
}

func TestRelease_Double(t *testing.T) {
	p := NewProvider()

	a, err := Allocate[int32](p, 8, Persistent)
	require.NoError(t, err)
	b, err := Allocate[int32](p, 8, Persistent)
	require.NoError(t, err)
	b.Slice()[0] = 7

	require.NoError(t, a.Release())
	err = a.Release()
	require.ErrorIs(t, err, jobmem.ErrDoubleRelease)
	assert.ErrorIs(t, err, jobmem.ErrLifecycle)

	assert.Equal(t, uint64(1), p.Outstanding())
	assert.True(t, p.IsLive(b.ID()))
	assert.Equal(t, int32(7), b.Slice()[0])
	require.NoError(t, b.Release())
	assert.Zero(t, p.Outstanding())
}

func TestRelease_StillInUse(t *testing.T) {
	p := NewProvider()

	b, err := Allocate[int32](p, 8, TaskScoped)
	require.NoError(t, err)

	h, err := b.Token().BeginShared(token.ReadOnly)
	require.NoError(t, err)

	require.ErrorIs(t, b.Release(), jobmem.ErrStillInUse)
	assert.False(t, b.Released())

	require.NoError(t, b.Token().EndShared(h))
	require.NoError(t, b.Release())
}

func TestReleaseAfter(t *testing.T) {
	mc := &jobmem.BasicMetricsCollector{}
	p := NewProvider(WithMetricsCollector(mc))

	b, err := Allocate[float32](p, 64, TaskScoped)
	require.NoError(t, err)

	h1, done1 := job.Func()
	h2, done2 := job.Func()

	rh, err := b.ReleaseAfter(h1, h2)
	require.NoError(t, err)
	assert.True(t, b.Released())
	assert.False(t, b.Freed())

	_, err = b.Token().BeginShared(token.ReadOnly)
	require.ErrorIs(t, err, jobmem.ErrUseAfterRelease)

	done1(nil)
	assert.False(t, rh.IsCompleted())
	assert.Equal(t, uint64(1), p.Outstanding())

	done2(nil)
	require.NoError(t, rh.Wait(t.Context()))
	assert.True(t, b.Freed())
	assert.Zero(t, p.Outstanding())
	assert.Equal(t, int64(1), mc.GetStats().DeferredReleases)

	_, err = b.ReleaseAfter()
	require.ErrorIs(t, err, jobmem.ErrDoubleRelease)
	require.ErrorIs(t, b.Release(), jobmem.ErrDoubleRelease)
}

func TestReleaseAfter_SharedHandlesSurviveUntilFree(t *testing.T) {
	p := NewProvider()

	b, err := Allocate[int32](p, 16, Persistent)
	require.NoError(t, err)
	s, err := b.Token().BeginShared(token.ReadWrite)
	require.NoError(t, err)

	dep, done := job.Func()
	rh, err := b.ReleaseAfter(dep)
	require.NoError(t, err)

	assert.True(t, s.Valid())
	assert.False(t, b.Token().Primary().Valid())
	b.Slice()[3] = 7

	done(nil)
	require.NoError(t, rh.Wait(t.Context()))
	assert.False(t, s.Valid())
	assert.Nil(t, b.Slice())
	assert.Zero(t, p.Outstanding())
}

func TestReleaseAfter_NoDeps(t *testing.T) {
	p := NewProvider()

	b, err := Allocate[int](p, 3, Persistent)
	require.NoError(t, err)

	h, err := b.ReleaseAfter()
	require.NoError(t, err)
	require.NoError(t, h.Complete())
	assert.Zero(t, p.Outstanding())
}

func TestMemoryLimit(t *testing.T) {
	ctrl := resource.NewController(resource.Config{MemoryLimitBytes: 1024})
	p := NewProvider(WithController(ctrl))

	a, err := Allocate[byte](p, 1000, TaskScoped)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), ctrl.MemoryUsage())

	_, err = Allocate[byte](p, 100, TaskScoped)
	require.ErrorIs(t, err, jobmem.ErrMemoryLimitExceeded)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)

	require.NoError(t, a.Release())
	assert.Zero(t, ctrl.MemoryUsage())

	b, err := Allocate[byte](p, 100, TaskScoped)
	require.NoError(t, err)
	require.NoError(t, b.Release())
}

func TestFrame(t *testing.T) {
	p := NewProvider()
	f := p.BeginFrame()

	a, err := AllocateIn[int](f, 10, Uninitialized())
	require.NoError(t, err)
	b, err := AllocateIn[vec3](f, 10)
	require.NoError(t, err)
	assert.Equal(t, Ephemeral, a.Scope())
	assert.Equal(t, uint64(2), p.Outstanding())

	require.ErrorIs(t, a.Release(), jobmem.ErrInvalidScope)
	_, err = b.ReleaseAfter()
	require.ErrorIs(t, err, jobmem.ErrInvalidScope)

	stats := f.Stats()
	assert.Equal(t, uint64(1), stats.Chunks)
	assert.Equal(t, uint64(80+120), stats.BytesUsed)

	require.NoError(t, f.End())
	assert.Zero(t, p.Outstanding())
	assert.Zero(t, f.Stats().Chunks)
	assert.True(t, a.Released())
	assert.True(t, b.Freed())

	_, err = AllocateIn[int](f, 1)
	require.ErrorIs(t, err, jobmem.ErrInvalidScope)
	require.ErrorIs(t, f.End(), jobmem.ErrDoubleRelease)
}

func TestFrame_LargeAndCleared(t *testing.T) {
	p := NewProvider(WithFrameChunkSize(256))

	for range 3 {
		err := p.WithFrame(func(f *Frame) error {
			small, err := AllocateIn[byte](f, 200)
			if err != nil {
				return err
			}
			large, err := AllocateIn[int64](f, 100)
			if err != nil {
				return err
			}
			for _, v := range small.Slice() {
				require.Zero(t, v)
			}
			for _, v := range large.Slice() {
				require.Zero(t, v)
			}
			for i := range small.Slice() {
				small.Slice()[i] = 0xff
			}
			for i := range large.Slice() {
				large.Slice()[i] = -1
			}
			assert.Equal(t, uint64(2), f.Stats().Chunks)
			return nil
		})
		require.NoError(t, err)
	}
	assert.Zero(t, p.Outstanding())
}

func TestWithFrame(t *testing.T) {
	p := NewProvider()

	err := p.WithFrame(func(f *Frame) error {
		b, err := AllocateIn[int](f, 5)
		if err != nil {
			return err
		}
		b.Slice()[4] = 1
		assert.Equal(t, uint64(1), p.Outstanding())
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, p.Outstanding())
}

func TestMetrics(t *testing.T) {
	mc := &jobmem.BasicMetricsCollector{}
	p := NewProvider(WithMetricsCollector(mc), WithLogger(nil))

	b, err := Allocate[int64](p, 4, Persistent)
	require.NoError(t, err)
	_, err = Allocate[int64](p, -1, Persistent)
	require.Error(t, err)
	require.NoError(t, b.Release())

	stats := mc.GetStats()
	assert.Equal(t, int64(2), stats.AllocateCount)
	assert.Equal(t, int64(1), stats.AllocateErrors)
	assert.Equal(t, int64(32), stats.AllocatedBytes)
	assert.Equal(t, int64(1), stats.ReleaseCount)
	assert.Equal(t, int64(32), stats.ReleasedBytes)

	ps := p.Stats()
	assert.Equal(t, uint64(1), ps.Allocated)
	assert.Equal(t, uint64(1), ps.Released)
}

func leak(p *Provider) uint64 {
	b, err := Allocate[int64](p, 16, TaskScoped)
	if err != nil {
		panic(err)
	}
	return b.ID()
}

func TestLeakDetection(t *testing.T) {
	mc := &jobmem.BasicMetricsCollector{}
	p := NewProvider(WithMetricsCollector(mc))

	id := leak(p)
	assert.True(t, p.IsLive(id))

	require.Eventually(t, func() bool {
		runtime.GC()
		return p.Stats().Leaked == 1
	}, 5*time.Second, 10*time.Millisecond)

	assert.False(t, p.IsLive(id))
	assert.Zero(t, p.Outstanding())
	assert.Equal(t, int64(1), mc.GetStats().LeakCount)
}

func TestScope_String(t *testing.T) {
	assert.Equal(t, "ephemeral", Ephemeral.String())
	assert.Equal(t, "task-scoped", TaskScoped.String())
	assert.Equal(t, "persistent", Persistent.String())
	assert.Equal(t, "invalid", Invalid.String())
	assert.False(t, Ephemeral.ManualRelease())
	assert.True(t, Persistent.ManualRelease())
}

func BenchmarkAllocateRelease(b *testing.B) {
	p := NewProvider()
	for b.Loop() {
		buf, err := Allocate[float32](p, 1024, TaskScoped)
		if err != nil {
			b.Fatal(err)
		}
		_ = buf.Release()
	}
}
