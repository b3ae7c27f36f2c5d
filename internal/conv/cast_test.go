package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInt64ToInt(t *testing.T) {
	got, ok := Int64ToInt(123)
	assert.True(t, ok)
	assert.Equal(t, 123, got)

	_, ok = Int64ToInt(-1)
	assert.False(t, ok)

	if math.MaxInt < math.MaxInt64 {
		_, ok = Int64ToInt(math.MaxInt64)
		assert.False(t, ok)
	}
}

func TestMulInt64(t *testing.T) {
	tests := []struct {
		name string
		a, b int64
		want int64
		ok   bool
	}{
		{"zero", 0, math.MaxInt64, 0, true},
		{"small", 1000, 8, 8000, true},
		{"max", math.MaxInt64, 1, math.MaxInt64, true},
		{"overflow", math.MaxInt64/2 + 1, 2, 0, false},
		{"negative", -1, 2, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MulInt64(tt.a, tt.b)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
