package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "parallel", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 14},
		{name: "negative", a: []float32{1, -1}, b: []float32{1, 1}, want: 0},
		{name: "empty", a: nil, b: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Dot(tt.a, tt.b))
		})
	}
}

func TestNormalizeL2InPlace(t *testing.T) {
	t.Run("NonZero", func(t *testing.T) {
		v := []float32{3, 4}
		ok := NormalizeL2InPlace(v)
		require.True(t, ok)
		assert.InDelta(t, 0.6, v[0], 1e-6)
		assert.InDelta(t, 0.8, v[1], 1e-6)
		assert.InDelta(t, 1.0, Norm(v), 1e-5)
	})

	t.Run("ZeroVectorUnchanged", func(t *testing.T) {
		v := []float32{0, 0, 0}
		ok := NormalizeL2InPlace(v)
		require.False(t, ok)
		assert.Equal(t, []float32{0, 0, 0}, v)
	})

	t.Run("UnitNormInvariant", func(t *testing.T) {
		vectors := [][]float32{
			{1, 0, 0, 0},
			{0.7, 0.7, 0, 0},
			{-1, 2, -3, 4},
			{1e-3, 1e-3, 1e-3, 1e-3},
		}
		for _, v := range vectors {
			norm, ok := NormalizeL2Copy(v)
			require.True(t, ok)
			assert.InDelta(t, 1.0, Norm(norm), 1e-5)
		}
	})
}

func TestNormalizeL2Copy(t *testing.T) {
	src := []float32{3, 4}
	dst, ok := NormalizeL2Copy(src)
	require.True(t, ok)
	assert.Equal(t, []float32{3, 4}, src, "source must not be mutated")
	assert.InDelta(t, 1.0, float64(Dot(dst, dst)), 1e-6)

	zero, ok := NormalizeL2Copy([]float32{0, 0})
	require.False(t, ok)
	assert.Equal(t, []float32{0, 0}, zero)
	assert.True(t, math.Sqrt(float64(Dot(zero, zero))) == 0)
}
