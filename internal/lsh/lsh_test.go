package lsh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDeterminism(t *testing.T) {
	a := New(8, 4, 6)
	b := New(8, 4, 6)

	v := []float32{0.1, -0.2, 0.3, -0.4, 0.5, -0.6, 0.7, -0.8}
	assert.Equal(t, a.Hash(v), b.Hash(v), "identical construction parameters must yield identical keys")

	// And stable across repeated calls.
	assert.Equal(t, a.Hash(v), a.Hash(v))
}

func TestHashKeyWidth(t *testing.T) {
	idx := New(4, 3, 5)
	keys := idx.Hash([]float32{1, 2, 3, 4})
	require.Len(t, keys, 3)
	for _, key := range keys {
		assert.Less(t, key, uint32(1)<<5, "key must fit in B bits")
	}
}

func TestNewClampsConfig(t *testing.T) {
	t.Run("non-positive parameters fall back to defaults", func(t *testing.T) {
		idx := New(4, 0, -1)
		assert.Equal(t, DefaultTables, idx.Tables())
		assert.Equal(t, DefaultBits, idx.Bits())
	})

	t.Run("bits clamped to key width", func(t *testing.T) {
		idx := New(4, 2, 40)
		assert.Equal(t, 32, idx.Bits())

		// Keys must still discriminate: shift counts past the key width
		// would zero every bit and merge all buckets.
		a := idx.Hash([]float32{1, 1, 1, 1})
		b := idx.Hash([]float32{-1, -1, -1, -1})
		assert.NotEqual(t, a, b)
	})
}

func TestIdenticalVectorsCollide(t *testing.T) {
	idx := New(4, 8, 10)
	v := []float32{0.5, -0.5, 0.25, 1}
	assert.Equal(t, idx.Hash(v), idx.Hash(v))

	// A vector and its scaled copy share all sign patterns.
	scaled := []float32{1, -1, 0.5, 2}
	assert.Equal(t, idx.Hash(v), idx.Hash(scaled))
}

func TestAddRemoveCandidates(t *testing.T) {
	idx := New(4, 4, 8)

	v1 := []float32{1, 0, 0, 0}
	v2 := []float32{0.9, 0.1, 0, 0}
	k1 := idx.Hash(v1)
	k2 := idx.Hash(v2)

	idx.Add(1, k1)
	idx.Add(2, k2)

	cands := idx.Candidates(k1)
	assert.True(t, cands.Contains(1), "a slot must be found in its own buckets")

	idx.Remove(1, k1)
	cands = idx.Candidates(k1)
	assert.False(t, cands.Contains(1))
}

func TestEmptyBucketsDropped(t *testing.T) {
	idx := New(2, 3, 4)
	keys := idx.Hash([]float32{1, 1})

	idx.Add(7, keys)
	require.Equal(t, 3, idx.CollectStats().Buckets)

	idx.Remove(7, keys)
	assert.Equal(t, 0, idx.CollectStats().Buckets, "empty buckets must be removed from the map")
}

func TestCandidatesEmptyUnion(t *testing.T) {
	idx := New(2, 3, 4)
	cands := idx.Candidates(idx.Hash([]float32{1, 0}))
	assert.True(t, cands.IsEmpty())
}

func TestResetKeepsHashAssignments(t *testing.T) {
	idx := New(4, 4, 8)
	v := []float32{0.3, -0.7, 0.2, 0.6}
	before := idx.Hash(v)

	idx.Add(1, before)
	idx.Reset()

	assert.True(t, idx.Candidates(before).IsEmpty())
	assert.Equal(t, before, idx.Hash(v), "hyperplanes survive Reset")
}

func TestCollectStats(t *testing.T) {
	idx := New(4, 2, 6)
	v := []float32{1, 0, 0, 0}
	keys := idx.Hash(v)

	idx.Add(1, keys)
	idx.Add(2, keys)

	s := idx.CollectStats()
	assert.Equal(t, 2, s.Tables)
	assert.Equal(t, 6, s.Bits)
	assert.Equal(t, 2, s.Buckets)
	assert.Equal(t, uint64(2), s.MaxBucketSize)
	assert.Equal(t, 2.0, s.AvgBucketSize)
}
