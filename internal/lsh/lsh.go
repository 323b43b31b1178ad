// Package lsh implements signed random-projection hashing (SimHash) for
// approximate nearest-neighbor candidate generation.
//
// The index keeps L independent hash tables. Each table owns a fixed bank of
// B random hyperplanes; a vector's bucket key in that table is the B-bit sign
// pattern of its dot products against the bank. The union of the L buckets a
// query falls into is, with high probability, a superset of its true nearest
// neighbors while being much smaller than the full corpus. Increasing L or
// decreasing B raises recall at the cost of larger candidate sets.
package lsh

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Defaults for the table/bit configuration.
const (
	DefaultTables = 16
	DefaultBits   = 12
)

// Hyperplanes are generated with a per-table linear-congruential generator so
// that identical (dim, tables, bits) configurations always produce identical
// bucket assignments, across restarts and across implementations. No entropy
// source is involved.
const (
	lcgMultiplier = 6364136223846793005
	lcgIncrement  = 1442695040888963407

	// tableSeedStride separates the per-table seed streams.
	tableSeedStride = 0x9E3779B97F4A7C15
)

// Index is a bank of L hash tables mapping bucket keys to slot sets.
//
// Not safe for concurrent use; the owning store serializes access.
type Index struct {
	tables int
	bits   int
	dim    int

	// planes[t] holds table t's hyperplane bank, bits contiguous rows of
	// dim floats each.
	planes [][]float32

	// buckets[t] maps a table-local bucket key to the set of member slots.
	// Keys with empty member sets are removed outright.
	buckets []map[uint32]*roaring.Bitmap
}

// New creates an Index for vectors of the given dimension.
// tables and bits fall back to the defaults when non-positive; bits is
// clamped to 32, the width of a bucket key.
func New(dim, tables, bits int) *Index {
	if tables <= 0 {
		tables = DefaultTables
	}
	if bits <= 0 {
		bits = DefaultBits
	}
	if bits > 32 {
		bits = 32
	}

	idx := &Index{
		tables:  tables,
		bits:    bits,
		dim:     dim,
		planes:  make([][]float32, tables),
		buckets: make([]map[uint32]*roaring.Bitmap, tables),
	}
	for t := 0; t < tables; t++ {
		idx.planes[t] = generatePlanes(t, bits, dim)
		idx.buckets[t] = make(map[uint32]*roaring.Bitmap)
	}
	return idx
}

// generatePlanes fills table t's hyperplane bank with deterministic
// pseudo-random values in (-1, 1).
func generatePlanes(t, bits, dim int) []float32 {
	state := uint64(t)*tableSeedStride + 1

	planes := make([]float32, bits*dim)
	for i := range planes {
		state = state*lcgMultiplier + lcgIncrement
		// Top 53 bits -> [0,1) -> (-1,1).
		f := float64(state>>11) / (1 << 53)
		planes[i] = float32(2*f - 1)
	}
	return planes
}

// Tables returns the number of hash tables (L).
func (idx *Index) Tables() int { return idx.tables }

// Bits returns the bucket key width per table (B).
func (idx *Index) Bits() int { return idx.bits }

// Hash computes the bucket key of v in every table.
// Bit b of a key is set when the dot product against hyperplane b is >= 0.
// The result has length Tables().
func (idx *Index) Hash(v []float32) []uint32 {
	keys := make([]uint32, idx.tables)
	for t := 0; t < idx.tables; t++ {
		planes := idx.planes[t]

		var key uint32
		for b := 0; b < idx.bits; b++ {
			row := planes[b*idx.dim : (b+1)*idx.dim]

			var dot float32
			for i, x := range v {
				dot += x * row[i]
			}
			if dot >= 0 {
				key |= 1 << uint(b)
			}
		}
		keys[t] = key
	}
	return keys
}

// Add inserts slot into the bucket identified by keys[t] in every table t.
// keys must come from Hash on the slot's current vector.
func (idx *Index) Add(slot uint32, keys []uint32) {
	for t, key := range keys {
		bucket := idx.buckets[t][key]
		if bucket == nil {
			bucket = roaring.New()
			idx.buckets[t][key] = bucket
		}
		bucket.Add(slot)
	}
}

// Remove deletes slot from the bucket identified by keys[t] in every table t.
// Buckets left empty are dropped to keep memory bounded.
func (idx *Index) Remove(slot uint32, keys []uint32) {
	for t, key := range keys {
		bucket := idx.buckets[t][key]
		if bucket == nil {
			continue
		}
		bucket.Remove(slot)
		if bucket.IsEmpty() {
			delete(idx.buckets[t], key)
		}
	}
}

// Candidates returns the union of the bucket member sets keys selects across
// all tables. The result may be empty; callers fall back to a full scan then.
func (idx *Index) Candidates(keys []uint32) *roaring.Bitmap {
	members := make([]*roaring.Bitmap, 0, len(keys))
	for t, key := range keys {
		if bucket := idx.buckets[t][key]; bucket != nil {
			members = append(members, bucket)
		}
	}
	if len(members) == 0 {
		return roaring.New()
	}
	return roaring.FastOr(members...)
}

// Reset drops every bucket in every table. The hyperplane banks are kept:
// they depend only on the construction parameters.
func (idx *Index) Reset() {
	for t := range idx.buckets {
		idx.buckets[t] = make(map[uint32]*roaring.Bitmap)
	}
}

// Stats describes the current bucket population.
type Stats struct {
	Tables        int
	Bits          int
	Buckets       int     // non-empty buckets across all tables
	MaxBucketSize uint64  // largest member set
	AvgBucketSize float64 // mean member set size
}

// CollectStats gathers bucket statistics across all tables.
func (idx *Index) CollectStats() Stats {
	s := Stats{Tables: idx.tables, Bits: idx.bits}

	var total uint64
	for t := range idx.buckets {
		s.Buckets += len(idx.buckets[t])
		for _, bucket := range idx.buckets[t] {
			n := bucket.GetCardinality()
			total += n
			if n > s.MaxBucketSize {
				s.MaxBucketSize = n
			}
		}
	}
	if s.Buckets > 0 {
		s.AvgBucketSize = float64(total) / float64(s.Buckets)
	}
	return s
}
