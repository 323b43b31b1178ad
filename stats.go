package annex

// Stats is a point-in-time view of store shape and LSH bucket population.
type Stats struct {
	Dimension int
	Vectors   int // live, vector-indexed documents
	Documents int // all known documents
	Capacity  int // current slot capacity of the buffer

	Tables        int
	Bits          int
	Buckets       int     // non-empty buckets across all tables
	MaxBucketSize uint64  // largest bucket member set
	AvgBucketSize float64 // mean bucket member set size
}

// Stats returns current statistics. Useful for tuning tables/bits: a high
// average bucket size means candidate sets approach full scans, a high
// bucket count with tiny buckets means recall is suffering.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ls := s.index.CollectStats()
	return Stats{
		Dimension:     s.vectors.Dimension(),
		Vectors:       s.vectors.Len(),
		Documents:     len(s.docs),
		Capacity:      s.vectors.Capacity(),
		Tables:        ls.Tables,
		Bits:          ls.Bits,
		Buckets:       ls.Buckets,
		MaxBucketSize: ls.MaxBucketSize,
		AvgBucketSize: ls.AvgBucketSize,
	}
}
