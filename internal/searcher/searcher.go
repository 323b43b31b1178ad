// Package searcher scores candidate slots against a query vector and selects
// the k best matches.
package searcher

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/annexsearch/annex/distance"
	"github.com/annexsearch/annex/internal/arena"
	"github.com/annexsearch/annex/internal/queue"
)

// Candidate is one scored match.
type Candidate struct {
	Slot  uint32
	Score float32
}

// Select returns up to k candidates ordered by descending score, ties broken
// by ascending slot.
//
// candidates is the LSH bucket union for the query. When it is nil or empty
// the selector falls back to scanning every live slot: a sparse corpus or an
// adversarial query must never silently return nothing just because the hash
// tables missed.
//
// Both the stored vectors and the query are unit-normalized, so the score is
// a plain dot product (cosine similarity). Selection keeps a bounded min-heap
// of size k; a candidate evicts the current minimum only when its score
// strictly exceeds it. Candidates are visited in ascending slot order, which
// makes the outcome deterministic for equal scores.
func Select(a *arena.Arena, candidates *roaring.Bitmap, query []float32, k int) []Candidate {
	if k <= 0 || a.Len() == 0 {
		return nil
	}
	if k > a.Len() {
		k = a.Len()
	}

	top := queue.NewMin(k)

	consider := func(slot uint32, vec []float32) {
		score := distance.Dot(query, vec)
		if top.Len() < k {
			top.Push(queue.Item{Slot: slot, Score: score})
			return
		}
		if min, ok := top.Top(); ok && score > min.Score {
			top.Pop()
			top.Push(queue.Item{Slot: slot, Score: score})
		}
	}

	if candidates == nil || candidates.IsEmpty() {
		// Full-scan fallback.
		a.Iterate(func(slot uint32, vec []float32) bool {
			consider(slot, vec)
			return true
		})
	} else {
		// Roaring iteration is ascending by slot.
		candidates.Iterate(func(slot uint32) bool {
			if _, live := a.ID(slot); live {
				consider(slot, a.Read(slot))
			}
			return true
		})
	}

	results := make([]Candidate, 0, top.Len())
	for {
		item, ok := top.Pop()
		if !ok {
			break
		}
		results = append(results, Candidate{Slot: item.Slot, Score: item.Score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Slot < results[j].Slot
	})
	return results
}
