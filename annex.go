// Package annex provides an embedded, in-memory vector similarity index.
//
// Annex stores unit-normalized embedding vectors in a flat, contiguous
// buffer and indexes them with signed random-projection LSH (SimHash) for
// sub-linear candidate retrieval. Exact cosine scoring over the candidate
// set produces the final top-k ranking, falling back to a full scan whenever
// the hash tables yield fewer candidates than requested.
//
// The layout was built for semantic schema matching: natural-language
// requests are matched against a few hundred to a few hundred thousand field
// descriptions without calling out to a model per field. It works just as
// well as a small general-purpose similarity store.
//
// # Quick start
//
//	ctx := context.Background()
//	store, err := annex.New(1536)
//	if err != nil {
//		panic(err)
//	}
//
//	ids, err := store.AddVectors(ctx, vectors,
//		annex.WithIDs([]string{"account.name", "account.revenue"}),
//		annex.WithDocuments([]annex.Document{
//			{Text: "The display name of the account"},
//			{Text: "Annual revenue in USD"},
//		}),
//	)
//
//	results, err := store.SimilaritySearchVectorWithScore(ctx, query, 5)
//
// Hash assignments are fully deterministic for a given (dimension, tables,
// bits) configuration, so results are reproducible across restarts without
// persisting the hyperplanes.
package annex

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/annexsearch/annex/internal/arena"
	"github.com/annexsearch/annex/internal/lsh"
	"github.com/annexsearch/annex/internal/searcher"
)

// Store is an in-memory vector similarity index with LSH candidate
// retrieval.
//
// All methods are safe for concurrent use; a single RWMutex serializes
// writers while readers share.
type Store struct {
	mu      sync.RWMutex
	opts    Options
	vectors *arena.Arena
	index   *lsh.Index
	docs    map[string]Document // every known document, vector-indexed or not
}

// New creates a Store for vectors of the given dimension.
func New(dimension int, optFns ...Option) (*Store, error) {
	if dimension <= 0 {
		return nil, &ErrInvalidDimension{Dimension: dimension}
	}

	opts := applyOptions(optFns)

	return &Store{
		opts:    opts,
		vectors: arena.New(dimension, opts.InitialCapacity),
		index:   lsh.New(dimension, opts.Tables, opts.Bits),
		docs:    make(map[string]Document),
	}, nil
}

// Dimension returns the configured vector dimensionality.
func (s *Store) Dimension() int {
	return s.vectors.Dimension()
}

// Len returns the number of vector-indexed documents.
// Metadata-only documents are not counted; see DocumentCount.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vectors.Len()
}

// DocumentCount returns the number of known documents, including
// metadata-only ones that are invisible to similarity search.
func (s *Store) DocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// AddOption configures a single AddVectors call.
type AddOption func(o *addOptions)

type addOptions struct {
	ids  []string
	docs []Document
}

// WithIDs supplies explicit ids for the batch, parallel to the vectors.
// Without it ids are auto-generated (UUIDv4).
func WithIDs(ids []string) AddOption {
	return func(o *addOptions) {
		o.ids = ids
	}
}

// WithDocuments supplies document payloads for the batch, parallel to the
// vectors. Document IDs are overwritten with the effective batch ids.
func WithDocuments(docs []Document) AddOption {
	return func(o *addOptions) {
		o.docs = docs
	}
}

// AddVectors inserts a batch of vectors and returns their ids.
//
// The whole batch is validated before any mutation: empty input, dimension
// mismatches, and duplicate ids (against the store and within the batch) all
// reject the call with nothing inserted.
func (s *Store) AddVectors(ctx context.Context, vectors [][]float32, optFns ...AddOption) ([]string, error) {
	start := time.Now()

	ids, err := s.addVectors(ctx, vectors, optFns...)

	s.opts.Metrics.RecordAdd(len(vectors), time.Since(start), err)
	s.opts.Logger.LogAdd(ctx, len(vectors), err)
	return ids, err
}

func (s *Store) addVectors(ctx context.Context, vectors [][]float32, optFns ...AddOption) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, ErrEmptyBatch
	}

	var ao addOptions
	for _, fn := range optFns {
		fn(&ao)
	}

	if ao.ids != nil && len(ao.ids) != len(vectors) {
		return nil, &ErrLengthMismatch{Want: len(vectors), Got: len(ao.ids)}
	}
	if ao.docs != nil && len(ao.docs) != len(vectors) {
		return nil, &ErrLengthMismatch{Want: len(vectors), Got: len(ao.docs)}
	}

	ids := make([]string, len(vectors))
	for i := range vectors {
		switch {
		case ao.ids != nil:
			ids[i] = ao.ids[i]
		case ao.docs != nil && ao.docs[i].ID != "":
			ids[i] = ao.docs[i].ID
		default:
			ids[i] = uuid.NewString()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return ids, s.insertLocked(ids, vectors, ao.docs)
}

// insertLocked applies the batch. Validation happens up front so that a
// failure leaves the store untouched.
func (s *Store) insertLocked(ids []string, vectors [][]float32, docs []Document) error {
	// Normalize first: this is also where dimension mismatches surface.
	normed := make([][]float32, len(vectors))
	for i, v := range vectors {
		n, err := s.vectors.Normalize(v)
		if err != nil {
			return translateError(err)
		}
		normed[i] = n
	}

	// Duplicate pre-pass over the whole batch, against the store and
	// against the batch itself. Only vector-indexed ids count as taken:
	// supplying a vector for a metadata-only document upgrades it into
	// the searchable set.
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if s.vectors.Has(id) {
			return &ErrDuplicateID{ID: id}
		}
		if _, ok := seen[id]; ok {
			return &ErrDuplicateID{ID: id}
		}
		seen[id] = struct{}{}
	}

	for i, id := range ids {
		slot := s.vectors.Allocate(id)
		s.vectors.Write(slot, normed[i])
		s.index.Add(slot, s.index.Hash(normed[i]))

		switch {
		case docs != nil:
			doc := docs[i]
			doc.ID = id
			s.docs[id] = doc
		default:
			if _, ok := s.docs[id]; !ok {
				s.docs[id] = Document{ID: id}
			}
		}
	}
	return nil
}

// AddDocuments inserts a batch of documents, optionally with their vectors.
//
// When vectors is nil only the document payloads are stored: such documents
// are invisible to similarity search until a vector is supplied for them
// (via the entry adapter's upsert, which replaces the document). Callers
// must track which documents are vector-indexed.
func (s *Store) AddDocuments(ctx context.Context, documents []Document, vectors [][]float32) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(documents) == 0 {
		return nil, ErrEmptyBatch
	}

	if vectors != nil {
		if len(vectors) != len(documents) {
			return nil, &ErrLengthMismatch{Want: len(documents), Got: len(vectors)}
		}
		return s.AddVectors(ctx, vectors, WithDocuments(documents))
	}

	ids := make([]string, len(documents))
	for i, doc := range documents {
		if doc.ID != "" {
			ids[i] = doc.ID
		} else {
			ids[i] = uuid.NewString()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.docs[id]; ok {
			return nil, &ErrDuplicateID{ID: id}
		}
		if _, ok := seen[id]; ok {
			return nil, &ErrDuplicateID{ID: id}
		}
		seen[id] = struct{}{}
	}

	for i, id := range ids {
		doc := documents[i]
		doc.ID = id
		s.docs[id] = doc
	}
	return ids, nil
}

// SimilaritySearchVectorWithScore returns up to k documents ranked by
// descending cosine similarity to query.
//
// An empty store returns an empty result immediately. Otherwise the query is
// normalized (surfacing dimension mismatches), hashed into each LSH table,
// and the bucket union is scored exactly. A union with fewer than k members
// falls back to scanning every live vector, so a query never returns fewer
// results than the store could supply.
func (s *Store) SimilaritySearchVectorWithScore(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	start := time.Now()

	results, fallback, err := s.search(ctx, query, k)

	s.opts.Metrics.RecordSearch(k, fallback, time.Since(start), err)
	s.opts.Logger.LogSearch(ctx, k, len(results), err)
	return results, err
}

func (s *Store) search(ctx context.Context, query []float32, k int) ([]SearchResult, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if k <= 0 {
		return nil, false, ErrInvalidK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.vectors.Len() == 0 {
		return []SearchResult{}, false, nil
	}

	q, err := s.vectors.Normalize(query)
	if err != nil {
		return nil, false, translateError(err)
	}

	kEff := k
	if n := s.vectors.Len(); kEff > n {
		kEff = n
	}

	// LSH buckets can miss true neighbors: a union that is non-empty but
	// smaller than k cannot possibly fill the result, so it is scanned away
	// just like an empty one.
	candidates := s.index.Candidates(s.index.Hash(q))
	fallback := candidates.GetCardinality() < uint64(kEff)
	if fallback {
		candidates = nil
	}

	matches := searcher.Select(s.vectors, candidates, q, k)

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		id, ok := s.vectors.ID(m.Slot)
		if !ok {
			continue
		}
		results = append(results, SearchResult{
			Document: s.docs[id],
			Score:    m.Score,
		})
	}
	return results, fallback, nil
}

// DeleteByIDs removes the given ids and returns how many were actually
// found. Unknown ids are silently skipped.
//
// For each vector-indexed id the stored vector is re-hashed to locate and
// clear its bucket memberships in every table before the slot is freed.
func (s *Store) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	start := time.Now()

	s.mu.Lock()
	removed := 0
	for _, id := range ids {
		if _, ok := s.docs[id]; !ok {
			continue
		}

		if slot, ok := s.vectors.Slot(id); ok {
			vec := s.vectors.Read(slot)
			s.index.Remove(slot, s.index.Hash(vec))
			s.vectors.Free(slot)
		}

		delete(s.docs, id)
		removed++
	}
	s.mu.Unlock()

	s.opts.Metrics.RecordDelete(len(ids), removed, time.Since(start))
	s.opts.Logger.LogDelete(ctx, len(ids), removed)
	return removed, nil
}

// Clear resets the store to empty. Buffer capacity and the hyperplane banks
// are preserved, so a cleared store behaves exactly like a fresh one with
// the same configuration.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vectors.Reset()
	s.index.Reset()
	s.docs = make(map[string]Document)
}
