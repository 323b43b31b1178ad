// Package entry provides a thin id/payload-oriented adapter over an annex
// store, the shape an HTTP handler or schema-sync job wants to speak:
// upsert a batch of entries, query by vector, done.
package entry

import (
	"context"

	"github.com/annexsearch/annex"
)

// Entry is one upsertable record.
type Entry struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Match is one query result.
type Match struct {
	ID      string         `json:"id"`
	Payload map[string]any `json:"payload,omitempty"`
	Score   float32        `json:"score"`
}

// Adapter wraps a store with upsert semantics.
type Adapter struct {
	store *annex.Store
}

// NewAdapter creates an Adapter over store.
func NewAdapter(store *annex.Store) *Adapter {
	return &Adapter{store: store}
}

// Store returns the underlying annex store.
func (a *Adapter) Store() *annex.Store { return a.store }

// Upsert applies delete-then-insert semantics: every incoming id is deleted
// unconditionally before the batch is inserted, so replacement is idempotent
// whether or not the id already exists.
func (a *Adapter) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return annex.ErrEmptyBatch
	}

	ids := make([]string, len(entries))
	vectors := make([][]float32, len(entries))
	docs := make([]annex.Document, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
		vectors[i] = e.Vector
		docs[i] = annex.Document{ID: e.ID, Metadata: e.Payload}
	}

	if _, err := a.store.DeleteByIDs(ctx, ids); err != nil {
		return err
	}

	_, err := a.store.AddVectors(ctx, vectors, annex.WithIDs(ids), annex.WithDocuments(docs))
	return err
}

// Query returns up to k matches ranked by descending similarity.
func (a *Adapter) Query(ctx context.Context, vector []float32, k int) ([]Match, error) {
	results, err := a.store.SimilaritySearchVectorWithScore(ctx, vector, k)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{
			ID:      r.Document.ID,
			Payload: r.Document.Metadata,
			Score:   r.Score,
		}
	}
	return matches, nil
}

// Delete removes the given ids, returning how many were found.
func (a *Adapter) Delete(ctx context.Context, ids []string) (int, error) {
	return a.store.DeleteByIDs(ctx, ids)
}

// Clear empties the underlying store.
func (a *Adapter) Clear() {
	a.store.Clear()
}

// Size returns the number of vector-indexed entries.
func (a *Adapter) Size() int {
	return a.store.Len()
}
