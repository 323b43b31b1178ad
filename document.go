package annex

// Document is the caller-facing entity owned by the store.
//
// ID is externally unique. A document is bound 1:1 to a live slot while a
// vector is present for it, but is independent of slot numbering: the same id
// may land on different slots across delete/reinsert cycles.
type Document struct {
	ID       string         `json:"id"`
	Text     string         `json:"text,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SearchResult pairs a document with its similarity score against the query.
// Score is the cosine similarity, in [-1, 1].
type SearchResult struct {
	Document Document `json:"document"`
	Score    float32  `json:"score"`
}
