// Package queue provides the bounded score heap used for top-k selection.
package queue

// Item is one scored candidate.
// Value-based on purpose: no pointer indirection, no per-push allocation.
type Item struct {
	Slot  uint32  // slot of the candidate vector
	Score float32 // similarity score, higher is better
}

// Min is a min-heap of Items ordered by Score: the worst of the current
// top-k sits at the root, ready to be evicted.
type Min struct {
	items []Item
}

// NewMin creates a heap with the given capacity hint.
func NewMin(capacity int) *Min {
	return &Min{items: make([]Item, 0, capacity)}
}

// Len returns the number of items in the heap.
func (q *Min) Len() int { return len(q.items) }

// Top returns the minimum-score item without removing it.
func (q *Min) Top() (Item, bool) {
	if len(q.items) == 0 {
		return Item{}, false
	}
	return q.items[0], true
}

// Push inserts an item while maintaining the heap invariant.
func (q *Min) Push(item Item) {
	q.items = append(q.items, item)
	q.siftUp(len(q.items) - 1)
}

// Pop removes and returns the minimum-score item.
func (q *Min) Pop() (Item, bool) {
	n := len(q.items)
	if n == 0 {
		return Item{}, false
	}
	root := q.items[0]
	last := q.items[n-1]
	q.items[n-1] = Item{}
	q.items = q.items[:n-1]
	if n-1 > 0 {
		q.items[0] = last
		q.siftDown(0)
	}
	return root, true
}

// Reset clears the heap for reuse.
func (q *Min) Reset() {
	q.items = q.items[:0]
}

func (q *Min) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if q.items[i].Score >= q.items[p].Score {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *Min) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && q.items[r].Score < q.items[l].Score {
			best = r
		}
		if q.items[best].Score >= q.items[i].Score {
			return
		}
		q.items[i], q.items[best] = q.items[best], q.items[i]
		i = best
	}
}
