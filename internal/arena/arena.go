// Package arena owns the flat vector buffer and the id/slot tables.
//
// Vectors live contiguously in a single []float32, addressed by integer slot
// (vector i occupies data[i*dim : (i+1)*dim]). Documents reference vectors
// only through the id table, never by pointer, so the buffer can be
// reallocated on growth without invalidating anything.
package arena

import (
	"fmt"

	"github.com/annexsearch/annex/distance"
)

// ErrDimensionMismatch is returned when a vector does not match the
// configured dimension.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// DefaultCapacity is the initial slot capacity when none is configured.
const DefaultCapacity = 64

// Arena is a contiguous, resizable buffer of unit-normalized vectors plus the
// bidirectional id/slot mapping.
//
// Not safe for concurrent use; the owning store serializes access.
type Arena struct {
	dim    int
	data   []float32         // capacity*dim floats
	slotID []string          // slot -> id, "" marks a free slot
	ids    map[string]uint32 // id -> slot
	count  int               // live vector tally
}

// New creates an Arena with the given dimension and initial slot capacity.
func New(dim, capacity int) *Arena {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Arena{
		dim:    dim,
		data:   make([]float32, capacity*dim),
		slotID: make([]string, capacity),
		ids:    make(map[string]uint32),
	}
}

// Dimension returns the configured vector dimensionality.
func (a *Arena) Dimension() int { return a.dim }

// Len returns the number of live vectors.
func (a *Arena) Len() int { return a.count }

// Capacity returns the current maximum slot count.
func (a *Arena) Capacity() int { return len(a.slotID) }

// Normalize returns a unit-length copy of v.
// A zero vector is returned unchanged: it has no defined direction and will
// score 0 against every query.
func (a *Arena) Normalize(v []float32) ([]float32, error) {
	if len(v) != a.dim {
		return nil, &ErrDimensionMismatch{Expected: a.dim, Actual: len(v)}
	}
	norm, _ := distance.NormalizeL2Copy(v)
	return norm, nil
}

// Allocate binds id to the first free slot, growing the buffer when none is
// free, and returns the slot. The caller must ensure id is not already bound.
//
// The linear scan is O(capacity); inserts are batch operations, not the
// query hot path.
func (a *Arena) Allocate(id string) uint32 {
	for slot := range a.slotID {
		if a.slotID[slot] == "" {
			a.bind(uint32(slot), id)
			return uint32(slot)
		}
	}

	// No free slot: double the capacity and hand out the first new slot.
	slot := uint32(len(a.slotID))
	a.grow()
	a.bind(slot, id)
	return slot
}

func (a *Arena) grow() {
	oldCap := len(a.slotID)
	newCap := oldCap * 2
	if newCap == 0 {
		newCap = DefaultCapacity
	}

	data := make([]float32, newCap*a.dim)
	copy(data, a.data)
	a.data = data

	slotID := make([]string, newCap)
	copy(slotID, a.slotID)
	a.slotID = slotID
}

func (a *Arena) bind(slot uint32, id string) {
	a.slotID[slot] = id
	a.ids[id] = slot
	a.count++
}

// Write stores v at slot. The vector is copied into the buffer.
func (a *Arena) Write(slot uint32, v []float32) {
	copy(a.data[int(slot)*a.dim:], v)
}

// Read returns the vector stored at slot.
// The returned slice aliases the buffer and is only valid until the next
// Allocate; do not modify it.
func (a *Arena) Read(slot uint32) []float32 {
	start := int(slot) * a.dim
	end := start + a.dim
	return a.data[start:end:end]
}

// Free releases slot: the vector region is zeroed and both directions of the
// id mapping are cleared. Freed slots are immediately reusable.
func (a *Arena) Free(slot uint32) {
	id := a.slotID[slot]
	if id == "" {
		return
	}
	clear(a.data[int(slot)*a.dim : (int(slot)+1)*a.dim])
	delete(a.ids, id)
	a.slotID[slot] = ""
	a.count--
}

// Slot returns the slot bound to id.
func (a *Arena) Slot(id string) (uint32, bool) {
	slot, ok := a.ids[id]
	return slot, ok
}

// ID returns the id bound to slot, or false if the slot is free.
func (a *Arena) ID(slot uint32) (string, bool) {
	if int(slot) >= len(a.slotID) {
		return "", false
	}
	id := a.slotID[slot]
	return id, id != ""
}

// Has reports whether id is bound to a live slot.
func (a *Arena) Has(id string) bool {
	_, ok := a.ids[id]
	return ok
}

// Iterate calls fn for each live slot in ascending slot order.
// Return false from fn to stop iteration.
func (a *Arena) Iterate(fn func(slot uint32, vec []float32) bool) {
	for slot := range a.slotID {
		if a.slotID[slot] == "" {
			continue
		}
		if !fn(uint32(slot), a.Read(uint32(slot))) {
			return
		}
	}
}

// Reset clears every slot and mapping. Capacity is preserved.
func (a *Arena) Reset() {
	clear(a.data)
	clear(a.slotID)
	a.ids = make(map[string]uint32)
	a.count = 0
}
