package annex

import (
	"errors"
	"fmt"

	"github.com/annexsearch/annex/internal/arena"
)

var (
	// ErrEmptyBatch is returned when an insert is called with no input.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrMalformedSnapshot is returned when a snapshot cannot be restored.
	// The underlying cause can be accessed via errors.Unwrap.
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidDimension indicates an invalid configured dimension.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

// ErrDuplicateID indicates an id that is already present in the store, or
// appears twice within a single batch. Duplicates are detected in a pre-pass
// over the whole batch, before any mutation: the call is rejected entirely
// and no partial insert occurs.
type ErrDuplicateID struct {
	ID string
}

func (e *ErrDuplicateID) Error() string {
	return fmt.Sprintf("duplicate id: %q", e.ID)
}

// ErrLengthMismatch indicates parallel input slices of different lengths.
type ErrLengthMismatch struct {
	Want int // number of primary items
	Got  int // length of the parallel slice
}

func (e *ErrLengthMismatch) Error() string {
	return fmt.Sprintf("length mismatch: %d items, %d parallel entries", e.Want, e.Got)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *arena.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	return err
}
