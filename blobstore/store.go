// Package blobstore abstracts where serialized snapshots and entry-set blobs
// live: memory for tests, the local filesystem, or S3-compatible object
// storage (see the minio and s3 subpackages).
package blobstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// errors.Is(err, ErrNotFound). The default maps to os.ErrNotExist.
var ErrNotFound = os.ErrNotExist

// BlobStore is a simple key -> blob contract.
// Blobs are written whole and read whole; Put replaces atomically.
type BlobStore interface {
	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error

	// Get reads a blob. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
}
