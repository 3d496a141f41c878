package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no blob exists under the key.
// It is the only non-fatal storage condition; callers must check it
// with errors.Is and treat everything else as fatal.
var ErrNotFound = errors.New("blobstore: key not found")

// Store provides access to opaque blobs by key.
type Store interface {
	// Get returns the blob stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes the blob under key, replacing any existing blob.
	Put(ctx context.Context, key string, data []byte) error
}
