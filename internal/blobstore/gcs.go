package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/dvloznov/bank-sync/internal/logger"
)

// GCSStore is a Store backed by a Google Cloud Storage bucket.
// It assumes Application Default Credentials are configured.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a store over the given bucket.
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSStore: create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Get returns the object stored under key, or ErrNotFound if it does not exist.
func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	log := logger.FromContext(ctx)
	log.Info().Str("key", key).Msg("Reading blob")

	rc, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("Get %q: %w", key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Get %q: reading bytes: %w", key, err)
	}
	return data, nil
}

// Put writes the object under key, replacing any existing object.
func (s *GCSStore) Put(ctx context.Context, key string, data []byte) error {
	log := logger.FromContext(ctx)
	log.Info().Str("key", key).Int("bytes", len(data)).Msg("Writing blob")

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("Put %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("Put %q: finalize write: %w", key, err)
	}
	return nil
}

// Close releases the underlying storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
