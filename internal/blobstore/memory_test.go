package blobstore

import (
	"context"
	"errors"
	"testing"
)

func TestMemory_GetMissingKey(t *testing.T) {
	store := NewMemory()

	_, err := store.Get(context.Background(), "no/such/key")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemory_PutOverwrites(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.Put(ctx, "k", []byte("first")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "k", []byte("second")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("Get = %q, want %q", data, "second")
	}
	if len(store.Keys()) != 1 {
		t.Errorf("Expected 1 key, got %d", len(store.Keys()))
	}
}
