package domain

import (
	"context"
	"time"
)

// BlobInfo describes one stored blob.
type BlobInfo struct {
	UUID      string
	CreatedAt time.Time
}

// BlobStore is the binary store for images, addressed by a UUID it assigns.
// It is not transactional with the relational store.
type BlobStore interface {
	Store(ctx context.Context, data []byte) (string, error)
	// Retrieve returns ErrNotFound when no blob has that UUID.
	Retrieve(ctx context.Context, uuid string) ([]byte, error)
	Delete(ctx context.Context, uuid string) error
	List(ctx context.Context) ([]BlobInfo, error)
}

// Coder converts blob bytes to and from their transport-safe text form.
type Coder interface {
	Encode(data []byte) string
	Decode(text string) ([]byte, error)
}
