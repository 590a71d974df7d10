package storage

import (
	"context"
	"io"
	"time"
)

// BlobStore holds user uploaded files.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, keys ...string) error
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	URL(key string) string
}
