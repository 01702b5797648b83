package storage

import (
	"context"
	"io"
	"time"
)

// BlobStore holds uploaded file bytes. Attachment metadata lives in Mongo.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}
