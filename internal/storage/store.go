// Package storage holds the key-value blob stores the persisted documents
// live in.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("key not found")

// BlobStore stores opaque values under string keys. A single Put replaces the
// whole value. Implementations assume one writer; concurrent processes sharing
// the same backend are not coordinated and the last write wins.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
