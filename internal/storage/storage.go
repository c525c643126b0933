// Package storage defines the durable key-value contract the subscription
// store persists its collection through. Implementations live in the
// memory, file, sqlite and postgres subpackages.
package storage

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when nothing has been stored under a key.
var ErrKeyNotFound = errors.New("key not found")

// BlobStore stores opaque values under string keys. Put replaces the whole
// value in one write.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}
