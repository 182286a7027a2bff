package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for a key that holds no value.
var ErrNotFound = errors.New("storage: key not found")

// Store is a byte-level key/value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
