package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Backend when no value exists for a key.
var ErrNotFound = errors.New("storage: key not found")

// Backend persists raw record bytes under logical keys.
type Backend interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
