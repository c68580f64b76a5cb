// Package persist holds the snapshot adapters a store saves its serialized state through.
package persist

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no snapshot has been saved under the key.
var ErrNotFound = errors.New("snapshot not found")

// Adapter loads and saves one opaque snapshot per store key.
type Adapter interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}
