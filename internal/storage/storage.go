// Package storage abstracts binary media storage keyed by relative path.
// The application stores tweet photos and profile pictures here; the
// photo-lifecycle rules in the tweet service guarantee stored files never
// outlive the row that references them.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no stored content.
var ErrNotFound = errors.New("media object not found")

// Storage stores and retrieves media blobs by key.
type Storage interface {
	Save(ctx context.Context, key string, data []byte) error
	Open(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
