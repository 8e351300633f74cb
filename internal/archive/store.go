// Package archive stores harvested monthly game payloads in object storage.
package archive

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("archive: object not found")

// Store is a flat object store keyed by slash-separated names.
type Store interface {
	// Get reads the object stored under name.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put writes data under name, replacing any existing object.
	Put(ctx context.Context, name string, data []byte) error

	// Close releases any resources held by the store.
	Close() error
}
