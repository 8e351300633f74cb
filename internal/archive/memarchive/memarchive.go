// Package memarchive provides an in-memory archive store for testing.
package memarchive

import (
	"context"
	"sort"
	"sync"

	"github.com/discochess/tally/internal/archive"
)

var _ archive.Store = (*Store)(nil)

// Store keeps objects in memory.
type Store struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New creates an empty store.
func New() *Store {
	return &Store{objects: make(map[string][]byte)}
}

// Get returns a copy of the object stored under name.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[name]
	if !ok {
		return nil, archive.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Put stores a copy of data under name.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = append([]byte(nil), data...)
	return nil
}

// Names returns the stored object names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.objects))
	for name := range s.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}
