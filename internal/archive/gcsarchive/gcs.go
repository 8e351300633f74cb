// Package gcsarchive stores archive objects in Google Cloud Storage.
package gcsarchive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/discochess/tally/internal/archive"
)

var _ archive.Store = (*Store)(nil)

// Store is a GCS-backed archive store.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets a key prefix for all objects.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = normalizePrefix(prefix)
	}
}

// New creates a store for bucket, which must already exist.
func New(ctx context.Context, bucket string, opts ...Option) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}
	s := &Store{client: client, bucket: client.Bucket(bucket), name: bucket}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get reads the object stored under name.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	r, err := s.bucket.Object(s.key(name)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, archive.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("opening gs://%s/%s: %w", s.name, s.key(name), err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading gs://%s/%s: %w", s.name, s.key(name), err)
	}
	return data, nil
}

// Put writes data under name.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	w := s.bucket.Object(s.key(name)).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("writing gs://%s/%s: %w", s.name, s.key(name), err)
	}
	// The object is committed on Close.
	if err := w.Close(); err != nil {
		return fmt.Errorf("committing gs://%s/%s: %w", s.name, s.key(name), err)
	}
	return nil
}

// Close releases the GCS client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
