// Package s3archive stores archive objects in AWS S3 or an S3-compatible service.
package s3archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/discochess/tally/internal/archive"
)

var _ archive.Store = (*Store)(nil)

// Store is an S3-backed archive store.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

type settings struct {
	prefix   string
	region   string
	endpoint string
}

// Option configures a Store.
type Option func(*settings)

// WithPrefix sets a key prefix for all objects.
func WithPrefix(prefix string) Option {
	return func(s *settings) {
		s.prefix = normalizePrefix(prefix)
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(s *settings) {
		s.region = region
	}
}

// WithEndpoint sets a custom endpoint, e.g. for MinIO. Path-style
// addressing is used when an endpoint is set.
func WithEndpoint(endpoint string) Option {
	return func(s *settings) {
		s.endpoint = endpoint
	}
}

// New creates a store for bucket, which must already exist.
func New(ctx context.Context, bucket string, opts ...Option) (*Store, error) {
	var st settings
	for _, opt := range opts {
		opt(&st)
	}

	var loadOpts []func(*config.LoadOptions) error
	if st.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(st.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if st.endpoint != "" {
			o.BaseEndpoint = aws.String(st.endpoint)
			o.UsePathStyle = true
		}
	})
	return &Store{client: client, bucket: bucket, prefix: st.prefix}, nil
}

// Get reads the object stored under name.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, archive.ErrNotFound
		}
		return nil, fmt.Errorf("getting s3://%s/%s: %w", s.bucket, s.key(name), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading s3://%s/%s: %w", s.bucket, s.key(name), err)
	}
	return data, nil
}

// Put writes data under name.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("putting s3://%s/%s: %w", s.bucket, s.key(name), err)
	}
	return nil
}

// Close releases resources. The S3 client holds none.
func (s *Store) Close() error {
	return nil
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
