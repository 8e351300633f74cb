// Package backend opens the archive configured in config.ArchiveConfig.
package backend

import (
	"context"
	"fmt"

	"github.com/discochess/tally/internal/archive"
	"github.com/discochess/tally/internal/archive/diskarchive"
	"github.com/discochess/tally/internal/archive/gcsarchive"
	"github.com/discochess/tally/internal/archive/s3archive"
	"github.com/discochess/tally/internal/config"
)

// Open returns an archive over the configured backend and codec.
func Open(ctx context.Context, cfg config.ArchiveConfig) (*archive.Archive, error) {
	codec, err := archive.CodecByName(cfg.Codec)
	if err != nil {
		return nil, err
	}

	var store archive.Store
	switch cfg.Backend {
	case "disk", "":
		store, err = diskarchive.New(cfg.Dir)
	case "s3":
		opts := []s3archive.Option{s3archive.WithPrefix(cfg.Prefix)}
		if cfg.Region != "" {
			opts = append(opts, s3archive.WithRegion(cfg.Region))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, s3archive.WithEndpoint(cfg.Endpoint))
		}
		store, err = s3archive.New(ctx, cfg.Bucket, opts...)
	case "gcs":
		store, err = gcsarchive.New(ctx, cfg.Bucket, gcsarchive.WithPrefix(cfg.Prefix))
	default:
		return nil, fmt.Errorf("archive: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s archive: %w", cfg.Backend, err)
	}
	return archive.New(store, codec), nil
}
