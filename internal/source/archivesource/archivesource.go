// Package archivesource serves months previously harvested into an archive.
package archivesource

import (
	"context"
	"errors"
	"fmt"

	"github.com/discochess/tally/internal/archive"
	"github.com/discochess/tally/internal/game"
	"github.com/discochess/tally/internal/source"
	"github.com/discochess/tally/internal/source/chesscom"
	"github.com/discochess/tally/internal/window"
)

var (
	_ source.Source     = (*Source)(nil)
	_ source.RawFetcher = (*Source)(nil)
)

// Source reads chess.com payloads from an archive.
type Source struct {
	archive *archive.Archive
}

// New returns a source over a. Close closes a.
func New(a *archive.Archive) *Source {
	return &Source{archive: a}
}

// FetchMonth decodes the archived month. Months never harvested hold no games.
func (s *Source) FetchMonth(ctx context.Context, username string, b window.Bucket) ([]game.Raw, error) {
	data, err := s.FetchMonthRaw(ctx, username, b)
	if errors.Is(err, archive.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return chesscom.DecodeMonth(data)
}

// FetchMonthRaw returns the archived payload, or archive.ErrNotFound.
func (s *Source) FetchMonthRaw(ctx context.Context, username string, b window.Bucket) ([]byte, error) {
	data, err := s.archive.ReadMonth(ctx, username, b)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("reading archived month %s: %w", b, err)
	}
	return data, nil
}

// Close closes the archive.
func (s *Source) Close() error {
	return s.archive.Close()
}
