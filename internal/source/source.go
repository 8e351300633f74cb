// Package source defines where monthly game archives come from.
package source

import (
	"context"
	"errors"

	"github.com/discochess/tally/internal/game"
	"github.com/discochess/tally/internal/window"
)

// ErrUserNotFound is returned when the provider does not know a username.
var ErrUserNotFound = errors.New("source: user not found")

// Source fetches one month of games for a user.
type Source interface {
	// FetchMonth returns every game the user finished in bucket. A month
	// without games returns an empty slice and no error.
	FetchMonth(ctx context.Context, username string, bucket window.Bucket) ([]game.Raw, error)

	// Close releases any resources held by the source.
	Close() error
}

// RawFetcher returns a month's provider payload without decoding it.
type RawFetcher interface {
	FetchMonthRaw(ctx context.Context, username string, bucket window.Bucket) ([]byte, error)
}
