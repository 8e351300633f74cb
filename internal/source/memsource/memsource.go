// Package memsource provides an in-memory game source for testing.
package memsource

import (
	"context"
	"strings"
	"sync"

	"github.com/discochess/tally/internal/game"
	"github.com/discochess/tally/internal/source"
	"github.com/discochess/tally/internal/window"
)

var _ source.Source = (*Source)(nil)

type key struct {
	username string
	bucket   window.Bucket
}

// Call records one FetchMonth invocation.
type Call struct {
	Username string
	Bucket   window.Bucket
}

// Source serves months set up by the test.
type Source struct {
	mu     sync.Mutex
	months map[key][]game.Raw
	errs   map[key]error
	calls  []Call
}

// New creates an empty source. Months never set return no games.
func New() *Source {
	return &Source{
		months: make(map[key][]game.Raw),
		errs:   make(map[key]error),
	}
}

func keyOf(username string, b window.Bucket) key {
	return key{username: strings.ToLower(username), bucket: b}
}

// SetMonth sets the games returned for one user's month.
func (s *Source) SetMonth(username string, b window.Bucket, games []game.Raw) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.months[keyOf(username, b)] = append([]game.Raw(nil), games...)
}

// FailMonth makes fetching one user's month return err.
func (s *Source) FailMonth(username string, b window.Bucket, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[keyOf(username, b)] = err
}

// Calls returns every FetchMonth call in order.
func (s *Source) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Source) FetchMonth(ctx context.Context, username string, b window.Bucket) ([]game.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Username: username, Bucket: b})
	k := keyOf(username, b)
	if err, ok := s.errs[k]; ok {
		return nil, err
	}
	return append([]game.Raw(nil), s.months[k]...), nil
}

// Close is a no-op for the memory source.
func (s *Source) Close() error {
	return nil
}
