// Package memsink provides an in-memory sink for tests and dry runs.
package memsink

import (
	"context"
	"sync"
	"time"

	"github.com/discochess/tally/internal/sink"
)

var _ sink.Sink = (*Sink)(nil)

// Sink keeps games and rollups in memory.
type Sink struct {
	mu      sync.RWMutex
	now     func() time.Time
	games   map[string]map[string]sink.Record
	rollups map[string]*sink.UserStatistics

	upsertErr  error
	refreshErr error
	upserts    int
}

// New creates an empty sink.
func New() *Sink {
	return &Sink{
		now:     time.Now,
		games:   make(map[string]map[string]sink.Record),
		rollups: make(map[string]*sink.UserStatistics),
	}
}

// FailUpserts makes every UpsertGame call return err until cleared with nil.
func (s *Sink) FailUpserts(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertErr = err
}

// FailRefresh makes every RefreshUserRollup call return err until cleared with nil.
func (s *Sink) FailRefresh(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshErr = err
}

// Upserts returns how many UpsertGame calls were attempted.
func (s *Sink) Upserts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upserts
}

// Games returns username's stored games, most recent first.
func (s *Sink) Games(username string) []sink.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := s.games[sink.Key(username)]
	out := make([]sink.Record, 0, len(byID))
	for _, r := range byID {
		out = append(out, r)
	}
	sink.SortRecords(out)
	return out
}

func (s *Sink) UpsertGame(ctx context.Context, username string, r sink.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upserts++
	if s.upsertErr != nil {
		return s.upsertErr
	}
	key := sink.Key(username)
	if s.games[key] == nil {
		s.games[key] = make(map[string]sink.Record)
	}
	r.Username = key
	s.games[key][r.GameID] = r
	return nil
}

func (s *Sink) RefreshUserRollup(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refreshErr != nil {
		return s.refreshErr
	}
	key := sink.Key(username)
	records := make([]sink.Record, 0, len(s.games[key]))
	for _, r := range s.games[key] {
		records = append(records, r)
	}
	s.rollups[key] = sink.Rollup(username, records, s.now().UTC())
	return nil
}

func (s *Sink) UserStatistics(ctx context.Context, username string) (*sink.UserStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.rollups[sink.Key(username)]
	if !ok {
		return nil, sink.ErrNotFound
	}
	out := *st
	return &out, nil
}

// Close is a no-op for the memory sink.
func (s *Sink) Close() error {
	return nil
}
