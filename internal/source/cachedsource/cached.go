// Package cachedsource wraps a Source with an in-process LRU of fetched months.
package cachedsource

import (
	"context"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/discochess/tally/internal/game"
	"github.com/discochess/tally/internal/source"
	"github.com/discochess/tally/internal/stats"
	"github.com/discochess/tally/internal/window"
)

var _ source.Source = (*Source)(nil)

type key struct {
	username string
	bucket   window.Bucket
}

// Stats contains cache statistics.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Source caches successful fetches of an underlying Source. Failed
// fetches are never cached.
type Source struct {
	underlying source.Source
	cache      *lru.Cache[key, []game.Raw]
	collector  stats.Collector

	hits   atomic.Int64
	misses atomic.Int64
}

// New wraps underlying with an LRU holding up to capacity months.
// A nil collector discards metrics.
func New(underlying source.Source, capacity int, collector stats.Collector) (*Source, error) {
	c, err := lru.New[key, []game.Raw](capacity)
	if err != nil {
		return nil, err
	}
	if collector == nil {
		collector = stats.NewNoop()
	}
	return &Source{underlying: underlying, cache: c, collector: collector}, nil
}

// FetchMonth returns the cached month or fetches and caches it.
func (s *Source) FetchMonth(ctx context.Context, username string, bucket window.Bucket) ([]game.Raw, error) {
	k := key{username: strings.ToLower(username), bucket: bucket}
	if games, ok := s.cache.Get(k); ok {
		s.hits.Add(1)
		s.collector.IncCounter(stats.MetricCacheHits, 1)
		return games, nil
	}
	s.misses.Add(1)
	s.collector.IncCounter(stats.MetricCacheMisses, 1)

	games, err := s.underlying.FetchMonth(ctx, username, bucket)
	if err != nil {
		return nil, err
	}
	s.cache.Add(k, games)
	s.collector.SetGauge(stats.MetricCacheSize, int64(s.cache.Len()))
	return games, nil
}

// Stats returns cache statistics.
func (s *Source) Stats() Stats {
	return Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Size:   s.cache.Len(),
	}
}

// Close closes the underlying source.
func (s *Source) Close() error {
	return s.underlying.Close()
}
