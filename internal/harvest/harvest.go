package harvest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/discochess/tally/internal/archive"
	"github.com/discochess/tally/internal/source"
	"github.com/discochess/tally/internal/stats"
	"github.com/discochess/tally/internal/window"
)

// Harvester copies monthly payloads from a RawFetcher into an Archive.
type Harvester struct {
	fetcher    source.RawFetcher
	archive    *archive.Archive
	progress   ProgressFunc
	logger     *zap.Logger
	collector  stats.Collector
	workers    int
	sourceName string
	now        func() time.Time
}

// Option configures the Harvester.
type Option func(*Harvester)

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(h *Harvester) { h.progress = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Harvester) { h.logger = logger }
}

// WithStats sets the metrics collector.
func WithStats(c stats.Collector) Option {
	return func(h *Harvester) { h.collector = c }
}

// WithWorkers sets how many months are fetched at once.
func WithWorkers(n int) Option {
	return func(h *Harvester) { h.workers = n }
}

// WithSourceName records where payloads came from in the manifest.
func WithSourceName(name string) Option {
	return func(h *Harvester) { h.sourceName = name }
}

// WithClock sets the clock used for manifest timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Harvester) { h.now = now }
}

// New creates a Harvester.
func New(fetcher source.RawFetcher, a *archive.Archive, opts ...Option) *Harvester {
	h := &Harvester{
		fetcher:   fetcher,
		archive:   a,
		progress:  func(Progress) {},
		logger:    zap.NewNop(),
		collector: stats.NewNoop(),
		workers:   1,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.workers < 1 {
		h.workers = 1
	}
	return h
}

// Result summarizes one Harvest call.
type Result struct {
	Username string
	Archived []window.Bucket
	Skipped  []window.Bucket
	Bytes    int64
}

// Harvest fetches each bucket for username and writes it to the archive.
// A month that fails to fetch is skipped; failing to write the archive or
// a cancelled context aborts. The manifest is updated with every month
// archived so far, including months from earlier runs.
func (h *Harvester) Harvest(ctx context.Context, username string, buckets []window.Bucket) (*Result, error) {
	start := time.Now()
	res := &Result{Username: username}

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.workers)
	for _, b := range buckets {
		g.Go(func() error {
			data, err := h.fetcher.FetchMonthRaw(gctx, username, b)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				h.logger.Warn("skipping month",
					zap.String("username", username),
					zap.Stringer("bucket", b),
					zap.Error(err),
				)
				h.collector.IncCounter(stats.MetricFetchFailures, 1)
				mu.Lock()
				res.Skipped = append(res.Skipped, b)
				done++
				h.progress(Progress{Phase: PhaseSkip, Username: username, Bucket: b,
					MonthsDone: done, MonthsTotal: len(buckets), StartTime: start, Error: err})
				mu.Unlock()
				return nil
			}
			if err := h.archive.WriteMonth(gctx, username, b, data); err != nil {
				return fmt.Errorf("archiving %s %s: %w", username, b, err)
			}
			h.collector.IncCounter(stats.MetricMonthsArchived, 1)

			mu.Lock()
			res.Archived = append(res.Archived, b)
			res.Bytes += int64(len(data))
			done++
			h.progress(Progress{Phase: PhaseFetch, Username: username, Bucket: b,
				MonthsDone: done, MonthsTotal: len(buckets), BytesWritten: res.Bytes, StartTime: start})
			mu.Unlock()
			return nil
		})
	}
	runErr := g.Wait()

	sortBuckets(res.Archived)
	sortBuckets(res.Skipped)

	if len(res.Archived) > 0 {
		if err := h.updateManifest(ctx, username, res.Archived); err != nil {
			return res, errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return res, runErr
	}

	h.progress(Progress{Phase: PhaseDone, Username: username, MonthsDone: len(res.Archived),
		MonthsTotal: len(buckets), BytesWritten: res.Bytes, StartTime: start})
	h.logger.Info("harvest complete",
		zap.String("username", username),
		zap.Int("archived", len(res.Archived)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int64("bytes", res.Bytes),
	)
	return res, nil
}

func (h *Harvester) updateManifest(ctx context.Context, username string, archived []window.Bucket) error {
	m, err := h.archive.ReadManifest(ctx, username)
	if err != nil {
		return err
	}
	for _, b := range archived {
		m.Months = append(m.Months, b.String())
	}
	slices.Sort(m.Months)
	m.Months = slices.Compact(m.Months)
	m.Version = archive.ManifestVersion
	m.Codec = h.archive.Codec().Name()
	if h.sourceName != "" {
		m.Source = h.sourceName
	}
	m.UpdatedAt = h.now().UTC()
	return h.archive.WriteManifest(ctx, m)
}

func sortBuckets(bs []window.Bucket) {
	slices.SortFunc(bs, func(a, b window.Bucket) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		default:
			return 0
		}
	})
}
