// Package tally analyzes a chess.com player's recent games.
//
// A run plans which monthly archives to fetch, merges them into one window
// of the most recent games, reinterprets every game from the player's side
// and folds the result into an aggregate report. Persistence of the
// analyzed games is an optional, best-effort side channel.
//
// Example usage:
//
//	client, err := tally.New(
//	    tally.WithSource(chesscom.New(chesscom.DefaultConfig())),
//	    tally.WithTargetCount(200),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	a, err := client.Analyze(ctx, "hikaru")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d games, %d wins\n", a.Report.Total, a.Report.Wins)
package tally

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/discochess/tally/internal/aggregate"
	"github.com/discochess/tally/internal/game"
	"github.com/discochess/tally/internal/merge"
	"github.com/discochess/tally/internal/perspective"
	"github.com/discochess/tally/internal/sink"
	"github.com/discochess/tally/internal/source"
	"github.com/discochess/tally/internal/stats"
	"github.com/discochess/tally/internal/window"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrNoSource indicates no game source was provided.
	ErrNoSource = errors.New("tally: no source provided")

	// ErrClosed indicates the client has been closed.
	ErrClosed = errors.New("tally: client closed")

	// ErrNoSubject indicates an empty username.
	ErrNoSubject = errors.New("tally: no subject username")
)

// Analysis is the outcome of one subject's run.
type Analysis struct {
	// RunID tags the run's log lines.
	RunID    string `json:"run_id"`
	Username string `json:"username"`

	// Buckets lists the months fetched, in fetch order.
	Buckets []window.Bucket `json:"months"`

	// FailedBuckets lists months whose fetch failed and contributed no games.
	FailedBuckets []window.Bucket `json:"failed_months,omitempty"`

	// Games holds the analyzed games, most recent first.
	Games []game.Analyzed `json:"games"`

	// Dropped counts merged games the subject did not play in.
	Dropped int `json:"dropped"`

	Report aggregate.Report `json:"report"`

	// Stored is the persisted rollup read back after syncing. Nil when no
	// sink is configured or the sync failed.
	Stored *sink.UserStatistics `json:"stored,omitempty"`
}

// Client runs analyses against a game source.
// A Client is safe for concurrent use by multiple goroutines.
type Client struct {
	source       source.Source
	sink         sink.Sink
	stats        stats.Collector
	logger       *zap.Logger
	now          func() time.Time
	target       int
	dateRange    window.DateRange
	dedupe       bool
	subjectDelay time.Duration
	concurrency  int
	closed       atomic.Bool
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if cfg.source == nil {
		return nil, ErrNoSource
	}
	if err := cfg.dateRange.Validate(); err != nil {
		return nil, err
	}
	if cfg.concurrency < 1 {
		cfg.concurrency = 1
	}

	c := &Client{
		source:       cfg.source,
		sink:         cfg.sink,
		stats:        cfg.stats,
		logger:       cfg.logger,
		now:          cfg.now,
		target:       cfg.target,
		dateRange:    cfg.dateRange,
		dedupe:       cfg.dedupe,
		subjectDelay: cfg.subjectDelay,
		concurrency:  cfg.concurrency,
	}

	c.logger.Debug("client initialized",
		zap.Int("targetCount", c.target),
		zap.Bool("filtered", !c.dateRange.IsZero()),
		zap.Bool("persist", c.sink != nil),
		zap.Int("concurrency", c.concurrency),
	)
	return c, nil
}

// Plan returns the months a run started now would fetch, ignoring the
// early stop on target count.
func (c *Client) Plan() ([]window.Bucket, error) {
	p, err := window.NewPlanner(c.now(), c.target, c.dateRange)
	if err != nil {
		return nil, err
	}
	return p.Buckets(), nil
}

// Analyze runs the pipeline for one subject. Failed month fetches are
// skipped; an invalid date range or a cancelled context ends the run.
func (c *Client) Analyze(ctx context.Context, username string) (*Analysis, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrNoSubject
	}

	a := &Analysis{RunID: uuid.NewString(), Username: username}
	logger := c.logger.With(zap.String("run_id", a.RunID), zap.String("username", username))
	start := time.Now()
	c.stats.IncCounter(stats.MetricRuns, 1)

	if err := c.run(ctx, logger, a); err != nil {
		c.stats.IncCounter(stats.MetricRunFailures, 1)
		return nil, err
	}

	elapsed := time.Since(start)
	c.stats.ObserveHistogram(stats.MetricRunSeconds, elapsed.Seconds())
	logger.Info("analysis complete",
		zap.Int("games", a.Report.Total),
		zap.Int("months", len(a.Buckets)),
		zap.Int("failedMonths", len(a.FailedBuckets)),
		zap.Int("dropped", a.Dropped),
		zap.Duration("elapsed", elapsed),
	)
	return a, nil
}

func (c *Client) run(ctx context.Context, logger *zap.Logger, a *Analysis) error {
	planner, err := window.NewPlanner(c.now(), c.target, c.dateRange)
	if err != nil {
		return fmt.Errorf("planning months: %w", err)
	}

	batches, err := c.fetch(ctx, logger, a, planner)
	if err != nil {
		return err
	}

	raws := merge.Merge(batches, merge.Options{
		Range:  c.dateRange,
		Target: c.target,
		Dedupe: c.dedupe,
	})

	a.Games = make([]game.Analyzed, 0, len(raws))
	for _, raw := range raws {
		g, ok := perspective.Normalize(raw, a.Username)
		if !ok {
			a.Dropped++
			continue
		}
		a.Games = append(a.Games, g)
	}
	c.stats.IncCounter(stats.MetricGamesAnalyzed, int64(len(a.Games)))
	if a.Dropped > 0 {
		c.stats.IncCounter(stats.MetricGamesDropped, int64(a.Dropped))
		logger.Debug("dropped games without the subject", zap.Int("count", a.Dropped))
	}

	a.Report = aggregate.Aggregate(a.Games)

	if c.sink != nil {
		a.Stored = c.sync(ctx, logger, a.Username, a.Games)
	}
	return nil
}

// fetch walks the planner, feeding back the number of games fetched so far.
func (c *Client) fetch(ctx context.Context, logger *zap.Logger, a *Analysis, planner *window.Planner) ([][]game.Raw, error) {
	var (
		batches     [][]game.Raw
		accumulated int
	)
	for {
		b, ok := planner.Next(accumulated)
		if !ok {
			return batches, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a.Buckets = append(a.Buckets, b)

		start := time.Now()
		c.stats.IncCounter(stats.MetricFetches, 1)
		games, err := c.source.FetchMonth(ctx, a.Username, b)
		c.stats.ObserveHistogram(stats.MetricFetchSeconds, time.Since(start).Seconds())
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.stats.IncCounter(stats.MetricFetchFailures, 1)
			logger.Warn("skipping month",
				zap.Stringer("bucket", b),
				zap.Error(err),
			)
			a.FailedBuckets = append(a.FailedBuckets, b)
			continue
		}

		c.stats.IncCounter(stats.MetricGamesFetched, int64(len(games)))
		logger.Debug("fetched month",
			zap.Stringer("bucket", b),
			zap.Int("games", len(games)),
		)
		accumulated += len(games)
		batches = append(batches, games)
	}
}

// sync writes every game, then refreshes and reads back the rollup once.
// Failures are logged and counted; the rollup is nil if it could not be read.
func (c *Client) sync(ctx context.Context, logger *zap.Logger, username string, games []game.Analyzed) *sink.UserStatistics {
	for _, g := range games {
		if err := c.sink.UpsertGame(ctx, username, sink.NewRecord(username, g)); err != nil {
			c.stats.IncCounter(stats.MetricSyncFailures, 1)
			logger.Warn("storing game failed", zap.String("game_id", g.GameID), zap.Error(err))
			continue
		}
		c.stats.IncCounter(stats.MetricSyncWrites, 1)
	}

	if err := c.sink.RefreshUserRollup(ctx, username); err != nil {
		c.stats.IncCounter(stats.MetricSyncFailures, 1)
		logger.Warn("refreshing rollup failed", zap.Error(err))
		return nil
	}
	st, err := c.sink.UserStatistics(ctx, username)
	if err != nil {
		c.stats.IncCounter(stats.MetricSyncFailures, 1)
		logger.Warn("reading rollup failed", zap.Error(err))
		return nil
	}
	return st
}

// AnalyzeMany analyzes each username independently. Subject starts are
// spaced by the subject delay and at most the configured concurrency run
// at once. Results are in input order; a subject whose run failed or was
// never started has a nil entry and its error is included in the joined
// error.
func (c *Client) AnalyzeMany(ctx context.Context, usernames []string) ([]*Analysis, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	limit := rate.Inf
	if c.subjectDelay > 0 {
		limit = rate.Every(c.subjectDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	results := make([]*Analysis, len(usernames))
	errs := make([]error, len(usernames))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, u := range usernames {
		c.stats.SetGauge(stats.MetricSubjectsQueued, int64(len(usernames)-i))
		if err := limiter.Wait(ctx); err != nil {
			for j := i; j < len(usernames); j++ {
				errs[j] = fmt.Errorf("analyzing %s: not started: %w", usernames[j], err)
			}
			break
		}
		g.Go(func() error {
			a, err := c.Analyze(ctx, u)
			if err != nil {
				errs[i] = fmt.Errorf("analyzing %s: %w", u, err)
				return nil
			}
			results[i] = a
			return nil
		})
	}
	_ = g.Wait()
	c.stats.SetGauge(stats.MetricSubjectsQueued, 0)

	return results, errors.Join(errs...)
}

// Close releases the source and sink.
// After Close, the client should not be used.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	var errs []error
	if err := c.source.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing source: %w", err))
	}
	if c.sink != nil {
		if err := c.sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing sink: %w", err))
		}
	}
	return errors.Join(errs...)
}
