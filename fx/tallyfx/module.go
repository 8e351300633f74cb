// Package tallyfx provides an fx module that builds a tally client from config.
package tallyfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/tally"
	"github.com/discochess/tally/internal/archive/backend"
	"github.com/discochess/tally/internal/config"
	"github.com/discochess/tally/internal/sink"
	"github.com/discochess/tally/internal/sink/sqlsink"
	"github.com/discochess/tally/internal/source"
	"github.com/discochess/tally/internal/source/archivesource"
	"github.com/discochess/tally/internal/source/cachedsource"
	"github.com/discochess/tally/internal/source/chesscom"
	"github.com/discochess/tally/internal/stats"
	"github.com/discochess/tally/internal/stats/logger"
	promstats "github.com/discochess/tally/internal/stats/prometheus"
)

// Module provides a *tally.Client.
// Requires a config.Config and a *zap.Logger to be provided.
var Module = fx.Module("tally",
	fx.Provide(
		newStatsCollector,
		newSource,
		newSink,
		newClient,
	),
)

// StatsResult holds the provided collectors. Prometheus is nil unless
// a metrics address is configured.
type StatsResult struct {
	fx.Out

	Collector  stats.Collector
	Prometheus *promstats.Collector
}

func newStatsCollector(cfg config.Config, log *zap.Logger) StatsResult {
	if cfg.Metrics.Addr != "" {
		c := promstats.New(nil)
		return StatsResult{Collector: c, Prometheus: c}
	}
	return StatsResult{Collector: logger.New(log.Named("tally.stats"))}
}

// SourceParams holds dependencies for creating the game source.
type SourceParams struct {
	fx.In

	Config    config.Config
	Logger    *zap.Logger
	Collector stats.Collector
}

func newSource(p SourceParams) (source.Source, error) {
	var src source.Source
	if p.Config.Source.FromArchive {
		a, err := backend.Open(context.Background(), p.Config.Archive)
		if err != nil {
			return nil, err
		}
		src = archivesource.New(a)
	} else {
		sc := p.Config.Source
		src = chesscom.New(chesscom.Config{
			BaseURL:           sc.BaseURL,
			UserAgent:         sc.UserAgent,
			Timeout:           sc.Timeout,
			RequestsPerSecond: sc.RequestsPerSecond,
			Burst:             sc.Burst,
			MaxRetries:        sc.MaxRetries,
		}, chesscom.WithLogger(p.Logger.Named("tally.source")))
	}

	if size := p.Config.Source.CacheSize; size > 0 {
		cached, err := cachedsource.New(src, size, p.Collector)
		if err != nil {
			src.Close()
			return nil, err
		}
		src = cached
	}
	return src, nil
}

// SinkParams holds dependencies for creating the optional sink.
type SinkParams struct {
	fx.In

	Config config.Config
	Logger *zap.Logger
}

// newSink returns a nil Sink when persistence is disabled or the database
// is unreachable; analysis runs without it.
func newSink(p SinkParams) sink.Sink {
	db := p.Config.Database
	if !db.Enabled {
		return nil
	}
	log := p.Logger.Named("tally.sink")
	s, err := sqlsink.Open(context.Background(), db.Driver, db.DSN, sqlsink.WithLogger(log))
	if err != nil {
		log.Warn("persistence disabled", zap.String("driver", db.Driver), zap.Error(err))
		return nil
	}
	return s
}

// Params holds dependencies for creating the client.
type Params struct {
	fx.In

	Config    config.Config
	Logger    *zap.Logger
	Collector stats.Collector
	Source    source.Source
	Sink      sink.Sink `optional:"true"`
	Lifecycle fx.Lifecycle
}

// Result holds the provided client.
type Result struct {
	fx.Out

	Client *tally.Client
}

func newClient(p Params) (Result, error) {
	r, err := p.Config.DateRange()
	if err != nil {
		return Result{}, err
	}

	opts := []tally.Option{
		tally.WithSource(p.Source),
		tally.WithStats(p.Collector),
		tally.WithLogger(p.Logger.Named("tally")),
		tally.WithTargetCount(p.Config.TargetCount),
		tally.WithDateRange(r),
		tally.WithDedupe(p.Config.Dedupe),
		tally.WithSubjectDelay(p.Config.SubjectDelay),
		tally.WithConcurrency(p.Config.Concurrency),
	}
	if p.Sink != nil {
		opts = append(opts, tally.WithSink(p.Sink))
	}

	client, err := tally.New(opts...)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return Result{Client: client}, nil
}
