package tally

import (
	"time"

	"go.uber.org/zap"

	"github.com/discochess/tally/internal/sink"
	"github.com/discochess/tally/internal/source"
	"github.com/discochess/tally/internal/stats"
	"github.com/discochess/tally/internal/window"
)

// DefaultTargetCount is how many recent games an unfiltered run collects.
const DefaultTargetCount = 50

// Option configures a Client.
type Option interface {
	apply(*options)
}

// options holds the client configuration.
type options struct {
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
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		stats:       stats.NewNoop(),
		logger:      zap.NewNop(),
		now:         time.Now,
		target:      DefaultTargetCount,
		concurrency: 1,
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithSource sets where monthly games are fetched from. Required.
func WithSource(s source.Source) Option {
	return optionFunc(func(o *options) {
		o.source = s
	})
}

// WithSink enables persistence of analyzed games and rollups.
// If not set, nothing is persisted.
func WithSink(s sink.Sink) Option {
	return optionFunc(func(o *options) {
		o.sink = s
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithClock sets the clock used to plan month buckets.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(o *options) {
		o.now = now
	})
}

// WithTargetCount sets how many of the most recent games are kept.
// Zero or less keeps every game in the window.
func WithTargetCount(n int) Option {
	return optionFunc(func(o *options) {
		o.target = n
	})
}

// WithDateRange restricts runs to games ending inside r, inclusive.
// Setting either bound switches planning to calendar months.
func WithDateRange(r window.DateRange) Option {
	return optionFunc(func(o *options) {
		o.dateRange = r
	})
}

// WithDedupe drops repeated game IDs when merging months.
func WithDedupe(on bool) Option {
	return optionFunc(func(o *options) {
		o.dedupe = on
	})
}

// WithSubjectDelay sets the minimum spacing between subject starts in AnalyzeMany.
func WithSubjectDelay(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.subjectDelay = d
	})
}

// WithConcurrency sets how many subjects AnalyzeMany runs at once.
// Default is 1.
func WithConcurrency(n int) Option {
	return optionFunc(func(o *options) {
		o.concurrency = n
	})
}
