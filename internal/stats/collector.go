// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout tally.
const (
	// Pipeline metrics.
	MetricRuns           = "tally_runs_total"
	MetricRunFailures    = "tally_run_failures_total"
	MetricRunSeconds     = "tally_run_duration_seconds"
	MetricGamesAnalyzed  = "tally_games_analyzed_total"
	MetricGamesDropped   = "tally_games_dropped_total"
	MetricSubjectsQueued = "tally_subjects_queued"

	// Source metrics.
	MetricFetches       = "tally_month_fetches_total"
	MetricFetchFailures = "tally_month_fetch_failures_total"
	MetricGamesFetched  = "tally_games_fetched_total"
	MetricFetchSeconds  = "tally_month_fetch_duration_seconds"

	// Sink metrics.
	MetricSyncWrites   = "tally_sync_writes_total"
	MetricSyncFailures = "tally_sync_failures_total"

	// Cache metrics.
	MetricCacheHits   = "tally_cache_hits_total"
	MetricCacheMisses = "tally_cache_misses_total"
	MetricCacheSize   = "tally_cache_size"

	// Harvest metrics.
	MetricMonthsArchived = "tally_months_archived_total"
)

// Help describes the metrics above. Unlisted names use the name itself.
var Help = map[string]string{
	MetricRuns:           "Analysis runs started.",
	MetricRunFailures:    "Analysis runs that ended with an error.",
	MetricRunSeconds:     "Wall time of one analysis run.",
	MetricGamesAnalyzed:  "Games normalized for a subject.",
	MetricGamesDropped:   "Games dropped because the subject played neither side.",
	MetricSubjectsQueued: "Subjects waiting in the current batch.",
	MetricFetches:        "Monthly archive fetches attempted.",
	MetricFetchFailures:  "Monthly archive fetches that failed and were skipped.",
	MetricGamesFetched:   "Raw games returned by monthly fetches.",
	MetricFetchSeconds:   "Latency of one monthly archive fetch.",
	MetricSyncWrites:     "Games written to the persistence sink.",
	MetricSyncFailures:   "Failed persistence operations.",
	MetricCacheHits:      "Monthly archive cache hits.",
	MetricCacheMisses:    "Monthly archive cache misses.",
	MetricCacheSize:      "Months held in the archive cache.",
	MetricMonthsArchived: "Months written to the archive by harvest.",
}

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
