// Package prometheus provides a Prometheus-backed stats collector.
package prometheus

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/discochess/tally/internal/stats"
)

// DurationBuckets suits month fetches and whole runs, which range from
// milliseconds against a cache to minutes against a throttled API.
var DurationBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}

// Collector implements stats.Collector with metrics created on first use.
type Collector struct {
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer

	mu         sync.RWMutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

var _ stats.Collector = (*Collector)(nil)

// New creates a collector on reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Collector{
		registerer: reg,
		gatherer:   reg,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func (c *Collector) IncCounter(name string, delta int64) {
	getOrCreate(c, c.counters, name, func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help(name)})
	}).Add(float64(delta))
}

func (c *Collector) SetGauge(name string, value int64) {
	getOrCreate(c, c.gauges, name, func() prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help(name)})
	}).Set(float64(value))
}

func (c *Collector) ObserveHistogram(name string, value float64) {
	getOrCreate(c, c.histograms, name, func() prometheus.Histogram {
		buckets := prometheus.DefBuckets
		if strings.HasSuffix(name, "_seconds") {
			buckets = DurationBuckets
		}
		return prometheus.NewHistogram(prometheus.HistogramOpts{Name: name, Help: help(name), Buckets: buckets})
	}).Observe(value)
}

func help(name string) string {
	if h, ok := stats.Help[name]; ok {
		return h
	}
	return name
}

// getOrCreate returns the metric for name, registering a new one on first use.
func getOrCreate[M prometheus.Collector](c *Collector, metrics map[string]M, name string, create func() M) M {
	c.mu.RLock()
	m, ok := metrics[name]
	c.mu.RUnlock()
	if ok {
		return m
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok = metrics[name]; ok {
		return m
	}

	m = create()
	if err := c.registerer.Register(m); err != nil {
		// Another collector on the same registry got there first.
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(M); ok {
				m = existing
			}
		}
	}
	metrics[name] = m
	return m
}
