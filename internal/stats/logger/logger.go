// Package logger provides a stats collector that writes metrics to zap.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/discochess/tally/internal/stats"
)

// Collector implements stats.Collector by logging each update.
type Collector struct {
	logger *zap.Logger
	level  zapcore.Level
}

var _ stats.Collector = (*Collector)(nil)

// Option configures a Collector.
type Option func(*Collector)

// WithLevel sets the level metric lines are logged at. Default is debug.
func WithLevel(level zapcore.Level) Option {
	return func(c *Collector) {
		c.level = level
	}
}

// New creates a logger-backed collector. A nil logger discards everything.
func New(logger *zap.Logger, opts ...Option) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{logger: logger.Named("stats"), level: zapcore.DebugLevel}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Collector) IncCounter(name string, delta int64) {
	c.logger.Log(c.level, "counter", zap.String("metric", name), zap.Int64("delta", delta))
}

func (c *Collector) SetGauge(name string, value int64) {
	c.logger.Log(c.level, "gauge", zap.String("metric", name), zap.Int64("value", value))
}

func (c *Collector) ObserveHistogram(name string, value float64) {
	c.logger.Log(c.level, "histogram", zap.String("metric", name), zap.Float64("value", value))
}
