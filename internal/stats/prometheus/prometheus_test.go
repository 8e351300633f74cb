package prometheus

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/discochess/tally/internal/stats"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			if len(f.GetMetric()) == 0 {
				t.Fatalf("metric %s has no samples", name)
			}
			return f.GetMetric()[0]
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func TestNew_NilRegistry(t *testing.T) {
	c := New(nil)
	if c.registerer == nil || c.gatherer == nil {
		t.Fatal("New(nil) left the registry unset")
	}
}

func TestCollector_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncCounter(stats.MetricFetches, 5)
	c.IncCounter(stats.MetricFetches, 3)
	c.SetGauge(stats.MetricCacheSize, 42)
	c.ObserveHistogram(stats.MetricRunSeconds, 0.5)
	c.ObserveHistogram(stats.MetricRunSeconds, 1.5)

	if got := gather(t, reg, stats.MetricFetches).GetCounter().GetValue(); got != 8 {
		t.Errorf("counter value = %v, want 8", got)
	}
	if got := gather(t, reg, stats.MetricCacheSize).GetGauge().GetValue(); got != 42 {
		t.Errorf("gauge value = %v, want 42", got)
	}
	h := gather(t, reg, stats.MetricRunSeconds).GetHistogram()
	if h.GetSampleCount() != 2 {
		t.Errorf("histogram count = %v, want 2", h.GetSampleCount())
	}
	if len(h.GetBucket()) != len(DurationBuckets) {
		t.Errorf("histogram has %d buckets, want %d", len(h.GetBucket()), len(DurationBuckets))
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncCounter("concurrent_counter", 1)
				c.ObserveHistogram("concurrent_histogram", float64(j))
			}
		}()
	}
	wg.Wait()

	if got := gather(t, reg, "concurrent_counter").GetCounter().GetValue(); got != 1000 {
		t.Errorf("counter value = %v, want 1000", got)
	}
	if got := gather(t, reg, "concurrent_histogram").GetHistogram().GetSampleCount(); got != 1000 {
		t.Errorf("histogram count = %v, want 1000", got)
	}
}

func TestCollector_AlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	existing := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "preexisting_counter",
		Help: "preexisting_counter",
	})
	reg.MustRegister(existing)
	existing.Add(100)

	c := New(reg)
	c.IncCounter("preexisting_counter", 5)

	if got := gather(t, reg, "preexisting_counter").GetCounter().GetValue(); got != 105 {
		t.Errorf("counter value = %v, want 105", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := New(nil)
	c.IncCounter(stats.MetricRuns, 1)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), stats.MetricRuns+" 1") {
		t.Errorf("metrics output missing %s:\n%s", stats.MetricRuns, body)
	}
	if !strings.Contains(string(body), stats.Help[stats.MetricRuns]) {
		t.Errorf("metrics output missing help text for %s", stats.MetricRuns)
	}
}
