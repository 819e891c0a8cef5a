// Package observability assembles the telemetry ports from concrete adapters.
package observability

import (
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
)

type telemetry struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics observability.Metrics
}

func (t *telemetry) Tracer() observability.Tracer   { return t.tracer }
func (t *telemetry) Logger() observability.Logger   { return t.logger }
func (t *telemetry) Metrics() observability.Metrics { return t.metrics }

// instruments resolves metric keys against what was registered at startup.
// Keys nobody registered resolve to no-ops so use cases never branch on it.
type instruments struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

func (m instruments) Counter(key observability.MetricKey) observability.Counter {
	return lookup(m.counters, key, observability.NopCounter())
}

func (m instruments) Histogram(key observability.MetricKey) observability.Histogram {
	return lookup(m.histograms, key, observability.NopHistogram())
}

func lookup[T comparable](set map[observability.MetricKey]T, key observability.MetricKey, nop T) T {
	var zero T
	if v, ok := set[key]; ok && v != zero {
		return v
	}
	return nop
}

// New returns an Observability whose nil parts are replaced by no-ops.
func New(
	tracer observability.Tracer,
	logger observability.Logger,
	counters map[observability.MetricKey]observability.Counter,
	histograms map[observability.MetricKey]observability.Histogram,
) observability.Observability {
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	var metrics observability.Metrics = observability.NopMetrics()
	if len(counters) > 0 || len(histograms) > 0 {
		metrics = instruments{counters: counters, histograms: histograms}
	}
	return &telemetry{tracer: tracer, logger: logger, metrics: metrics}
}
