// Package metrics exposes Prometheus instrumentation for the scoring
// and alerting pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all Prometheus metrics for the confluence pipeline.
type Registry struct {
	registry *prometheus.Registry

	CyclesTotal      prometheus.Counter
	CycleDuration    prometheus.Histogram
	SymbolsScored    prometheus.Counter
	AlertsFired      *prometheus.CounterVec
	AlertsSuppressed *prometheus.CounterVec
	PersistErrors    prometheus.Counter
	ActiveRegime     prometheus.Gauge
}

// NewRegistry creates a registry with all pipeline metrics registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "confluence_cycles_total",
			Help: "Total number of completed scan cycles",
		}),

		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "confluence_cycle_duration_seconds",
			Help:    "Duration of each scan cycle in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		}),

		SymbolsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "confluence_symbols_scored_total",
			Help: "Total number of symbol/timeframe bundles scored",
		}),

		AlertsFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "confluence_alerts_fired_total",
			Help: "Total number of alert events fired by type",
		}, []string{"type"}),

		AlertsSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "confluence_alerts_suppressed_total",
			Help: "Total number of qualifying alerts suppressed by reason",
		}, []string{"reason"}),

		PersistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "confluence_state_persist_errors_total",
			Help: "Total number of alert state writes that failed after retry",
		}),

		ActiveRegime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "confluence_active_regime",
			Help: "Current market regime (0=bull, 1=sideways, 2=bear)",
		}),
	}

	r.registry.MustRegister(
		r.CyclesTotal,
		r.CycleDuration,
		r.SymbolsScored,
		r.AlertsFired,
		r.AlertsSuppressed,
		r.PersistErrors,
		r.ActiveRegime,
	)
	return r
}

// Gatherer exposes the underlying registry for the /metrics handler.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
