package enhancer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage outcomes recorded by Metrics.
const (
	OutcomeSuccess = "success"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics holds Prometheus metrics for pipeline stages. A nil *Metrics
// records nothing.
//
// Metrics:
//   - enrich_enhancer_runs_total{enhancer,outcome}
//   - enrich_enhancer_duration_seconds{enhancer}
//   - enrich_team_fetch_errors_total{feature}
type Metrics struct {
	Runs        *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	FetchErrors *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg. A nil reg
// leaves them unregistered, which suits tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enrich_enhancer_runs_total",
				Help: "Enhancer stages by outcome",
			},
			[]string{"enhancer", "outcome"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "enrich_enhancer_duration_seconds",
				Help:    "Duration of enhancer stages in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"enhancer"},
		),
		FetchErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enrich_team_fetch_errors_total",
				Help: "Team activity collaborator failures by sub-feature",
			},
			[]string{"feature"},
		),
	}
}

func (m *Metrics) stage(name, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(name, outcome).Inc()
	if outcome != OutcomeSkipped {
		m.Duration.WithLabelValues(name).Observe(d.Seconds())
	}
}

func (m *Metrics) fetchError(feature string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(feature).Inc()
}
