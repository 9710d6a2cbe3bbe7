// Package metrics holds the Prometheus metrics for the validation module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates the validation module's Prometheus collectors.
// All methods are nil-safe so wiring metrics stays optional in tests.
type Metrics struct {
	Submissions       *prometheus.CounterVec
	Executions        *prometheus.CounterVec
	ExecutionDuration prometheus.Histogram
	QueueDepth        prometheus.Gauge
	ClaimsLost        prometheus.Counter
}

// New creates and registers all validation metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollcheck_submissions_total",
			Help: "Validation submissions by outcome (accepted, invalid_format, unavailable)",
		}, []string{"outcome"}),
		Executions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollcheck_executions_total",
			Help: "Finished validation executions by terminal status",
		}, []string{"status"}),
		ExecutionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "enrollcheck_execution_duration_seconds",
			Help:    "Wall time of a claimed validation execution",
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "enrollcheck_queue_depth",
			Help: "Number of enqueued validations waiting for a worker",
		}),
		ClaimsLost: promauto.NewCounter(prometheus.CounterOpts{
			Name: "enrollcheck_claims_lost_total",
			Help: "Enqueued executions abandoned because another worker claimed the process first",
		}),
	}
}

func (m *Metrics) RecordSubmission(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordExecution(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.Executions.WithLabelValues(status).Inc()
	m.ExecutionDuration.Observe(d.Seconds())
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

func (m *Metrics) RecordClaimLost() {
	if m == nil {
		return
	}
	m.ClaimsLost.Inc()
}
