// Package metrics provides Prometheus instrumentation for quotaflow limiters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for quotaflow limiters. Metrics are
// labeled with the limiter name and its algorithm.
type Registry struct {
	// AdmissionRequests counts every admission check.
	AdmissionRequests *prometheus.CounterVec

	// AdmissionAllowed counts admitted checks.
	AdmissionAllowed *prometheus.CounterVec

	// AdmissionDenied counts denied checks.
	AdmissionDenied *prometheus.CounterVec

	// AdmissionErrors counts failed checks by reason
	// (backend_unavailable, contention, invalid_cost, other).
	AdmissionErrors *prometheus.CounterVec

	// AdmissionContention counts checks that exhausted the
	// compare-and-swap retry budget.
	AdmissionContention *prometheus.CounterVec

	// CheckDuration observes end-to-end admission check latency.
	CheckDuration *prometheus.HistogramVec

	// RemainingPermits tracks the remaining quota reported by the most
	// recent check per limiter.
	RemainingPermits *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by quotaflow limiters.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		AdmissionRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quotaflow",
				Subsystem: "admission",
				Name:      "requests_total",
				Help:      "Total number of admission checks",
			},
			[]string{"limiter_name", "algorithm"},
		),

		AdmissionAllowed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quotaflow",
				Subsystem: "admission",
				Name:      "allowed_total",
				Help:      "Total number of admitted checks",
			},
			[]string{"limiter_name", "algorithm"},
		),

		AdmissionDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quotaflow",
				Subsystem: "admission",
				Name:      "denied_total",
				Help:      "Total number of denied checks",
			},
			[]string{"limiter_name", "algorithm"},
		),

		AdmissionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quotaflow",
				Subsystem: "admission",
				Name:      "errors_total",
				Help:      "Total number of failed checks by reason",
			},
			[]string{"limiter_name", "algorithm", "reason"},
		),

		AdmissionContention: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quotaflow",
				Subsystem: "admission",
				Name:      "contention_total",
				Help:      "Total number of checks that exhausted the compare-and-swap retry budget",
			},
			[]string{"limiter_name", "algorithm"},
		),

		CheckDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "quotaflow",
				Subsystem: "admission",
				Name:      "check_duration_seconds",
				Help:      "End-to-end admission check latency",
				// Checks range from in-memory map hits to remote store
				// round trips, so the buckets start well below 1ms.
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
			},
			[]string{"limiter_name", "algorithm"},
		),

		RemainingPermits: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "quotaflow",
				Subsystem: "admission",
				Name:      "remaining_permits",
				Help:      "Remaining quota reported by the most recent check",
			},
			[]string{"limiter_name", "algorithm"},
		),
	}
}
