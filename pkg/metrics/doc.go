// Package metrics provides Prometheus instrumentation for quotaflow limiters.
//
// # Quick Start
//
// Enable metrics with the metrics-enabled limiter constructor:
//
//	lim, err := limiter.NewWithMetrics(limiter.Config{
//		Policy: policy,
//		Store:  st,
//		Name:   "api",
//	}, metrics.DefaultConfig())
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation:
//
//	registry := prometheus.NewRegistry()
//	lim, err := limiter.NewWithMetrics(cfg, metrics.Config{
//		Enabled:  true,
//		Registry: registry,
//	})
//
// # Available Metrics
//
//   - quotaflow_admission_requests_total: Total number of admission checks
//   - quotaflow_admission_allowed_total: Total number of admitted checks
//   - quotaflow_admission_denied_total: Total number of denied checks
//   - quotaflow_admission_errors_total: Total number of failed checks by reason
//   - quotaflow_admission_contention_total: Checks that exhausted the CAS retry budget
//   - quotaflow_admission_check_duration_seconds: End-to-end check latency
//   - quotaflow_admission_remaining_permits: Remaining quota per limiter
//
// # Labels
//
//   - limiter_name: user-provided name for the limiter instance
//   - algorithm: "fixed_window", "sliding_log", "sliding_counter",
//     "token_bucket", or "leaky_bucket"
//   - reason (errors only): "backend_unavailable", "contention",
//     "invalid_cost", or "other"
//
// # Performance
//
// Metrics are updated only when checks occur; there are no background
// goroutines or timers, and label values are fixed per limiter.
package metrics
