package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/quotaflow/pkg/admission/quota"
	qferrors "github.com/vnykmshr/quotaflow/pkg/common/errors"
	"github.com/vnykmshr/quotaflow/pkg/metrics"
)

// MetricsLimiter wraps a Limiter with Prometheus metrics collection.
type MetricsLimiter struct {
	limiter   Limiter
	name      string
	algorithm string
	registry  *metrics.Registry
}

// NewWithMetrics creates a limiter from cfg with admission metrics
// recorded per metricsConfig. When metrics are disabled the bare limiter
// is returned.
func NewWithMetrics(cfg Config, metricsConfig metrics.Config) (Limiter, error) {
	base, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if !metricsConfig.Enabled {
		return base, nil
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil && metricsConfig.Registry != prometheus.DefaultRegisterer {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	return &MetricsLimiter{
		limiter:   base,
		name:      base.Name(),
		algorithm: base.Policy().Algorithm.String(),
		registry:  registry,
	}, nil
}

// Check runs an admission check at the policy's default cost.
func (ml *MetricsLimiter) Check(ctx context.Context, key string) (quota.Decision, error) {
	return ml.CheckN(ctx, key, ml.limiter.Policy().EffectiveDefaultCost())
}

// CheckN runs an admission check consuming cost permits.
func (ml *MetricsLimiter) CheckN(ctx context.Context, key string, cost int64) (quota.Decision, error) {
	start := time.Now()
	ml.registry.AdmissionRequests.WithLabelValues(ml.name, ml.algorithm).Inc()

	d, err := ml.limiter.CheckN(ctx, key, cost)

	ml.registry.CheckDuration.WithLabelValues(ml.name, ml.algorithm).
		Observe(time.Since(start).Seconds())

	if err != nil {
		ml.registry.AdmissionErrors.WithLabelValues(ml.name, ml.algorithm, errorReason(err)).Inc()
		if errors.Is(err, qferrors.ErrTooMuchContention) {
			ml.registry.AdmissionContention.WithLabelValues(ml.name, ml.algorithm).Inc()
		}
	}

	if d.Allowed {
		ml.registry.AdmissionAllowed.WithLabelValues(ml.name, ml.algorithm).Inc()
	} else {
		ml.registry.AdmissionDenied.WithLabelValues(ml.name, ml.algorithm).Inc()
	}
	ml.registry.RemainingPermits.WithLabelValues(ml.name, ml.algorithm).Set(float64(d.Remaining))

	return d, err
}

// Peek reports the decision a default-cost check would return without
// consuming permits. Peeks are not counted as requests.
func (ml *MetricsLimiter) Peek(ctx context.Context, key string) (quota.Decision, error) {
	d, err := ml.limiter.Peek(ctx, key)
	if err == nil {
		ml.registry.RemainingPermits.WithLabelValues(ml.name, ml.algorithm).Set(float64(d.Remaining))
	}
	return d, err
}

// Policy returns the wrapped limiter's quota policy.
func (ml *MetricsLimiter) Policy() quota.Policy {
	return ml.limiter.Policy()
}

// Name returns the wrapped limiter's name.
func (ml *MetricsLimiter) Name() string {
	return ml.name
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, qferrors.ErrBackendUnavailable):
		return "backend_unavailable"
	case errors.Is(err, qferrors.ErrTooMuchContention):
		return "contention"
	case errors.Is(err, qferrors.ErrInvalidCost):
		return "invalid_cost"
	default:
		return "other"
	}
}
