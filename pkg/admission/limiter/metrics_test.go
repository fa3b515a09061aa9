package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/quotaflow/internal/testutil"
	"github.com/vnykmshr/quotaflow/pkg/admission/quota"
	"github.com/vnykmshr/quotaflow/pkg/admission/store"
	"github.com/vnykmshr/quotaflow/pkg/metrics"
)

func TestNewWithMetricsDisabledReturnsBareLimiter(t *testing.T) {
	st := store.NewLocal(store.LocalConfig{SweepInterval: -1})
	defer st.Close()

	lim, err := NewWithMetrics(Config{
		Policy: quota.Policy{Algorithm: quota.FixedWindow, Capacity: 5, Window: time.Minute},
		Store:  st,
	}, metrics.Config{Enabled: false})
	testutil.AssertNoError(t, err)

	if _, ok := lim.(*MetricsLimiter); ok {
		t.Fatal("disabled metrics should not wrap the limiter")
	}
}

func TestMetricsLimiterRecordsOutcomes(t *testing.T) {
	st := store.NewLocal(store.LocalConfig{SweepInterval: -1})
	defer st.Close()

	reg := prometheus.NewRegistry()
	lim, err := NewWithMetrics(Config{
		Policy: quota.Policy{Algorithm: quota.FixedWindow, Capacity: 2, Window: time.Minute},
		Store:  st,
		Name:   "api",
	}, metrics.Config{Enabled: true, Registry: reg})
	testutil.AssertNoError(t, err)

	ml := lim.(*MetricsLimiter)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := lim.Check(ctx, "k")
		testutil.AssertNoError(t, err)
	}

	requests := ml.registry.AdmissionRequests.WithLabelValues("api", "fixed_window")
	allowed := ml.registry.AdmissionAllowed.WithLabelValues("api", "fixed_window")
	denied := ml.registry.AdmissionDenied.WithLabelValues("api", "fixed_window")
	remaining := ml.registry.RemainingPermits.WithLabelValues("api", "fixed_window")

	testutil.AssertEqual(t, promtestutil.ToFloat64(requests), 3.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(allowed), 2.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(denied), 1.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(remaining), 0.0)
}

func TestMetricsLimiterRecordsErrorReason(t *testing.T) {
	reg := prometheus.NewRegistry()
	lim, err := NewWithMetrics(Config{
		Policy: quota.Policy{Algorithm: quota.FixedWindow, Capacity: 2, Window: time.Minute},
		Store:  store.NewLocal(store.LocalConfig{SweepInterval: -1}),
		Name:   "api",
	}, metrics.Config{Enabled: true, Registry: reg})
	testutil.AssertNoError(t, err)

	ml := lim.(*MetricsLimiter)
	_, err = lim.CheckN(context.Background(), "k", 0)
	testutil.AssertError(t, err)

	invalid := ml.registry.AdmissionErrors.WithLabelValues("api", "fixed_window", "invalid_cost")
	testutil.AssertEqual(t, promtestutil.ToFloat64(invalid), 1.0)
}
