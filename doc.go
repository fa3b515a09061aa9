/*
Package quotaflow provides multi-algorithm admission control for Go
applications, from a single process to a fleet sharing quota through
Redis or Memcached.

Admission Control (pkg/admission):
  - quota: policies, counter state, and the five decision algorithms
    (fixed window, sliding log, sliding counter, token bucket, leaky bucket)
  - store: counter state backends with atomic compare-and-swap
    (local, Redis, Memcached)
  - limiter: the facade binding policy + store + clock

Supporting packages:
  - config: YAML-driven construction of named limiters
  - metrics: Prometheus instrumentation
  - common/errors, common/validation: shared error and validation helpers

Example usage:

	import (
		"github.com/vnykmshr/quotaflow/pkg/admission/limiter"
		"github.com/vnykmshr/quotaflow/pkg/admission/quota"
		"github.com/vnykmshr/quotaflow/pkg/admission/store"
	)

	st := store.NewLocal(store.LocalConfig{})
	defer st.Close()

	lim, err := limiter.New(limiter.Config{
		Policy: quota.Policy{
			Algorithm:      quota.TokenBucket,
			Capacity:       100,
			RefillRate:     10,
			RefillInterval: time.Second,
		},
		Store: st,
	})

	d, err := lim.Check(ctx, "user:42")
	if d.Allowed {
		// admit the request
	}
*/
package quotaflow
