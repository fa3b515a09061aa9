/*
Package admission provides multi-algorithm admission control for Go applications.

This package family decides, for a stream of keyed requests, whether each
request is admitted now or rejected with a retry hint, under a configured
quota policy:

  - quota: policies, counter state, and the five pure decision algorithms
  - store: counter state storage with atomic compare-and-swap (local,
    Redis, and Memcached backends)
  - limiter: the facade binding a policy, a store, and a clock

Five algorithms are supported: fixed window, sliding window log, sliding
window counter, token bucket, and leaky bucket. Algorithm logic is pure;
all concurrency safety is delegated to the store's atomic update, so the
same limiter works unchanged whether quota is per-process (local store)
or fleet-wide (Redis or Memcached store).

A minimal single-process limiter:

	st := store.NewLocal(store.LocalConfig{})
	defer st.Close()

	lim, err := limiter.New(limiter.Config{
		Policy: quota.Policy{
			Algorithm: quota.TokenBucket,
			Capacity:  100,
			RefillRate: 10, RefillInterval: time.Second,
		},
		Store: st,
	})
	if err != nil {
		// handle configuration error
	}

	d, err := lim.Check(ctx, "user:42")
	if d.Allowed {
		// admit the request
	}

Decisions carry the raw values an HTTP caller needs for X-RateLimit-Limit,
X-RateLimit-Remaining, and Retry-After headers; formatting is the caller's job.
*/
package admission
