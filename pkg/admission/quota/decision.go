package quota

import "time"

// RetryNever marks a denial that cannot succeed under the current policy,
// as opposed to zero, which means "retry immediately".
const RetryNever time.Duration = -1

// Decision is the outcome of an admission check. Remaining and RetryAfter
// supply the raw values for X-RateLimit-Remaining and Retry-After headers;
// formatting them is the transport's job.
type Decision struct {
	// Allowed reports whether the request is admitted.
	Allowed bool

	// Remaining is the number of single-permit requests the key could still
	// admit right now.
	Remaining int64

	// RetryAfter hints when a denied request may succeed. RetryNever means
	// it cannot succeed under this policy (for example, cost > capacity).
	RetryAfter time.Duration
}

// Retryable reports whether a denied request may eventually succeed.
func (d Decision) Retryable() bool {
	return !d.Allowed && d.RetryAfter != RetryNever
}
