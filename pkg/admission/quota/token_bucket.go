package quota

import (
	"math"
	"time"
)

// decideTokenBucket refills tokens continuously in proportion to elapsed
// time, so fractional intervals are never lost across frequent checks, and
// advances lastRefill whenever time has moved regardless of the outcome.
// Tokens accrue exactly with elapsed time, never ahead of it.
func decideTokenBucket(p Policy, st State, nowMs, cost int64) (Decision, State) {
	elapsed := nowMs - st.LastRefill
	if elapsed > 0 {
		refill := float64(elapsed) / float64(p.RefillInterval.Milliseconds()) * p.RefillRate
		st.Tokens = math.Min(float64(p.Capacity), st.Tokens+refill)
		st.LastRefill = nowMs
	}

	remaining := int64(st.Tokens)
	if cost > p.Capacity {
		return Decision{Remaining: remaining, RetryAfter: RetryNever}, st
	}

	if st.Tokens >= float64(cost) {
		st.Tokens -= float64(cost)
		return Decision{Allowed: true, Remaining: int64(st.Tokens)}, st
	}

	intervals := math.Ceil((float64(cost) - st.Tokens) / p.RefillRate)
	retry := time.Duration(intervals) * p.RefillInterval
	return Decision{Remaining: remaining, RetryAfter: retry}, st
}
