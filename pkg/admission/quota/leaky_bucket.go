package quota

import (
	"math"
	"time"
)

// decideLeakyBucket drains the queue depth continuously at leakRate permits
// per second. Depth is accounted as a float so frequent checks cannot starve
// the drain; externally it still behaves as a whole-permit count.
func decideLeakyBucket(p Policy, st State, nowMs, cost int64) (Decision, State) {
	elapsed := nowMs - st.LastLeak
	if elapsed > 0 {
		leak := float64(elapsed) / 1000.0 * p.LeakRate
		st.QueueDepth = math.Max(0, st.QueueDepth-leak)
		st.LastLeak = nowMs
	}

	remaining := int64(float64(p.Capacity) - st.QueueDepth)
	if cost > p.Capacity {
		return Decision{Remaining: remaining, RetryAfter: RetryNever}, st
	}

	if st.QueueDepth+float64(cost) <= float64(p.Capacity) {
		st.QueueDepth += float64(cost)
		return Decision{Allowed: true, Remaining: int64(float64(p.Capacity) - st.QueueDepth)}, st
	}

	retry := time.Duration(math.Ceil(1.0/p.LeakRate)) * time.Second
	return Decision{Remaining: remaining, RetryAfter: retry}, st
}
