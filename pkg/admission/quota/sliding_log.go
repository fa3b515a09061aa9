package quota

import "time"

// decideSlidingLog keeps the exact timestamps of admitted permits. A check
// prunes entries older than the window, then admits if the remainder plus
// cost fits capacity, appending cost entries at now. Exact, at the price of
// O(capacity) state per key.
func decideSlidingLog(p Policy, st State, nowMs, cost int64) (Decision, State) {
	window := p.Window.Milliseconds()

	kept := make([]int64, 0, len(st.Timestamps))
	for _, ts := range st.Timestamps {
		if nowMs-ts < window {
			kept = append(kept, ts)
		}
	}
	st.Timestamps = kept

	remaining := p.Capacity - int64(len(kept))
	if cost > p.Capacity {
		return Decision{Remaining: remaining, RetryAfter: RetryNever}, st
	}

	if int64(len(kept))+cost <= p.Capacity {
		for i := int64(0); i < cost; i++ {
			st.Timestamps = append(st.Timestamps, nowMs)
		}
		return Decision{Allowed: true, Remaining: p.Capacity - int64(len(st.Timestamps))}, st
	}

	// Entries are appended in admission order, so the head is the oldest.
	retry := time.Duration(kept[0]+window-nowMs) * time.Millisecond
	return Decision{Remaining: remaining, RetryAfter: retry}, st
}
