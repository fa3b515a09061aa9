package quota

import "time"

// decideFixedWindow counts admissions per window and resets the counter when
// the window rolls. Up to 2x capacity can be admitted across a boundary;
// that burst is inherent to the algorithm and part of its contract.
func decideFixedWindow(p Policy, st State, nowMs, cost int64) (Decision, State) {
	window := p.Window.Milliseconds()

	if nowMs-st.WindowStart >= window {
		st.Count = 0
		st.WindowStart = nowMs
	}

	remaining := p.Capacity - st.Count
	if cost > p.Capacity {
		return Decision{Remaining: remaining, RetryAfter: RetryNever}, st
	}

	if st.Count+cost <= p.Capacity {
		st.Count += cost
		return Decision{Allowed: true, Remaining: p.Capacity - st.Count}, st
	}

	retry := time.Duration(st.WindowStart+window-nowMs) * time.Millisecond
	return Decision{Remaining: remaining, RetryAfter: retry}, st
}
