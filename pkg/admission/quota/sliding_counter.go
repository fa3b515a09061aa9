package quota

import "time"

// decideSlidingCounter approximates a sliding window from the previous and
// current fixed-window counts, weighting the previous count by how much of
// it still overlaps the sliding window. O(1) state; may admit marginally
// more or fewer than capacity under uneven arrival patterns, accepted by
// design.
func decideSlidingCounter(p Policy, st State, nowMs, cost int64) (Decision, State) {
	window := p.Window.Milliseconds()

	elapsed := nowMs - st.CurrWindowStart
	switch {
	case elapsed >= 2*window:
		// Idle for at least a full window beyond the current one: nothing
		// from either count overlaps anymore.
		st.PrevCount = 0
		st.CurrCount = 0
		st.CurrWindowStart = nowMs
	case elapsed >= window:
		st.PrevCount = st.CurrCount
		st.CurrCount = 0
		st.CurrWindowStart += window
	}

	inWindow := nowMs - st.CurrWindowStart
	weight := float64(window-inWindow) / float64(window)
	estimate := float64(st.PrevCount)*weight + float64(st.CurrCount)

	remaining := int64(float64(p.Capacity) - estimate)
	if remaining < 0 {
		remaining = 0
	}
	if cost > p.Capacity {
		return Decision{Remaining: remaining, RetryAfter: RetryNever}, st
	}

	if estimate+float64(cost) <= float64(p.Capacity) {
		st.CurrCount += cost
		left := int64(float64(p.Capacity) - estimate - float64(cost))
		if left < 0 {
			left = 0
		}
		return Decision{Allowed: true, Remaining: left}, st
	}

	retry := time.Duration(st.CurrWindowStart+window-nowMs) * time.Millisecond
	return Decision{Remaining: remaining, RetryAfter: retry}, st
}
