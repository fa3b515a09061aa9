package quota

import "time"

// Decide applies the policy's algorithm to state as of now and returns the
// decision together with the updated state. It is a pure function: no I/O,
// no locking, no clock reads. Callers are responsible for persisting the
// returned state atomically and for validating cost > 0 beforehand.
//
// A cost exceeding capacity is denied with RetryNever regardless of state.
func Decide(p Policy, st State, now time.Time, cost int64) (Decision, State) {
	nowMs := now.UnixMilli()

	switch p.Algorithm {
	case FixedWindow:
		return decideFixedWindow(p, st, nowMs, cost)
	case SlidingLog:
		return decideSlidingLog(p, st, nowMs, cost)
	case SlidingCounter:
		return decideSlidingCounter(p, st, nowMs, cost)
	case TokenBucket:
		return decideTokenBucket(p, st, nowMs, cost)
	case LeakyBucket:
		return decideLeakyBucket(p, st, nowMs, cost)
	default:
		return Decision{Allowed: false, RetryAfter: RetryNever}, st
	}
}

// InitialState returns the "full quota, no history" state a key starts from.
func InitialState(p Policy, now time.Time) State {
	nowMs := now.UnixMilli()
	switch p.Algorithm {
	case FixedWindow:
		return State{WindowStart: nowMs}
	case SlidingCounter:
		return State{CurrWindowStart: nowMs}
	case TokenBucket:
		return State{Tokens: float64(p.Capacity), LastRefill: nowMs}
	case LeakyBucket:
		return State{LastLeak: nowMs}
	default:
		return State{}
	}
}
