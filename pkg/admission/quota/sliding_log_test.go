package quota

import (
	"testing"
	"time"

	"github.com/vnykmshr/quotaflow/internal/testutil"
)

func slidingLogPolicy(capacity int64, window time.Duration) Policy {
	return Policy{Algorithm: SlidingLog, Capacity: capacity, Window: window}
}

func TestSlidingLogExactness(t *testing.T) {
	// Admits never exceed capacity within any exact sliding window.
	p := slidingLogPolicy(3, 10*time.Second)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st := InitialState(p, base)

	var d Decision
	for _, offset := range []time.Duration{0, 4 * time.Second, 8 * time.Second} {
		d, st = Decide(p, st, base.Add(offset), 1)
		if !d.Allowed {
			t.Fatalf("check at +%v should be allowed", offset)
		}
	}

	// At +9s all three admissions are still inside the window
	d, st = Decide(p, st, base.Add(9*time.Second), 1)
	if d.Allowed {
		t.Fatal("4th check inside the window should be denied")
	}
	testutil.AssertEqual(t, d.RetryAfter, time.Second)
	testutil.AssertEqual(t, d.Remaining, int64(0))

	// At +10s the oldest entry has left the window
	d, st = Decide(p, st, base.Add(10*time.Second), 1)
	if !d.Allowed {
		t.Fatal("check after oldest entry expired should be allowed")
	}
	testutil.AssertEqual(t, len(st.Timestamps), 3)
}

func TestSlidingLogPrune(t *testing.T) {
	p := slidingLogPolicy(5, 10*time.Second)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st := InitialState(p, base)

	for i := 0; i < 5; i++ {
		_, st = Decide(p, st, base.Add(time.Duration(i)*time.Second), 1)
	}
	testutil.AssertEqual(t, len(st.Timestamps), 5)

	// After a long gap everything is pruned, even on a denied oversized check
	d, st := Decide(p, st, base.Add(time.Hour), 6)
	if d.Allowed {
		t.Fatal("cost above capacity should be denied")
	}
	testutil.AssertEqual(t, len(st.Timestamps), 0)
}

func TestSlidingLogCostAppendsEntries(t *testing.T) {
	// cost consumes that many log entries
	p := slidingLogPolicy(5, time.Minute)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st := InitialState(p, base)

	d, st := Decide(p, st, base, 3)
	if !d.Allowed {
		t.Fatal("cost 3 should be allowed")
	}
	testutil.AssertEqual(t, len(st.Timestamps), 3)
	testutil.AssertEqual(t, d.Remaining, int64(2))

	d, st = Decide(p, st, base, 3)
	if d.Allowed {
		t.Fatal("cost 3 should not fit remaining 2")
	}
	testutil.AssertEqual(t, len(st.Timestamps), 3)

	d, st = Decide(p, st, base, 2)
	if !d.Allowed {
		t.Fatal("cost 2 should exactly fit")
	}
	testutil.AssertEqual(t, len(st.Timestamps), 5)
	testutil.AssertEqual(t, d.Remaining, int64(0))
}

func TestSlidingLogRetryAfterTracksOldest(t *testing.T) {
	p := slidingLogPolicy(2, 10*time.Second)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st := InitialState(p, base)

	_, st = Decide(p, st, base, 1)
	_, st = Decide(p, st, base.Add(6*time.Second), 1)

	// Denied at +7s: the oldest entry (t=0) exits at +10s
	d, st := Decide(p, st, base.Add(7*time.Second), 1)
	if d.Allowed {
		t.Fatal("check should be denied at capacity")
	}
	testutil.AssertEqual(t, d.RetryAfter, 3*time.Second)

	// Denied at +11s: only the +6s entry remains, exits at +16s
	_, st = Decide(p, st, base.Add(10*time.Second), 1)
	d, _ = Decide(p, st, base.Add(11*time.Second), 1)
	if d.Allowed {
		t.Fatal("check should be denied at capacity")
	}
	testutil.AssertEqual(t, d.RetryAfter, 5*time.Second)
}

func TestSlidingLogNoBoundaryBurst(t *testing.T) {
	// Unlike the fixed window, a sliding log admits at most capacity in any
	// window-sized span, boundaries included.
	p := slidingLogPolicy(5, time.Minute)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st := InitialState(p, base)

	admitted := 0
	var d Decision
	for i := 0; i < 5; i++ {
		d, st = Decide(p, st, base.Add(59*time.Second), 1)
		if d.Allowed {
			admitted++
		}
	}
	for i := 0; i < 5; i++ {
		d, st = Decide(p, st, base.Add(60*time.Second), 1)
		if d.Allowed {
			admitted++
		}
	}

	testutil.AssertEqual(t, admitted, 5)
}
