package quota

import (
	"math"
	"time"

	"github.com/vnykmshr/quotaflow/pkg/common/errors"
	"github.com/vnykmshr/quotaflow/pkg/common/validation"
)

// Algorithm selects one of the five admission control strategies.
type Algorithm string

const (
	// FixedWindow counts admissions per fixed window, resetting at each boundary.
	FixedWindow Algorithm = "fixed_window"

	// SlidingLog keeps exact admission timestamps within the window.
	SlidingLog Algorithm = "sliding_log"

	// SlidingCounter estimates the sliding window from two fixed-window counts.
	SlidingCounter Algorithm = "sliding_counter"

	// TokenBucket refills permits continuously up to capacity.
	TokenBucket Algorithm = "token_bucket"

	// LeakyBucket drains queued permits continuously at a fixed rate.
	LeakyBucket Algorithm = "leaky_bucket"
)

// Valid reports whether a is one of the five supported algorithms.
func (a Algorithm) Valid() bool {
	switch a {
	case FixedWindow, SlidingLog, SlidingCounter, TokenBucket, LeakyBucket:
		return true
	}
	return false
}

// String returns the algorithm's configuration name.
func (a Algorithm) String() string {
	return string(a)
}

// Policy is an immutable quota configuration. Create it once, validate it,
// and share it; the engine never mutates a Policy.
type Policy struct {
	// Algorithm selects the admission strategy.
	Algorithm Algorithm

	// Capacity is the maximum permits per window, or the bucket size.
	Capacity int64

	// Window is the accounting window for the window-based algorithms.
	Window time.Duration

	// RefillRate is the number of tokens added per RefillInterval (token bucket).
	RefillRate float64

	// RefillInterval is the token bucket refill period.
	RefillInterval time.Duration

	// LeakRate is the number of permits drained per second (leaky bucket).
	LeakRate float64

	// DefaultCost is the permits consumed per check when the caller does not
	// pass an explicit cost. Zero means 1.
	DefaultCost int64
}

// Validate checks the policy fields required by its algorithm.
func (p Policy) Validate() error {
	if !p.Algorithm.Valid() {
		return errors.NewValidationError("quota", "algorithm", p.Algorithm, "unknown algorithm").
			WithHint("use one of fixed_window, sliding_log, sliding_counter, token_bucket, leaky_bucket")
	}
	if err := validation.ValidatePositive("quota", "capacity", int(p.Capacity)); err != nil {
		return err
	}

	switch p.Algorithm {
	case FixedWindow, SlidingLog, SlidingCounter:
		if err := validation.ValidatePositiveDuration("quota", "window", p.Window); err != nil {
			return err
		}
	case TokenBucket:
		if err := validation.ValidatePositiveFloat("quota", "refillRate", p.RefillRate); err != nil {
			return err
		}
		if err := validation.ValidatePositiveDuration("quota", "refillInterval", p.RefillInterval); err != nil {
			return err
		}
	case LeakyBucket:
		if err := validation.ValidatePositiveFloat("quota", "leakRate", p.LeakRate); err != nil {
			return err
		}
	}

	if p.DefaultCost < 0 {
		return errors.NewValidationError("quota", "defaultCost", p.DefaultCost, "cannot be negative").
			WithHint("omit it to consume 1 permit per check")
	}
	return nil
}

// EffectiveDefaultCost returns DefaultCost, or 1 when unset.
func (p Policy) EffectiveDefaultCost() int64 {
	if p.DefaultCost <= 0 {
		return 1
	}
	return p.DefaultCost
}

// StateTTL returns how long a key's idle state stays meaningful. Stores
// attach it as the expiry for lazily created state; expiry is equivalent
// to the key never having been seen, which can only be more permissive.
func (p Policy) StateTTL() time.Duration {
	switch p.Algorithm {
	case FixedWindow, SlidingLog:
		return p.Window
	case SlidingCounter:
		return 2 * p.Window
	case TokenBucket:
		if p.RefillRate <= 0 || p.RefillInterval <= 0 {
			return 0
		}
		intervals := math.Ceil(float64(p.Capacity) / p.RefillRate)
		return 2 * time.Duration(intervals) * p.RefillInterval
	case LeakyBucket:
		if p.LeakRate <= 0 {
			return 0
		}
		drain := float64(p.Capacity) / p.LeakRate
		return 2 * time.Duration(drain*float64(time.Second))
	default:
		return 0
	}
}
