package limiter

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vnykmshr/quotaflow/pkg/admission/quota"
	"github.com/vnykmshr/quotaflow/pkg/admission/store"
	qferrors "github.com/vnykmshr/quotaflow/pkg/common/errors"
	"github.com/vnykmshr/quotaflow/pkg/common/validation"
)

// BackendErrorPolicy decides the admission outcome when the counter store
// is unreachable.
type BackendErrorPolicy string

const (
	// FailOpen admits requests while the store is unavailable, so an
	// infrastructure outage does not become a total service outage. This
	// is the default; it trades quota enforcement for availability.
	FailOpen BackendErrorPolicy = "allow"

	// FailClosed denies requests while the store is unavailable.
	FailClosed BackendErrorPolicy = "deny"
)

// Valid reports whether p is a recognized policy.
func (p BackendErrorPolicy) Valid() bool {
	switch p {
	case FailOpen, FailClosed:
		return true
	}
	return false
}

// Limiter decides whether keyed requests are admitted under a quota
// policy. Implementations are safe for concurrent use.
type Limiter interface {
	// Check runs an admission check for key at the policy's default cost.
	Check(ctx context.Context, key string) (quota.Decision, error)

	// CheckN runs an admission check consuming cost permits.
	CheckN(ctx context.Context, key string, cost int64) (quota.Decision, error)

	// Peek reports the decision a default-cost check would return without
	// consuming permits. It may lazily materialize the key's initial
	// state, which is indistinguishable from the key being unseen.
	Peek(ctx context.Context, key string) (quota.Decision, error)

	// Policy returns the limiter's quota policy.
	Policy() quota.Policy

	// Name returns the limiter's name, used in logs and metrics.
	Name() string
}

// Config holds the construction parameters for a limiter.
type Config struct {
	// Policy is the quota policy to enforce. Required.
	Policy quota.Policy

	// Store holds per-key counter state. Required. Swapping a local store
	// for a Redis or Memcached one changes whether the quota is
	// per-process or fleet-wide, nothing else.
	Store store.Store

	// Clock provides the current time. If nil, SystemClock is used.
	Clock Clock

	// Name labels this limiter in logs and metrics. Defaults to "default".
	Name string

	// MaxAttempts bounds the load-decide-swap retries under contention.
	// Defaults to 5.
	MaxAttempts int

	// OnBackendError picks fail-open or fail-closed behavior when the
	// store is unreachable. Defaults to FailOpen.
	OnBackendError BackendErrorPolicy

	// CheckTimeout bounds each store operation. Defaults to 100ms.
	CheckTimeout time.Duration

	// Logger receives contention and backend-failure events. If nil, the
	// global zerolog logger is used.
	Logger *zerolog.Logger
}

const (
	defaultName         = "default"
	defaultMaxAttempts  = 5
	defaultCheckTimeout = 100 * time.Millisecond
)

type rateLimiter struct {
	policy         quota.Policy
	store          store.Store
	clock          Clock
	name           string
	maxAttempts    int
	onBackendError BackendErrorPolicy
	checkTimeout   time.Duration
	logger         zerolog.Logger
	ttl            time.Duration
}

// New creates a limiter from cfg, validating the policy and applying
// defaults for unset fields.
func New(cfg Config) (Limiter, error) {
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotNil("limiter", "store", cfg.Store); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts < 0 {
		return nil, qferrors.NewValidationError("limiter", "maxAttempts", cfg.MaxAttempts, "cannot be negative").
			WithHint("omit it to use the default retry budget")
	}
	if cfg.OnBackendError != "" && !cfg.OnBackendError.Valid() {
		return nil, qferrors.NewValidationError("limiter", "onBackendError", cfg.OnBackendError, "unknown policy").
			WithHint(`use "allow" or "deny"`)
	}

	l := &rateLimiter{
		policy:         cfg.Policy,
		store:          cfg.Store,
		clock:          cfg.Clock,
		name:           cfg.Name,
		maxAttempts:    cfg.MaxAttempts,
		onBackendError: cfg.OnBackendError,
		checkTimeout:   cfg.CheckTimeout,
		logger:         log.Logger,
		ttl:            cfg.Policy.StateTTL(),
	}
	if l.clock == nil {
		l.clock = SystemClock{}
	}
	if l.name == "" {
		l.name = defaultName
	}
	if l.maxAttempts == 0 {
		l.maxAttempts = defaultMaxAttempts
	}
	if l.onBackendError == "" {
		l.onBackendError = FailOpen
	}
	if l.checkTimeout <= 0 {
		l.checkTimeout = defaultCheckTimeout
	}
	if cfg.Logger != nil {
		l.logger = *cfg.Logger
	}

	return l, nil
}

func (l *rateLimiter) Check(ctx context.Context, key string) (quota.Decision, error) {
	return l.CheckN(ctx, key, l.policy.EffectiveDefaultCost())
}

func (l *rateLimiter) CheckN(ctx context.Context, key string, cost int64) (quota.Decision, error) {
	if cost <= 0 {
		return quota.Decision{RetryAfter: quota.RetryNever},
			qferrors.NewOperationError("limiter", "check", qferrors.ErrInvalidCost).
				WithContext(fmt.Sprintf("cost=%d", cost))
	}

	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		now := l.clock.Now()

		cur, err := l.load(ctx, key, now)
		if err != nil {
			return l.backendFailure(key, err)
		}

		st, err := quota.DecodeState(cur)
		if err != nil {
			// Unreadable state is treated like TTL expiry: start fresh.
			// That can only be more permissive, never less.
			l.logger.Warn().Str("limiter", l.name).Str("key", key).Err(err).
				Msg("unreadable counter state, reinitializing")
			st = quota.InitialState(l.policy, now)
		}

		d, next := quota.Decide(l.policy, st, now, cost)
		nb, err := next.Encode()
		if err != nil {
			return quota.Decision{}, qferrors.NewOperationError("limiter", "check", err)
		}
		if bytes.Equal(nb, cur) {
			// Nothing to persist; the decision stands without a write.
			return d, nil
		}

		ok, err := l.swap(ctx, key, cur, nb)
		if err != nil {
			return l.backendFailure(key, err)
		}
		if ok {
			l.refreshTTL(ctx, key)
			return d, nil
		}
	}

	l.logger.Warn().Str("limiter", l.name).Str("key", key).Int("attempts", l.maxAttempts).
		Msg("admission check lost every compare-and-swap race")
	return quota.Decision{},
		qferrors.NewOperationError("limiter", "check", qferrors.ErrTooMuchContention).
			WithContext("key=" + key)
}

func (l *rateLimiter) Peek(ctx context.Context, key string) (quota.Decision, error) {
	now := l.clock.Now()

	cur, err := l.load(ctx, key, now)
	if err != nil {
		return l.backendFailure(key, err)
	}

	st, err := quota.DecodeState(cur)
	if err != nil {
		st = quota.InitialState(l.policy, now)
	}

	d, _ := quota.Decide(l.policy, st, now, l.policy.EffectiveDefaultCost())
	return d, nil
}

func (l *rateLimiter) Policy() quota.Policy {
	return l.policy
}

func (l *rateLimiter) Name() string {
	return l.name
}

func (l *rateLimiter) load(ctx context.Context, key string, now time.Time) ([]byte, error) {
	initial, err := quota.InitialState(l.policy, now).Encode()
	if err != nil {
		return nil, qferrors.NewOperationError("limiter", "check", err)
	}

	ctx, cancel := context.WithTimeout(ctx, l.checkTimeout)
	defer cancel()
	return l.store.LoadOrInit(ctx, key, initial, l.ttl)
}

func (l *rateLimiter) swap(ctx context.Context, key string, expected, next []byte) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, l.checkTimeout)
	defer cancel()
	return l.store.CompareAndSwap(ctx, key, expected, next)
}

// refreshTTL pushes the key's idle-reclamation deadline out after a
// successful update. Best effort; a failed refresh at worst expires state
// early, which only resets the key to full quota.
func (l *rateLimiter) refreshTTL(ctx context.Context, key string) {
	if l.ttl <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, l.checkTimeout)
	defer cancel()
	if err := l.store.SetTTL(ctx, key, l.ttl); err != nil {
		l.logger.Debug().Str("limiter", l.name).Str("key", key).Err(err).
			Msg("ttl refresh failed")
	}
}

func (l *rateLimiter) backendFailure(key string, err error) (quota.Decision, error) {
	allowed := l.onBackendError == FailOpen
	l.logger.Error().Str("limiter", l.name).Str("key", key).
		Str("on_backend_error", string(l.onBackendError)).Err(err).
		Msg("counter store unavailable")
	return quota.Decision{Allowed: allowed}, err
}
