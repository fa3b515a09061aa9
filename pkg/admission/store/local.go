package store

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	qferrors "github.com/vnykmshr/quotaflow/pkg/common/errors"
)

// Clock provides the current time. It can be mocked for testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// DefaultSweepInterval is how often the local store reclaims expired
// entries when no interval is configured.
const DefaultSweepInterval = time.Minute

// LocalConfig configures the in-process store.
type LocalConfig struct {
	// SweepInterval is how often expired entries are reclaimed in the
	// background. Zero uses DefaultSweepInterval; a negative value
	// disables the sweep, leaving cleanup to lazy expiry on access.
	SweepInterval time.Duration

	// Clock provides the current time. If nil, SystemClock is used.
	Clock Clock
}

// Local is an in-process Store for single-process admission control. A
// single mutex guards the key map; entries expire lazily on access and
// eagerly via a periodic background sweep.
type Local struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	clock   Clock
	sweeper *cron.Cron
	closed  bool
}

type localEntry struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

// NewLocal creates an in-process store. Call Close to stop the background
// sweep when the store is no longer needed.
func NewLocal(cfg LocalConfig) *Local {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}

	l := &Local{
		entries: make(map[string]*localEntry),
		clock:   cfg.Clock,
	}

	interval := cfg.SweepInterval
	if interval == 0 {
		interval = DefaultSweepInterval
	}
	if interval > 0 {
		l.sweeper = cron.New()
		// The schedule spec is built from a valid duration, so AddFunc
		// cannot fail here.
		_, _ = l.sweeper.AddFunc(fmt.Sprintf("@every %s", interval), l.sweep)
		l.sweeper.Start()
	}

	return l
}

// LoadOrInit returns the state under key, creating it from initial when
// the key is absent or its previous state expired.
func (l *Local) LoadOrInit(ctx context.Context, key string, initial []byte, ttl time.Duration) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, qferrors.ErrClosed
	}

	now := l.clock.Now()
	if e, ok := l.entries[key]; ok && !e.expired(now) {
		return e.data, nil
	}

	e := &localEntry{data: append([]byte(nil), initial...)}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	l.entries[key] = e
	return e.data, nil
}

// CompareAndSwap replaces the state under key only if it still equals
// expected. An absent or expired key reports a conflict, not an error.
func (l *Local) CompareAndSwap(ctx context.Context, key string, expected, next []byte) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false, qferrors.ErrClosed
	}

	e, ok := l.entries[key]
	if !ok || e.expired(l.clock.Now()) {
		return false, nil
	}
	if !bytes.Equal(e.data, expected) {
		return false, nil
	}

	e.data = append([]byte(nil), next...)
	return true, nil
}

// SetTTL refreshes the expiry deadline for key. A missing key is a no-op.
func (l *Local) SetTTL(ctx context.Context, key string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return qferrors.ErrClosed
	}

	e, ok := l.entries[key]
	if !ok || e.expired(l.clock.Now()) {
		return nil
	}
	if ttl > 0 {
		e.expiresAt = l.clock.Now().Add(ttl)
	} else {
		e.expiresAt = time.Time{}
	}
	return nil
}

// Len reports the number of entries currently held, including entries
// that have expired but not yet been swept.
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Close stops the background sweep and releases all state. Subsequent
// operations return ErrClosed.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	l.entries = nil
	if l.sweeper != nil {
		l.sweeper.Stop()
	}
	return nil
}

func (l *Local) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	now := l.clock.Now()
	for key, e := range l.entries {
		if e.expired(now) {
			delete(l.entries, key)
		}
	}
}

func (e *localEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}
