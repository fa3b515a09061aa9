package store

import (
	"bytes"
	"context"
	"math"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	qferrors "github.com/vnykmshr/quotaflow/pkg/common/errors"
)

// MemcacheClient is the narrow slice of *memcache.Client the store needs,
// declared as an interface so unit tests can substitute a fake.
type MemcacheClient interface {
	Get(key string) (*memcache.Item, error)
	Add(item *memcache.Item) error
	CompareAndSwap(item *memcache.Item) error
	Touch(key string, seconds int32) error
}

// MemcacheConfig configures the Memcached-backed store.
type MemcacheConfig struct {
	// Client is the Memcached connection. Required; the caller owns it.
	Client MemcacheClient

	// KeyPrefix namespaces this store's keys. Defaults to DefaultKeyPrefix.
	KeyPrefix string
}

// Memcache adapts the Store contract onto Memcached's native CAS tokens:
// Get returns an item carrying a hidden CAS id, and CompareAndSwap on that
// item succeeds only while the key is unchanged since the Get.
//
// Memcached operations are not context-aware; bound their latency through
// the client's Timeout instead. Expiry granularity is whole seconds.
type Memcache struct {
	client    MemcacheClient
	keyPrefix string
}

// NewMemcache creates a Memcached-backed store.
func NewMemcache(cfg MemcacheConfig) (*Memcache, error) {
	if cfg.Client == nil {
		return nil, qferrors.NewValidationError("store", "client", nil, "cannot be nil").
			WithHint("provide a memcache client")
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	return &Memcache{client: cfg.Client, keyPrefix: prefix}, nil
}

// LoadOrInit returns the state under key, creating it from initial when
// absent. Losing the creation race to another process is not an error;
// the winner's state is authoritative.
func (m *Memcache) LoadOrInit(ctx context.Context, key string, initial []byte, ttl time.Duration) ([]byte, error) {
	k := m.keyPrefix + key

	item, err := m.client.Get(k)
	if err == nil {
		return item.Value, nil
	}
	if err != memcache.ErrCacheMiss {
		return nil, backendUnavailable("loadOrInit", err)
	}

	err = m.client.Add(&memcache.Item{Key: k, Value: initial, Expiration: ttlSeconds(ttl)})
	if err == nil {
		return initial, nil
	}
	if err != memcache.ErrNotStored {
		return nil, backendUnavailable("loadOrInit", err)
	}

	item, err = m.client.Get(k)
	if err != nil {
		return nil, backendUnavailable("loadOrInit", err)
	}
	return item.Value, nil
}

// CompareAndSwap replaces the state under key only if it still equals
// expected. An absent or concurrently updated key reports a conflict.
func (m *Memcache) CompareAndSwap(ctx context.Context, key string, expected, next []byte) (bool, error) {
	k := m.keyPrefix + key

	item, err := m.client.Get(k)
	if err == memcache.ErrCacheMiss {
		return false, nil
	}
	if err != nil {
		return false, backendUnavailable("compareAndSwap", err)
	}
	if !bytes.Equal(item.Value, expected) {
		return false, nil
	}

	item.Value = next
	err = m.client.CompareAndSwap(item)
	switch err {
	case nil:
		return true, nil
	case memcache.ErrCASConflict, memcache.ErrNotStored:
		return false, nil
	default:
		return false, backendUnavailable("compareAndSwap", err)
	}
}

// SetTTL refreshes the expiry on key. A missing key is a no-op.
func (m *Memcache) SetTTL(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	err := m.client.Touch(m.keyPrefix+key, ttlSeconds(ttl))
	if err != nil && err != memcache.ErrCacheMiss {
		return backendUnavailable("setTTL", err)
	}
	return nil
}

// Close is a no-op; the caller owns the Memcached client.
func (m *Memcache) Close() error {
	return nil
}

// maxMemcacheExpiry is the largest relative expiration Memcached accepts;
// beyond 30 days the value is interpreted as a Unix timestamp.
const maxMemcacheExpiry = 30 * 24 * 60 * 60

// ttlSeconds converts a TTL to Memcached's whole-second expiration,
// rounding up so state never expires early. Zero means no expiry.
func ttlSeconds(ttl time.Duration) int32 {
	if ttl <= 0 {
		return 0
	}
	secs := int64(math.Ceil(ttl.Seconds()))
	if secs > maxMemcacheExpiry {
		secs = maxMemcacheExpiry
	}
	return int32(secs)
}
