package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	qferrors "github.com/vnykmshr/quotaflow/pkg/common/errors"
)

// DefaultKeyPrefix namespaces state keys in shared backends.
const DefaultKeyPrefix = "quotaflow:"

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	// Client is the Redis connection. Required; the caller owns it and is
	// responsible for closing it.
	Client redis.UniversalClient

	// KeyPrefix namespaces this store's keys. Processes sharing a prefix
	// (and a Redis deployment) share one logical quota. Defaults to
	// DefaultKeyPrefix.
	KeyPrefix string
}

// Redis adapts the Store contract onto Redis. State lives in a plain
// string value per key; loadOrInit and compareAndSwap each run as a Lua
// script, so every operation is a single atomic round trip.
type Redis struct {
	client    redis.UniversalClient
	keyPrefix string

	loadScript *redis.Script
	casScript  *redis.Script
}

// NewRedis creates a Redis-backed store.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Client == nil {
		return nil, qferrors.NewValidationError("store", "client", nil, "cannot be nil").
			WithHint("provide a redis.UniversalClient")
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	return &Redis{
		client:     cfg.Client,
		keyPrefix:  prefix,
		loadScript: redis.NewScript(luaLoadOrInit),
		casScript:  redis.NewScript(luaCompareAndSwap),
	}, nil
}

// LoadOrInit returns the state under key, atomically creating it from
// initial (with ttl attached) when absent.
func (r *Redis) LoadOrInit(ctx context.Context, key string, initial []byte, ttl time.Duration) ([]byte, error) {
	res, err := r.loadScript.Run(ctx, r.client,
		[]string{r.keyPrefix + key}, string(initial), ttl.Milliseconds()).Result()
	if err != nil {
		return nil, backendUnavailable("loadOrInit", err)
	}

	s, ok := res.(string)
	if !ok {
		return nil, backendUnavailable("loadOrInit", fmt.Errorf("unexpected reply type %T", res))
	}
	return []byte(s), nil
}

// CompareAndSwap replaces the state under key only if it still equals
// expected. The swap keeps the key's remaining TTL.
func (r *Redis) CompareAndSwap(ctx context.Context, key string, expected, next []byte) (bool, error) {
	res, err := r.casScript.Run(ctx, r.client,
		[]string{r.keyPrefix + key}, string(expected), string(next)).Int()
	if err != nil {
		return false, backendUnavailable("compareAndSwap", err)
	}
	return res == 1, nil
}

// SetTTL refreshes the expiry on key. Expiring a missing key is a no-op.
func (r *Redis) SetTTL(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.PExpire(ctx, r.keyPrefix+key, ttl).Err(); err != nil {
		return backendUnavailable("setTTL", err)
	}
	return nil
}

// Close is a no-op; the caller owns the Redis client.
func (r *Redis) Close() error {
	return nil
}

const luaLoadOrInit = `
-- KEYS[1]: state key
-- ARGV[1]: initial state
-- ARGV[2]: TTL in milliseconds (0 = no expiry)

local current = redis.call('GET', KEYS[1])
if current then
    return current
end

if tonumber(ARGV[2]) > 0 then
    redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
else
    redis.call('SET', KEYS[1], ARGV[1])
end
return ARGV[1]
`

const luaCompareAndSwap = `
-- KEYS[1]: state key
-- ARGV[1]: expected state
-- ARGV[2]: next state

local current = redis.call('GET', KEYS[1])
if current ~= ARGV[1] then
    return 0
end

redis.call('SET', KEYS[1], ARGV[2], 'KEEPTTL')
return 1
`
