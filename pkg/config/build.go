package config

import (
	"errors"
	"io"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/vnykmshr/quotaflow/pkg/admission/limiter"
	"github.com/vnykmshr/quotaflow/pkg/admission/store"
)

// Build turns a validated configuration into ready limiters, keyed by
// name. The returned closer releases everything Build created: backend
// clients and local stores. Limiters sharing a remote backend share one
// client but are namespaced by limiter name, so their quotas are
// independent.
func Build(f *File) (map[string]limiter.Limiter, io.Closer, error) {
	b := &builder{file: f}

	limiters := make(map[string]limiter.Limiter, len(f.Limiters))
	for _, lc := range f.Limiters {
		lim, err := b.buildLimiter(lc)
		if err != nil {
			b.owned.Close()
			return nil, nil, err
		}
		limiters[lc.Name] = lim

		log.Info().
			Str("limiter", lc.Name).
			Str("backend", string(lc.Backend)).
			Str("algorithm", lc.Algorithm).
			Int64("capacity", lc.Capacity).
			Msg("limiter configured")
	}

	return limiters, b.owned, nil
}

// LoadAndBuild is the one-call path from a config file to ready limiters.
func LoadAndBuild(path string) (map[string]limiter.Limiter, io.Closer, error) {
	f, err := Load(path)
	if err != nil {
		return nil, nil, err
	}
	return Build(f)
}

type builder struct {
	file  *File
	owned multiCloser

	redisClient    *redis.Client
	memcacheClient *memcache.Client
}

func (b *builder) buildLimiter(lc LimiterConfig) (limiter.Limiter, error) {
	st, err := b.buildStore(lc)
	if err != nil {
		return nil, err
	}

	return limiter.New(limiter.Config{
		Policy:         lc.Policy(),
		Store:          st,
		Name:           lc.Name,
		MaxAttempts:    lc.MaxAttempts,
		OnBackendError: limiter.BackendErrorPolicy(lc.OnBackendError),
		CheckTimeout:   lc.CheckTimeout.Std(),
	})
}

func (b *builder) buildStore(lc LimiterConfig) (store.Store, error) {
	prefix := store.DefaultKeyPrefix + lc.Name + ":"

	switch lc.Backend {
	case BackendLocal:
		cfg := store.LocalConfig{}
		if b.file.Backends.Local != nil {
			cfg.SweepInterval = b.file.Backends.Local.SweepInterval.Std()
		}
		local := store.NewLocal(cfg)
		b.owned = append(b.owned, local)
		return local, nil

	case BackendRedis:
		if b.redisClient == nil {
			rb := b.file.Backends.Redis
			b.redisClient = redis.NewClient(&redis.Options{
				Addr:     rb.Address,
				Password: rb.Password,
				DB:       rb.DB,
			})
			b.owned = append(b.owned, b.redisClient)
		}
		return store.NewRedis(store.RedisConfig{Client: b.redisClient, KeyPrefix: prefix})

	case BackendMemcache:
		if b.memcacheClient == nil {
			b.memcacheClient = memcache.New(b.file.Backends.Memcache.Addresses...)
		}
		return store.NewMemcache(store.MemcacheConfig{Client: b.memcacheClient, KeyPrefix: prefix})

	default:
		// Validate rejects unknown backends before Build runs.
		return nil, errors.New("config: unknown backend " + string(lc.Backend))
	}
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var errs []error
	for _, c := range m {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
