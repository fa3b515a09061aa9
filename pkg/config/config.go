package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vnykmshr/quotaflow/pkg/admission/limiter"
	"github.com/vnykmshr/quotaflow/pkg/admission/quota"
	qferrors "github.com/vnykmshr/quotaflow/pkg/common/errors"
)

// BackendType selects where a limiter keeps its counter state.
type BackendType string

const (
	// BackendLocal keeps state in-process; quota is per-process.
	BackendLocal BackendType = "local"

	// BackendRedis keeps state in Redis; quota is fleet-wide.
	BackendRedis BackendType = "redis"

	// BackendMemcache keeps state in Memcached; quota is fleet-wide.
	BackendMemcache BackendType = "memcache"
)

// Valid reports whether b is a recognized backend.
func (b BackendType) Valid() bool {
	switch b {
	case BackendLocal, BackendRedis, BackendMemcache:
		return true
	}
	return false
}

// Duration wraps time.Duration with YAML parsing of "60s"-style strings.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return qferrors.NewValidationError("config", "duration", s, "unparseable duration").
			WithHint(`use Go duration syntax like "60s" or "100ms"`)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// File is the top-level YAML schema.
type File struct {
	Backends Backends        `yaml:"backends"`
	Limiters []LimiterConfig `yaml:"limiters"`
}

// Backends declares the shared backend clients limiters may refer to.
type Backends struct {
	Redis    *RedisBackend    `yaml:"redis,omitempty"`
	Memcache *MemcacheBackend `yaml:"memcache,omitempty"`
	Local    *LocalBackend    `yaml:"local,omitempty"`
}

// RedisBackend holds Redis connection parameters.
type RedisBackend struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// MemcacheBackend holds Memcached connection parameters.
type MemcacheBackend struct {
	Addresses []string `yaml:"addresses"`
}

// LocalBackend holds in-process store parameters.
type LocalBackend struct {
	SweepInterval Duration `yaml:"sweep_interval,omitempty"`
}

// LimiterConfig declares one named limiter.
type LimiterConfig struct {
	Name      string      `yaml:"name"`
	Backend   BackendType `yaml:"backend"`
	Algorithm string      `yaml:"algorithm"`

	Capacity       int64    `yaml:"capacity"`
	Window         Duration `yaml:"window,omitempty"`
	RefillRate     float64  `yaml:"refill_rate,omitempty"`
	RefillInterval Duration `yaml:"refill_interval,omitempty"`
	LeakRate       float64  `yaml:"leak_rate,omitempty"`
	DefaultCost    int64    `yaml:"default_cost,omitempty"`

	MaxAttempts    int      `yaml:"max_attempts,omitempty"`
	OnBackendError string   `yaml:"on_backend_error,omitempty"`
	CheckTimeout   Duration `yaml:"check_timeout,omitempty"`
}

// Policy maps the limiter declaration onto a quota policy.
func (lc LimiterConfig) Policy() quota.Policy {
	return quota.Policy{
		Algorithm:      quota.Algorithm(lc.Algorithm),
		Capacity:       lc.Capacity,
		Window:         lc.Window.Std(),
		RefillRate:     lc.RefillRate,
		RefillInterval: lc.RefillInterval.Std(),
		LeakRate:       lc.LeakRate,
		DefaultCost:    lc.DefaultCost,
	}
}

// Load reads and validates a YAML limiter configuration.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, qferrors.NewOperationError("config", "load", err).WithContext("path=" + path)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, qferrors.NewOperationError("config", "load", err).WithContext("path=" + path)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the file for structural problems: missing names,
// duplicate names, unknown or undeclared backends, and invalid policies.
func (f *File) Validate() error {
	if len(f.Limiters) == 0 {
		return qferrors.NewValidationError("config", "limiters", nil, "no limiters declared").
			WithHint("declare at least one limiter")
	}

	seen := make(map[string]bool, len(f.Limiters))
	for _, lc := range f.Limiters {
		if lc.Name == "" {
			return qferrors.NewValidationError("config", "name", lc.Name, "cannot be empty")
		}
		if seen[lc.Name] {
			return qferrors.NewValidationError("config", "name", lc.Name, "duplicate limiter name")
		}
		seen[lc.Name] = true

		if !lc.Backend.Valid() {
			return qferrors.NewValidationError("config", "backend", lc.Backend, "unknown backend").
				WithHint("use one of local, redis, memcache")
		}
		if lc.Backend == BackendRedis && f.Backends.Redis == nil {
			return qferrors.NewValidationError("config", "backend", lc.Backend, "redis backend not declared").
				WithHint("add a backends.redis section")
		}
		if lc.Backend == BackendMemcache && f.Backends.Memcache == nil {
			return qferrors.NewValidationError("config", "backend", lc.Backend, "memcache backend not declared").
				WithHint("add a backends.memcache section")
		}

		if err := lc.Policy().Validate(); err != nil {
			return err
		}
		if lc.OnBackendError != "" && !limiter.BackendErrorPolicy(lc.OnBackendError).Valid() {
			return qferrors.NewValidationError("config", "on_backend_error", lc.OnBackendError, "unknown policy").
				WithHint(`use "allow" or "deny"`)
		}
	}
	return nil
}
