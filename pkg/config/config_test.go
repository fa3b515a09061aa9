package config

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/vnykmshr/quotaflow/internal/testutil"
	"github.com/vnykmshr/quotaflow/pkg/admission/quota"
	qferrors "github.com/vnykmshr/quotaflow/pkg/common/errors"
)

func TestLoad(t *testing.T) {
	f, err := Load(filepath.Join("testdata", "quotaflow.yaml"))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(f.Limiters), 3)

	api := f.Limiters[0]
	testutil.AssertEqual(t, api.Name, "api")
	testutil.AssertEqual(t, api.Backend, BackendRedis)
	testutil.AssertEqual(t, api.MaxAttempts, 8)
	testutil.AssertEqual(t, api.OnBackendError, "deny")
	testutil.AssertEqual(t, api.CheckTimeout.Std(), 250*time.Millisecond)

	p := api.Policy()
	testutil.AssertEqual(t, p.Algorithm, quota.TokenBucket)
	testutil.AssertEqual(t, p.Capacity, int64(100))
	testutil.AssertEqual(t, p.RefillRate, 10.0)
	testutil.AssertEqual(t, p.RefillInterval, time.Second)

	search := f.Limiters[1]
	testutil.AssertEqual(t, search.Policy().Window, time.Minute)
	testutil.AssertEqual(t, search.Policy().DefaultCost, int64(2))

	testutil.AssertEqual(t, f.Backends.Redis.Address, "localhost:6379")
	testutil.AssertEqual(t, f.Backends.Redis.DB, 1)
	testutil.AssertEqual(t, f.Backends.Local.SweepInterval.Std(), 30*time.Second)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "absent.yaml"))
	testutil.AssertError(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *File {
		return &File{
			Backends: Backends{Redis: &RedisBackend{Address: "localhost:6379"}},
			Limiters: []LimiterConfig{
				{Name: "api", Backend: BackendRedis, Algorithm: "fixed_window", Capacity: 10, Window: Duration(time.Minute)},
			},
		}
	}

	t.Run("valid file passes", func(t *testing.T) {
		testutil.AssertNoError(t, valid().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*File)
	}{
		{"no limiters", func(f *File) { f.Limiters = nil }},
		{"empty name", func(f *File) { f.Limiters[0].Name = "" }},
		{"duplicate name", func(f *File) { f.Limiters = append(f.Limiters, f.Limiters[0]) }},
		{"unknown backend", func(f *File) { f.Limiters[0].Backend = "dynamo" }},
		{"undeclared redis", func(f *File) { f.Backends.Redis = nil }},
		{"undeclared memcache", func(f *File) { f.Limiters[0].Backend = BackendMemcache }},
		{"invalid policy", func(f *File) { f.Limiters[0].Capacity = 0 }},
		{"unknown algorithm", func(f *File) { f.Limiters[0].Algorithm = "round_robin" }},
		{"unknown backend error policy", func(f *File) { f.Limiters[0].OnBackendError = "explode" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			tt.mutate(f)
			err := f.Validate()
			testutil.AssertError(t, err)
			if !qferrors.IsValidationError(err) {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestDurationUnmarshal(t *testing.T) {
	t.Run("rejects malformed durations", func(t *testing.T) {
		var d Duration
		err := d.UnmarshalYAML(func(v interface{}) error {
			*(v.(*string)) = "sixty seconds"
			return nil
		})
		testutil.AssertError(t, err)
		if !qferrors.IsValidationError(err) {
			t.Errorf("expected a validation error, got %v", err)
		}
	})

	t.Run("parses Go syntax", func(t *testing.T) {
		var d Duration
		err := d.UnmarshalYAML(func(v interface{}) error {
			*(v.(*string)) = "1m30s"
			return nil
		})
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, d.Std(), 90*time.Second)
	})
}

func TestBuildLocalLimiters(t *testing.T) {
	f := &File{
		Backends: Backends{Local: &LocalBackend{SweepInterval: Duration(-1)}},
		Limiters: []LimiterConfig{
			{Name: "api", Backend: BackendLocal, Algorithm: "token_bucket", Capacity: 2, RefillRate: 1, RefillInterval: Duration(time.Second)},
			{Name: "search", Backend: BackendLocal, Algorithm: "fixed_window", Capacity: 1, Window: Duration(time.Minute)},
		},
	}
	testutil.AssertNoError(t, f.Validate())

	limiters, closer, err := Build(f)
	testutil.AssertNoError(t, err)
	defer closer.Close()
	testutil.AssertEqual(t, len(limiters), 2)

	ctx := context.Background()

	// Each limiter enforces its own policy on its own store.
	api := limiters["api"]
	testutil.AssertEqual(t, api.Name(), "api")
	for i := 0; i < 2; i++ {
		d, err := api.Check(ctx, "k")
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, d.Allowed, true)
	}
	d, err := api.Check(ctx, "k")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, d.Allowed, false)

	// The same key against the other limiter is untouched.
	d, err = limiters["search"].Check(ctx, "k")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, d.Allowed, true)
}

func TestBuildClosesOwnedOnFailure(t *testing.T) {
	// The second limiter fails construction after the first created its
	// store; Build must not leak it. Validate would catch this file, but
	// Build has to stay safe when handed an unvalidated one.
	f := &File{
		Limiters: []LimiterConfig{
			{Name: "ok", Backend: BackendLocal, Algorithm: "fixed_window", Capacity: 1, Window: Duration(time.Minute)},
			{Name: "broken", Backend: BackendLocal, Algorithm: "fixed_window", Capacity: 0},
		},
	}

	_, _, err := Build(f)
	testutil.AssertError(t, err)
	if !qferrors.IsValidationError(err) {
		t.Errorf("expected a validation error, got %v", err)
	}
}
