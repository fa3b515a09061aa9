package store

import (
	"context"
	"time"

	qferrors "github.com/vnykmshr/quotaflow/pkg/common/errors"
)

// Store holds per-key counter state as opaque bytes with atomic
// read-modify-write semantics. Implementations serialize all updates to a
// key through CompareAndSwap; callers re-run their whole load-decide-swap
// cycle when a swap reports a conflict.
type Store interface {
	// LoadOrInit returns the state stored under key, atomically creating
	// it from initial when absent. A positive ttl is attached to newly
	// created state as the idle-reclamation deadline.
	LoadOrInit(ctx context.Context, key string, initial []byte, ttl time.Duration) ([]byte, error)

	// CompareAndSwap replaces the state under key only if it still equals
	// expected. False means another writer updated the key first (or the
	// key expired); the caller must reload and retry.
	CompareAndSwap(ctx context.Context, key string, expected, next []byte) (bool, error)

	// SetTTL refreshes the idle-reclamation deadline for key. Advisory: a
	// missing key is not an error.
	SetTTL(ctx context.Context, key string, ttl time.Duration) error

	// Close releases resources owned by the store. Backends over caller
	// provided clients do not close them.
	Close() error
}

// backendUnavailable wraps a backend failure so errors.Is matches
// ErrBackendUnavailable while the underlying detail stays visible.
func backendUnavailable(op string, cause error) error {
	return qferrors.NewOperationError("store", op, qferrors.ErrBackendUnavailable).
		WithContext(cause.Error())
}
