package errors

import "errors"

// Common error types used across the quotaflow library

var (
	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrBackendUnavailable indicates that a counter store backend could not
	// complete an atomic operation (network failure, timeout)
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrTooMuchContention indicates that the compare-and-swap retry budget
	// was exhausted for a single key under concurrent load
	ErrTooMuchContention = errors.New("too much contention")

	// ErrInvalidCost indicates a non-positive permit cost
	ErrInvalidCost = errors.New("invalid cost")
)

// IsRetryable returns true if the error indicates a condition that might
// be resolved by retrying the operation
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrTooMuchContention)
}

// IsTemporary returns true if the error indicates a temporary condition
func IsTemporary(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrBackendUnavailable)
}
