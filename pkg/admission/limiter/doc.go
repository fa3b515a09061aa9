/*
Package limiter binds a quota policy, a counter store, and a clock into an
admission-control facade.

Check loads the key's state, runs the policy's pure decision algorithm,
and persists the updated state through the store's compare-and-swap,
retrying the whole cycle on conflict up to a bounded attempt budget. The
facade never sleeps to wait for capacity; denial is immediate and carries
a retry hint.

Failure policy is explicit configuration:

  - Store unreachable: the configured OnBackendError policy decides
    (FailOpen admits, FailClosed denies); the error is returned alongside
    the decision so callers can also branch on it.
  - Compare-and-swap budget exhausted on a hot key: deny (fail closed),
    logged, with a retryable zero RetryAfter.
  - Non-positive cost: rejected before touching the store.

Construct limiters explicitly and inject them into callers; the package
keeps no ambient registry.
*/
package limiter
