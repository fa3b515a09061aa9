/*
Package quota defines admission policies, per-key counter state, and the
five pure decision algorithms.

Decide consumes a policy, the key's current state, the current time, and a
permit cost, and produces a Decision plus the updated state. It performs no
I/O and takes no locks; callers persist the updated state through an atomic
compare-and-swap (see the store package) and retry on conflict.

Algorithms:

  - FixedWindow: counter reset every window; cheap, allows up to 2x capacity
    bursts across a window boundary
  - SlidingLog: exact admission timestamps; zero false admits, O(capacity)
    state per key
  - SlidingCounter: two-window weighted estimate; O(1) state, approximate
  - TokenBucket: continuous refill, bursts up to capacity
  - LeakyBucket: continuous drain, smooths traffic to the leak rate

All timestamps in State are Unix milliseconds.
*/
package quota
