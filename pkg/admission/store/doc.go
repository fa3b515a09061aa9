/*
Package store holds per-key counter state behind an atomic
compare-and-swap contract.

State is opaque to the store: algorithms encode it, the store only
load-or-initializes, compare-and-swaps, and expires it. Three backends
satisfy the contract:

  - Local: an in-process map for single-process admission control, with a
    background sweep reclaiming idle keys
  - Redis: Lua-scripted atomic operations; sharing a key prefix across
    processes shares one fleet-wide quota
  - Memcache: Memcached's native CAS tokens through a narrow, mockable
    client interface

Backend failures surface as errors wrapping errors.ErrBackendUnavailable;
the store never fabricates state. TTL expiry of an idle key is equivalent
to the key never having been seen, which can only be more permissive.
*/
package store
