/*
Package config builds named limiters from a YAML file.

A file declares shared backends once and any number of limiters referring
to them:

	backends:
	  redis:
	    address: localhost:6379
	  local:
	    sweep_interval: 1m

	limiters:
	  - name: api
	    backend: redis
	    algorithm: token_bucket
	    capacity: 100
	    refill_rate: 10
	    refill_interval: 1s
	  - name: search
	    backend: local
	    algorithm: sliding_log
	    capacity: 5
	    window: 60s

Load parses and validates the file; Build turns it into ready limiters
plus a closer for the clients it created. Limiters on the same remote
backend share one client but are namespaced by name, so their quotas
never interact.
*/
package config
