// Package app is the composition root: it wires configuration, the wsstore
// client, the cached repository, the state store, and the background poller
// into a running monitor.
//
// # Data flow
//
//	Run()
//	 ├─> config.Load()          read TOML config
//	 ├─> wsstore.NewClient()    HTTP fetcher for both endpoints
//	 ├─> queue.NewRepository()  cache + decoder over the fetcher
//	 ├─> repo.ListOffices()     resolve offices when none are pinned
//	 └─> StartPoller()          background refresh loop
//
//	Poller loop (per office, per cycle):
//	 ├─> repo.ListMatters(office)
//	 ├─> repo.ListSamples(office, group)  for each matter
//	 └─> store.Update()                   atomic, error-preserving
//
// # Retry policy
//
// The repository and cache below never retry; this layer owns the cadence.
// The poller refreshes at the configured interval and doubles it per
// consecutive failed cycle, capped at maxBackoff, so a dead upstream is not
// hammered. Recoverable poll errors are logged, with upstream-unreachable,
// remote-reported, and malformed-response conditions worded distinctly, and
// polling continues; only startup failures (config, client construction,
// initial office resolution) abort Run.
//
// # Metrics
//
// When metrics_bind is configured, cache hit/miss/eviction counters are
// served on /metrics from an explicitly constructed registry. Nothing
// registers globally.
package app
