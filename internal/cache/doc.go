// Package cache provides the time-windowed request cache shared by every
// concurrent monitor of the queue API.
//
// # Contract
//
// Each key identifies one distinct upstream query. Get guarantees:
//
//   - Freshness window: a stored value is reused for any Get within the TTL
//     (default 30 seconds) of its fetch completion; after that the next Get
//     fetches again.
//   - Single-flight: callers requesting a key while a fetch for that key is
//     in flight attach to the flight instead of starting another; all of
//     them receive the same value or the same error. The flight runs on a
//     context detached from its callers, so a caller cancelling never
//     cancels the others' pending result.
//   - Per-key independence: freshness and single-flight are scoped per key;
//     activity on one key never blocks another.
//   - Errors are never stored: a failed fetch (network error or grammar
//     violation) is propagated to every waiter, and the very next Get on
//     the key fetches again. A transient malformed reply cannot poison the
//     window.
//
// Per key the lifecycle is Empty → Fetching → Fresh → Stale → Fetching → …,
// where Fresh turns Stale purely by elapsed time.
//
// # Eviction
//
// Keys that stop being queried are dropped by a lazy sweep after several
// idle TTL windows. Exact timing is implementation-defined; the only promise
// is that the cache does not grow without bound.
//
// # Ownership
//
// Caches are plain values constructed with New and owned by whoever composes
// them (the repository owns two). Tests construct their own instances; there
// is no hidden process-wide cache.
package cache
