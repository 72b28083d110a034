// Package state holds the monitor's latest view of every watched office:
// the current matter list per office and a bounded per-matter sample
// history.
//
// The Store mediates between the background poller (single writer) and any
// readers via an RWMutex, returning independently copied snapshots. On a poll
// error the previous data is kept and the error recorded, so consumers
// always see the last good reading together with the failure that followed
// it. A partial cycle (data plus an error) stores both, leaving the failure
// streak at zero. ConsecutiveFailures lets consumers distinguish a blip
// from an outage.
//
// History per matter is pruned to the last hour of readings (what a line
// chart of queue depth would show) and duplicate envelope timestamps are
// suppressed, since re-polls inside the upstream freshness window return the
// same reading. History accumulation lives here, outside the request cache:
// the cache owns request identity and freshness, the store owns what the
// system remembers.
package state
