// Package queue composes the HTTP fetcher, the grammar decoder, and the
// request cache into the three read operations the rest of the system
// consumes: ListOffices, ListMatters, and ListSamples.
//
// # Caching
//
// Cache keys mirror the logical queries: the office directory lives under
// one fixed key, matters under "matters/<officeKey>", and samples under
// "sample/<officeKey>/<groupID>". Matters and samples happen to share an
// upstream endpoint, but each logical query owns its freshness window, so a
// burst of sample reads for one matter never invalidates or blocks matter
// listings for another.
//
// # Error taxonomy
//
//   - *NetworkError: the upstream was unreachable; never cached.
//   - *MalformedResponseError: bytes violated the grammar; never cached,
//     carries the decoder's field-level detail for logging.
//   - *RemoteError: the API answered with a well-formed error reply; the
//     message is surfaced verbatim.
//
// Absence of data is not an error: an office with zero matters or a group
// with no reading returns an empty slice.
//
// The repository never retries and never swallows errors; backoff and retry
// cadence are the poller's responsibility.
package queue
