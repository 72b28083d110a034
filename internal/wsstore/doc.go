// Package wsstore decodes the City of Warsaw "WSStore" queue-system API and
// provides an HTTP client for its two endpoints.
//
// # Overview
//
// The upstream API reports, per office, the live state of every queue group
// ("matter"): how many people wait, how many counters are open, and which
// number is being served. Its JSON grammar is loose: numbers arrive quoted,
// optional fields arrive as null, and the success/error envelope is a union
// discriminated by the type of "result". This package
// turns those bytes into a strongly typed model at the boundary so nothing
// downstream has to reason about the quirks.
//
// # Wire format
//
// A data reply:
//
//	{"result": {"date": "2024-05-10", "time": "12:35", "grupy": [
//	  {"status": "1", "lp": "3", "idGrupy": "123456",
//	   "liczbaCzynnychStan": 5, "nazwaGrupy": "Rejestracja",
//	   "literaGrupy": "A", "liczbaKlwKolejce": 12,
//	   "aktualnyNumer": "A007", "czasObslugi": "15"}
//	]}}
//
// An error reply:
//
//	{"result": "false", "error": "Urząd niedostępny"}
//
// Any other shape is malformed. The quirks are a fixed external contract:
// quoted numbers stay quoted on the wire, "lp" may be null, "aktualnyNumer"
// is either a plain 1-3 digit number or a counter letter plus three digits,
// and the envelope (not the group) carries the reading's date and time.
//
// # Decoding
//
// Decode is total over byte slices: it returns either a typed Envelope
// (Success or Failure) or a *DecodeError naming the offending field, its
// group index, and the raw token. Validation is fail-fast (the first
// violation wins) and stops at the grammar: the date rule bounds digits
// (month 01-12, day 01-31) without calendar knowledge, matching what the
// upstream contract specifies.
//
// A Failure envelope is a successful decode. It means the remote system
// answered and reported an error; only grammar violations are decode errors.
//
// # Client
//
// Client fetches raw bytes from the queue endpoint (GET with "id" and
// "apikey" query parameters) and the office directory endpoint. It does not
// decode, cache, or retry: the repository layer composes those concerns, and
// retry policy belongs to the poller.
//
// # Projections
//
// Success.Matters and Success.Samples project decoded groups into the
// Matter and Sample records the rest of the system consumes. Matters are
// sorted by name; samples carry the envelope timestamp as a string, with
// ParsedTime available when a real time.Time is wanted.
package wsstore
