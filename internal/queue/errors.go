package queue

import (
	"fmt"

	"kolejka/internal/wsstore"
)

// NetworkError means the upstream API could not be reached at all. It is
// transient; callers may retry on their own schedule.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("queue api unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponseError means bytes arrived but violated the wire grammar.
// It wraps the *wsstore.DecodeError carrying the field-level detail.
type MalformedResponseError struct {
	Detail *wsstore.DecodeError
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed queue api response: %v", e.Detail)
}

func (e *MalformedResponseError) Unwrap() error { return e.Detail }

// RemoteError is a well-formed error reply from the API, surfaced verbatim.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("queue api reported: %s", e.Message)
}
