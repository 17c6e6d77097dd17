package client

import (
	"errors"
	"fmt"
)

// ErrorKind classifies statement execution faults so callers can branch
// without string matching.
type ErrorKind string

// Fault kinds.
const (
	// KindConfig means no warehouse could be resolved or the client
	// configuration is unusable. Surfaced before any network call.
	KindConfig ErrorKind = "config"

	// KindRejected means the statement was blocked by a pre-submission
	// check (read-only denylist). No network call was made.
	KindRejected ErrorKind = "rejected"

	// KindTransport means a network, HTTP, or response-decoding fault
	// occurred during submit, poll, or fetch. Never retried.
	KindTransport ErrorKind = "transport"

	// KindFailed means the warehouse reported a terminal FAILED (or
	// CLOSED) state. Carries the upstream error detail.
	KindFailed ErrorKind = "failed"

	// KindCanceled means the warehouse reported the statement CANCELED.
	KindCanceled ErrorKind = "canceled"

	// KindTimeout means the retry budget was exhausted while the statement
	// remained non-terminal. State holds the last observed state.
	KindTimeout ErrorKind = "timeout"
)

// Error is the typed fault returned by Execute. Exactly one is produced per
// failed execution; the formatter and the toolkit render it as text.
type Error struct {
	Kind    ErrorKind
	Message string

	// State is the last observed execution state, when one was observed.
	State State

	// Code is the upstream error code, when the warehouse provided one.
	Code string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.State != "" && e.Code != "":
		return fmt.Sprintf("%s (%s, state %s)", e.Message, e.Code, e.State)
	case e.State != "":
		return fmt.Sprintf("%s (state %s)", e.Message, e.State)
	case e.Code != "":
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	default:
		return e.Message
	}
}

// IsKind reports whether err is a client Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}

// configErr builds a config-kind fault.
func configErr(format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}

// transportErr builds a transport-kind fault.
func transportErr(format string, args ...any) *Error {
	return &Error{Kind: KindTransport, Message: fmt.Sprintf(format, args...)}
}
