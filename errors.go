package rill

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request or configuration failed validation.
	ErrValidation = errors.New("validation error")

	// ErrAborted is the cause attached to an operation's context when the
	// operation is aborted by the user or superseded by a newer operation of
	// the same kind. It never represents a failure of the remote side.
	ErrAborted = errors.New("operation aborted")

	// ErrUnexpectedEOF indicates a stream ended without a terminal marker.
	ErrUnexpectedEOF = errors.New("stream ended without terminal marker")

	// ErrModelNotAllowed indicates a model name rejected by the allow-list.
	ErrModelNotAllowed = errors.New("model not allowed")
)

// TransportError reports a failure of the underlying connection: a refused
// request, a non-success HTTP status, or a read that failed mid-stream.
type TransportError struct {
	Op         string // "submit", "read", "pull", ...
	StatusCode int    // HTTP status, 0 when not applicable
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a single line that carried the data marker but could
// not be decoded. Protocol errors are absorbed by the parser: the offending
// line is skipped and the stream continues.
type ProtocolError struct {
	Line string
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("malformed event line %q: %v", e.Line, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ApplicationError reports an error declared by the server inside an
// otherwise well-formed event.
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string {
	return e.Message
}
