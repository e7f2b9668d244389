// Package errs defines the error-kind taxonomy from spec §7 and a few
// sentinel errors shared across packages, following the teacher's own
// pkg/util/errs precedent of small typed/sentinel errors rather than
// ad-hoc string matching.
package errs

import "errors"

// Kind classifies an error for logging level and client-visible
// behavior, per spec §7.
type Kind int

const (
	KindConfig Kind = iota
	KindProtocol
	KindBackend
	KindTransport
	KindFilesystem
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindProtocol:
		return "protocol"
	case KindBackend:
		return "backend"
	case KindTransport:
		return "transport"
	case KindFilesystem:
		return "filesystem"
	default:
		return "unknown"
	}
}

// Error wraps a cause with its taxonomy Kind.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Cause.Error() }
func (e *Error) Unwrap() error { return e.Cause }

// Wrap annotates err with kind, or returns nil if err is nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Cause: err}
}

// As-style helper for tests/callers that need the Kind back out.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// ErrClosedConn reports a write/read attempted on a connection that is
// already known to be closed.
var ErrClosedConn = errors.New("errs: connection is closed")

// ErrBackendUnreachable indicates the supervisor could not reach the
// backend's status or RCON port within the configured timeout.
var ErrBackendUnreachable = errors.New("errs: backend unreachable")
