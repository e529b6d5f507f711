// Package errs holds the user-facing error type and the error kinds shared by
// the registry, the bindings and the stream middleware.
package errs

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrUnknownCapability is returned when a logical model key is not part of
	// the active table.
	ErrUnknownCapability = errors.New("unknown capability")
	// ErrProviderUnavailable is returned when a provider client cannot be
	// initialized while building the live table.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrStreamInterrupted is returned when a provider stream ends abnormally.
	ErrStreamInterrupted = errors.New("stream interrupted")
	// ErrStreamNotStarted is returned when a provider stream fails before its
	// first event.
	ErrStreamNotStarted = errors.New("stream not started")
	// ErrWrongKind is returned when a chat binding is asked for an image or the
	// other way around.
	ErrWrongKind = errors.New("wrong binding kind")
)

// UserErrorf is a user-facing error.
// This helper exists mostly to avoid linters complaining about errors starting
// with a capitalized letter.
func UserErrorf(format string, a ...any) error {
	return fmt.Errorf(format, a...)
}

// Error wraps an underlying error with a user-facing reason.
//
// Reason is meant to be short and actionable; Err carries the technical
// details and the error kind. When Err is nil, Error() falls back to Reason.
type Error struct {
	Err    error
	Reason string
}

// Wrap creates an Error with the given underlying error and user-facing reason.
func Wrap(err error, reason string) Error {
	return Error{Err: err, Reason: reason}
}

// Wrapf creates an Error with the given underlying error and a formatted reason.
func Wrapf(err error, format string, a ...any) Error {
	return Error{Err: err, Reason: fmt.Sprintf(format, a...)}
}

// Kind wraps cause with one of the error kinds above so that both the kind and
// the cause stay reachable through errors.Is and errors.As.
func Kind(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

func (e Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Reason
}

func (e Error) Unwrap() error {
	return e.Err
}

// ReasonText returns the user-facing reason for the error.
func (e Error) ReasonText() string {
	return e.Reason
}
