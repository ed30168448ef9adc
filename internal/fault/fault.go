// Package fault defines the error kinds shared by the service layer.
// Services return them and let them propagate unchanged; the router maps
// each kind to an HTTP status at the boundary. Anything that is not a
// fault surfaces as an opaque server error.
package fault

import "errors"

var (
	// ErrNotFound marks a referenced album, song, playlist, or user that
	// does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvariant marks a write that should have succeeded but did not
	// (zero rows affected, duplicate insert, malformed payload value).
	ErrInvariant = errors.New("invariant violated")
	// ErrForbidden marks a requester that is not the resource owner.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated marks a missing or unverifiable credential.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Error pairs a client-facing message with one of the sentinel kinds.
// Error() returns only the message; the kind is reachable through
// errors.Is via Unwrap.
type Error struct {
	kind    error
	message string
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) Unwrap() error {
	return e.kind
}

// NotFound builds a not-found fault with a caller-facing message.
func NotFound(message string) error {
	return &Error{kind: ErrNotFound, message: message}
}

// Invariant builds an invariant fault with a caller-facing message.
func Invariant(message string) error {
	return &Error{kind: ErrInvariant, message: message}
}

// Forbidden builds a forbidden fault with a caller-facing message.
func Forbidden(message string) error {
	return &Error{kind: ErrForbidden, message: message}
}

// Unauthenticated builds an unauthenticated fault with a caller-facing message.
func Unauthenticated(message string) error {
	return &Error{kind: ErrUnauthenticated, message: message}
}
