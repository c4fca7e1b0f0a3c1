// Package apperr defines the error kinds handlers translate into HTTP statuses.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	// KindConflict covers duplicate resources such as an already registered email.
	KindConflict
	// KindStateConflict covers requests that clash with current state: stock ran out,
	// an idempotent request is still in flight.
	KindStateConflict
)

// Error is an application error with a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string) *Error    { return New(KindValidation, msg) }
func Unauthorized(msg string) *Error  { return New(KindUnauthorized, msg) }
func Forbidden(msg string) *Error     { return New(KindForbidden, msg) }
func NotFound(msg string) *Error      { return New(KindNotFound, msg) }
func Conflict(msg string) *Error      { return New(KindConflict, msg) }
func StateConflict(msg string) *Error { return New(KindStateConflict, msg) }

// Internal wraps an unexpected failure. The cause is logged, never shown to clients.
func Internal(err error) *Error {
	return Wrap(KindInternal, "Internal server error", err)
}

// KindOf reports the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the client-safe message for err.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != KindInternal {
		return ae.Message
	}
	return "Internal server error"
}

// Status maps a kind to its HTTP status. Duplicate resources answer 400, matching the
// storefront client's expectations.
func Status(kind Kind) int {
	switch kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindStateConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
