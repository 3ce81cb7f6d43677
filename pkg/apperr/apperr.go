package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error so the HTTP boundary can map it to a status
// code without inspecting message text.
type Kind int

const (
	KindInternal        Kind = iota // unexpected failure (persistence down, bug)
	KindUnauthenticated             // no principal resolved
	KindForbidden                   // principal lacks required role/permission
	KindNotFound                    // referenced entity absent
	KindConflict                    // operation violates a structural invariant
	KindValidation                  // malformed/missing input, reported per field
)

// Error is the structured error returned by services. Fields is only set
// for KindValidation and maps field name to a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Unauthenticated(message string) *Error { return New(KindUnauthenticated, message) }
func Forbidden(message string) *Error       { return New(KindForbidden, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func Conflict(message string) *Error        { return New(KindConflict, message) }

// Validation builds a field-keyed validation error.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Fields: fields}
}

// Internal wraps an unexpected error so it propagates distinguishably
// from the business taxonomy.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// From extracts an *Error from err, or wraps it as internal.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal("internal server error", err)
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return From(err).Kind == kind
}

// HTTPStatus maps an error to the response status code convention:
// 401 no principal, 403 missing role/permission, 404 absent entity,
// 400 business-invariant violation, 422 input validation failure.
func HTTPStatus(err error) int {
	switch From(err).Kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusBadRequest
	case KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
