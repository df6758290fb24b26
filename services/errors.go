package services

import "errors"

// Sentinel error kinds. Controllers map these onto HTTP statuses:
// ErrNotFound → 404, ErrForbidden → 403, ErrInvalidState → 400,
// ErrConflict → 409, ErrNotConfigured → 503, ErrProvider → 502.
var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidState  = errors.New("invalid state")
	ErrConflict      = errors.New("conflict")
	ErrValidation    = errors.New("validation failed")
	ErrNotConfigured = errors.New("not configured")
	ErrProvider      = errors.New("provider error")
)

// Error is a service-level error carrying a stable API code and a
// human-readable message, wrapping one of the sentinel kinds above.
type Error struct {
	kind    error
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.kind }

// NewError builds an Error of the given kind.
func NewError(kind error, code, message string) *Error {
	return &Error{kind: kind, Code: code, Message: message}
}

func notFoundError(code, message string) *Error {
	return NewError(ErrNotFound, code, message)
}

func forbiddenError(message string) *Error {
	return NewError(ErrForbidden, "FORBIDDEN", message)
}

func invalidStateError(message string) *Error {
	return NewError(ErrInvalidState, "INVALID_STATE", message)
}

func conflictError(code, message string) *Error {
	return NewError(ErrConflict, code, message)
}

func validationError(message string) *Error {
	return NewError(ErrValidation, "VALIDATION_ERROR", message)
}
