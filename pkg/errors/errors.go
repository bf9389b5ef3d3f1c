package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any *Error carrying the same code, so clones and wrapped
// sentinels satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound      = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden     = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized  = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict      = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation    = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal      = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrUnknownOption = New("UNKNOWN_OPTION", http.StatusBadRequest, "unknown option")
)

// Academic record compilation errors.
var (
	ErrInvalidInput       = New("INVALID_INPUT", http.StatusBadRequest, "invalid academic input")
	ErrInvalidDecision    = New("INVALID_DECISION", http.StatusBadRequest, "unknown decision")
	ErrEmptyHistory       = New("EMPTY_HISTORY", http.StatusUnprocessableEntity, "at least one academic period is required")
	ErrLayoutOverflow     = New("LAYOUT_OVERFLOW", http.StatusInternalServerError, "layout unit taller than a page")
	ErrCodeSpaceExhausted = New("CODE_SPACE_EXHAUSTED", http.StatusServiceUnavailable, "could not allocate a unique verification code")
	ErrInvalidCode        = New("INVALID_CODE", http.StatusNotFound, "document is not authentic")
	ErrExpired            = New("EXPIRED", http.StatusGone, "verification code has expired")
	ErrIntegrityFailure   = New("INTEGRITY_FAILURE", http.StatusInternalServerError, "verification record failed integrity check")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// HasCode reports whether err carries a typed error with the given code.
func HasCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
