// Package api holds the shared HTTP response machinery: the application
// error taxonomy, the error envelope, and pagination helpers.
package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Taxonomy codes carried in the `error` field of the envelope.
const (
	CodeValidation      = "VALIDATION"
	CodeNotFound        = "NOT_FOUND"
	CodeForbidden       = "FORBIDDEN"
	CodeConflict        = "CONFLICT"
	CodeStoreFailure    = "STORE_FAILURE"
	CodeUpstreamUnknown = "UPSTREAM_UNKNOWN"
)

// Error is an application error with a taxonomy code and a client-safe
// message. Anything that is not an *Error is surfaced to the caller as a
// generic internal error.
type Error struct {
	Code    string
	Status  int
	Message string
	Details []FieldError
	// wrapped cause, logged server-side only
	cause error
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// WithCause attaches an underlying error for server-side logging.
func (e *Error) WithCause(err error) *Error {
	clone := *e
	clone.cause = err
	return &clone
}

func Validation(msg string, details ...FieldError) *Error {
	return &Error{Code: CodeValidation, Status: http.StatusBadRequest, Message: msg, Details: details}
}

func NotFound(resource string) *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: resource + " not found"}
}

func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Status: http.StatusForbidden, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Status: http.StatusConflict, Message: msg}
}

func StoreFailure(err error) *Error {
	return &Error{Code: CodeStoreFailure, Status: http.StatusInternalServerError, Message: "storage operation failed", cause: err}
}

func Internal(err error) *Error {
	return &Error{Code: CodeUpstreamUnknown, Status: http.StatusInternalServerError, Message: "internal server error", cause: err}
}

// AsError extracts an *Error from err, wrapping unknown errors as internal.
func AsError(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
