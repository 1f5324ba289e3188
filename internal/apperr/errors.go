// Package apperr defines the coded error taxonomy surfaced by content operations.
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies an error category. Codes are stable strings so that
// transport layers can map them to status codes deterministically.
type Code string

const (
	CodeInvalidContentType Code = "INVALID_CONTENT_TYPE"
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeNotFound           Code = "CONTENT_NOT_FOUND"
	CodeExists             Code = "CONTENT_EXISTS"
	CodeFind               Code = "FIND_ERROR"
	CodeGet                Code = "GET_ERROR"
	CodeCreate             Code = "CREATE_ERROR"
	CodeUpdate             Code = "UPDATE_ERROR"
	CodeDelete             Code = "DELETE_ERROR"
)

// Error is a coded error with optional field-level details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a coded error wrapping a cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// WithDetails attaches structured details (e.g. validation errors) and
// returns the same error for chaining.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// CodeOf returns the code of err if it is (or wraps) an *Error,
// otherwise the empty Code.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
