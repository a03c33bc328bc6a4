// Package apperror carries typed application errors so handlers can map a
// failure to a status code without inspecting message text.
package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	// Internal is any failure the client should not learn details about.
	Internal Kind = iota
	// Validation covers bad input, including unique-key violations.
	Validation
	// Auth covers missing or bad credentials.
	Auth
	// Forbidden covers authenticated callers lacking rights.
	Forbidden
	// NotFound covers lookups that matched nothing.
	NotFound
)

// Error is the application error type. Message is the client-facing text;
// Err keeps the underlying cause for server-side logs.
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

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP status.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case Validation:
		return http.StatusBadRequest
	case Auth:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NewValidation(message string, err error) *Error { return New(Validation, message, err) }
func NewAuth(message string, err error) *Error       { return New(Auth, message, err) }
func NewForbidden(message string, err error) *Error  { return New(Forbidden, message, err) }
func NewNotFound(message string, err error) *Error   { return New(NotFound, message, err) }
func NewInternal(message string, err error) *Error   { return New(Internal, message, err) }

// As extracts an *Error from an error chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}

func is(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

func IsValidation(err error) bool { return is(err, Validation) }
func IsAuth(err error) bool       { return is(err, Auth) }
func IsForbidden(err error) bool  { return is(err, Forbidden) }
func IsNotFound(err error) bool   { return is(err, NotFound) }
