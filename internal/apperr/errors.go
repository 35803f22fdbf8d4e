// Package apperr defines the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation and HTTP mapping
type Kind string

const (
	KindValidation     Kind = "VALIDATION"
	KindNotFound       Kind = "NOT_FOUND"
	KindAuthorization  Kind = "FORBIDDEN"
	KindAuthentication Kind = "UNAUTHORIZED"
	KindConflict       Kind = "CONFLICT"
)

// Error is a domain error with a machine readable code and optional field causes
type Error struct {
	Kind    Kind              `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, code, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validation reports malformed input or a broken business rule
func Validation(format string, args ...interface{}) *Error {
	return newError(KindValidation, "VALIDATION_ERROR", format, args...)
}

// FieldValidation reports per-field causes
func FieldValidation(fields map[string]string) *Error {
	e := newError(KindValidation, "VALIDATION_ERROR", "invalid request")
	e.Fields = fields
	return e
}

// NotFound reports a missing entity by identifier
func NotFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, "NOT_FOUND", format, args...)
}

// Forbidden reports an authenticated caller acting on a resource they do not own
func Forbidden(format string, args ...interface{}) *Error {
	return newError(KindAuthorization, "FORBIDDEN", format, args...)
}

// Unauthenticated reports a missing or invalid access token
func Unauthenticated(format string, args ...interface{}) *Error {
	return newError(KindAuthentication, "AUTHENTICATION_REQUIRED", format, args...)
}

// InvalidCredentials reports a failed login
func InvalidCredentials() *Error {
	return newError(KindAuthentication, "INVALID_CREDENTIALS", "invalid credentials")
}

// Conflict reports a uniqueness violation
func Conflict(format string, args ...interface{}) *Error {
	return newError(KindConflict, "ALREADY_EXISTS", format, args...)
}

// Wrap attaches an underlying cause to e
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// KindOf returns the kind of err, or "" if err is not an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
