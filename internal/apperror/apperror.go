// Package apperror defines the domain error kinds shared by every layer.
//
// The gateway and services return these; only the handler package knows how
// they map to HTTP status codes. Callers test for a kind with errors.Is:
//
//	if errors.Is(err, apperror.ErrNotFound) { ... }
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// AppError is a domain error carrying its kind and the offending field.
type AppError struct {
	Err     error  // sentinel kind
	Message string // human-readable message
	Field   string // optional: form field causing the error
}

// Error returns the message.
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap returns the error kind, for errors.Is.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports that no row of the given resource matched id.
func NotFound(resource string, id any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %v", resource, id),
	}
}

// ValidationFailed reports invalid input for field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness violation on key.
func Conflict(resource string, key any) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict on %v", resource, key),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized reports failed authentication (unknown user or wrong
// credential). The message is deliberately the same for both cases.
func Unauthorized() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: "invalid username or password",
	}
}
