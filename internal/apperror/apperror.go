// Package apperror defines the application's error taxonomy.
//
// Services return these domain errors; the HTTP layer maps them to status
// codes with errors.Is/errors.As. Raw store or cache errors never cross the
// handler boundary.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("temporarily unavailable")
)

type AppError struct {
	Err     error  // sentinel category
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, key string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, key),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Unauthorized indicates the caller has no valid session. Returned before any
// store or cache access is attempted.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Forbidden indicates the caller is authenticated but lacks permission.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict: %s", resource, key),
	}
}

// Unavailable wraps a store failure that persisted after retries. The cause
// stays in the chain for logs; Message is generic so handlers can surface it
// to end users without leaking internals.
func Unavailable(cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrUnavailable, cause),
		Message: "service temporarily unavailable, please retry",
	}
}
