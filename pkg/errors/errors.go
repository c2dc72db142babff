package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrValidation
	ErrUnauthorized
	ErrBackendUnavailable
	ErrSchemaMismatch
	ErrNotImplemented
	ErrInternal
)

// HTTPStatus maps an error code to the status the API answers with.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrValidation:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusForbidden
	case ErrBackendUnavailable, ErrSchemaMismatch:
		return http.StatusServiceUnavailable
	case ErrNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func Validation(message string, err error) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
		Err:     err,
	}
}

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{
		Code:    ErrUnauthorized,
		Message: message,
	}
}

func BackendUnavailable(err error) *AppError {
	return &AppError{
		Code:    ErrBackendUnavailable,
		Message: "backend unavailable",
		Err:     err,
	}
}

// SchemaMismatch reports a table or column the deployment is missing.
func SchemaMismatch(table string, err error) *AppError {
	return &AppError{
		Code:    ErrSchemaMismatch,
		Message: fmt.Sprintf("table %q is missing or not migrated; run the database migrations", table),
		Err:     err,
	}
}

func NotImplemented(operation string) *AppError {
	return &AppError{
		Code:    ErrNotImplemented,
		Message: fmt.Sprintf("%s is not supported", operation),
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or ErrInternal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// Is reports whether err carries an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool           { return Is(err, ErrNotFound) }
func IsValidation(err error) bool         { return Is(err, ErrValidation) }
func IsUnauthorized(err error) bool       { return Is(err, ErrUnauthorized) }
func IsBackendUnavailable(err error) bool { return Is(err, ErrBackendUnavailable) }
func IsSchemaMismatch(err error) bool     { return Is(err, ErrSchemaMismatch) }
