// Package errors provides the error taxonomy shared by the database gateway
// and the chat workflows.
package errors

import (
	"errors"
	"fmt"
)

// Error codes as constants
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeConnection = "CONNECTION_ERROR"
	ErrCodeQuery      = "QUERY_ERROR"
)

// AppError represents an application-specific error with additional context.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for use with errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Validation creates an error for malformed or unrecognized user input.
// The workflow that receives it re-prompts the same step.
func Validation(field string, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("invalid %s: %s", field, message),
	}
}

// NotFound creates an error for a table, column or value that is absent from
// the schema catalog or a distinct-value lookup.
func NotFound(resource string, name string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, name),
	}
}

// Connection wraps a failure to open the database connection.
func Connection(err error) *AppError {
	return &AppError{
		Code:    ErrCodeConnection,
		Message: "failed to connect to database",
		Err:     err,
	}
}

// Query wraps a statement execution or fetch failure.
func Query(op string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeQuery,
		Message: op + " failed",
		Err:     err,
	}
}

// Code returns the AppError code found in err's chain, or "" if there is none.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return Code(err) == ErrCodeValidation }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return Code(err) == ErrCodeNotFound }

// IsConnection reports whether err is a connection error.
func IsConnection(err error) bool { return Code(err) == ErrCodeConnection }

// IsQuery reports whether err is a query error.
func IsQuery(err error) bool { return Code(err) == ErrCodeQuery }
