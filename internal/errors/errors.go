package errors

import (
	"errors"
	"fmt"
)

// Code classifies an error for programmatic handling.
type Code string

const (
	CodeValidation Code = "VALIDATION_FAILED"
	CodeParse      Code = "PARSE_FAILED"
	CodeConfig     Code = "CONFIG_INVALID"
	CodeInternal   Code = "INTERNAL_ERROR"
)

// AppError is a structured application error: a stable code, a human-readable
// message and optional details for diagnostics.
type AppError struct {
	Code    Code        `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause to errors.Is and errors.As.
func (e *AppError) Unwrap() error { return e.cause }

// Is matches AppErrors by code so sentinel comparisons survive wrapping.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// New creates an AppError with the given code and message.
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{Code: code, Message: message, cause: err}
}

// ValidationDetail identifies the field a validation error refers to.
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewValidationError creates a validation error tied to one field.
func NewValidationError(field, message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Details: ValidationDetail{Field: field, Message: message},
	}
}

// NewParseError creates a parse error for malformed input data.
func NewParseError(message string, cause error) *AppError {
	return Wrap(cause, CodeParse, message)
}

// NewConfigError creates an error for invalid configuration.
func NewConfigError(message string, cause error) *AppError {
	return Wrap(cause, CodeConfig, message)
}
