package errors

import (
	"errors"
	"fmt"
)

// Error types surfaced by the insight engine
type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeInvalidRange    ErrorType = "invalid_range"
	ErrorTypeDataUnavailable ErrorType = "data_unavailable"
	ErrorTypeInternal        ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type      ErrorType              `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Retryable bool                   `json:"retryable"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors
func NewValidationError(code, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// NewInvalidRangeError reports a malformed date or an end date before the start date.
// It is always raised before the ledger is queried.
func NewInvalidRangeError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeInvalidRange,
		Code:      "INVALID_RANGE",
		Message:   message,
		Retryable: false,
	}
}

// NewDataUnavailableError reports a failed or timed out ledger query. The engine
// never retries these; callers decide.
func NewDataUnavailableError(query string) *AppError {
	return &AppError{
		Type:      ErrorTypeDataUnavailable,
		Code:      "DATA_UNAVAILABLE",
		Message:   fmt.Sprintf("ledger query %s failed", query),
		Retryable: true,
		Details:   map[string]interface{}{"query": query},
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeInternal,
		Code:      "INTERNAL_ERROR",
		Message:   message,
		Retryable: false,
	}
}

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}
