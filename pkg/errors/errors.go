package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Market data errors

var (
	// ErrExchangeUnavailable indicates an exchange API is unavailable
	ErrExchangeUnavailable = errors.New("exchange unavailable")

	// ErrInvalidSymbol indicates an unsupported underlying symbol
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrNoQuoteData indicates no option quotes are available for a window
	ErrNoQuoteData = errors.New("no option quote data")

	// ErrQuoteRejected indicates an exchange quote failed normalization
	ErrQuoteRejected = errors.New("quote rejected by validation")

	// ErrRateLimitExceeded indicates API rate limit exceeded
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Analytics errors

var (
	// ErrInvalidPeriod indicates an unknown time period value
	ErrInvalidPeriod = errors.New("invalid time period")

	// ErrInvalidThreshold indicates a threshold triple violating
	// attention <= warning <= severe ordering
	ErrInvalidThreshold = errors.New("invalid threshold ordering")

	// ErrAlertNotFound indicates the alert id does not exist
	ErrAlertNotFound = errors.New("alert not found")
)

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
