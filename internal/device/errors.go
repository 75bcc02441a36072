package device

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// ErrorType represents the category of error that occurred while talking
// to the controller. The device sits on a trusted local network, so there
// is no auth category.
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (connection refused, timeout, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeHTTP indicates an HTTP-level error (non-200 status code)
	ErrTypeHTTP
	// ErrTypeParse indicates a parsing error (malformed JSON, invalid response)
	ErrTypeParse
	// ErrTypeValidation indicates a validation error (invalid request payload)
	ErrTypeValidation
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the device refused the connection
	ErrTypeConnectionRefused
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DeviceError represents an error that occurred during device communication
type DeviceError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Err        error     // Underlying error (if any)
	Retryable  bool      // Whether the error is retryable
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// classifyNetworkError analyzes an error and returns a more specific error type
func classifyNetworkError(err error) *DeviceError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &DeviceError{
			Type:      ErrTypeTimeout,
			Message:   "Request timed out",
			Err:       err,
			Retryable: true,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &DeviceError{
				Type:      ErrTypeConnectionRefused,
				Message:   "Device refused connection",
				Err:       err,
				Retryable: true,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// Recursively classify the underlying error
		return classifyNetworkError(urlErr.Err)
	}

	return &DeviceError{
		Type:      ErrTypeNetwork,
		Message:   "Network error occurred",
		Err:       err,
		Retryable: true,
	}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *DeviceError {
	classified := classifyNetworkError(err)
	if classified != nil {
		classified.Message = message
		return classified
	}
	return &DeviceError{
		Type:      ErrTypeNetwork,
		Message:   message,
		Err:       err,
		Retryable: true,
	}
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(statusCode int, message string) *DeviceError {
	retryable := statusCode >= 500 // Server errors are retryable
	return &DeviceError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *DeviceError {
	return &DeviceError{
		Type:      ErrTypeParse,
		Message:   message,
		Err:       err,
		Retryable: false,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *DeviceError {
	return &DeviceError{
		Type:      ErrTypeValidation,
		Message:   message,
		Retryable: false,
	}
}

// IsNetworkError checks if an error is a network error (including timeout and connection refused)
func IsNetworkError(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeNetwork ||
			devErr.Type == ErrTypeTimeout ||
			devErr.Type == ErrTypeConnectionRefused
	}
	return false
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeHTTP
	}
	return false
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeParse
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeValidation
	}
	return false
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Retryable
	}
	// Unknown errors are not retryable by default
	return false
}

// ShortErrorMessage returns a concise, user-friendly error message suitable
// for inline display next to the control that triggered the write.
func ShortErrorMessage(err error) string {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return err.Error()
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return "Device not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Device refused connection - is it powered on?"
	case ErrTypeNetwork:
		return "Network error - check connection"
	case ErrTypeHTTP:
		return fmt.Sprintf("Device error (HTTP %d)", devErr.StatusCode)
	case ErrTypeParse:
		return "Failed to parse device response"
	case ErrTypeValidation:
		return devErr.Message
	default:
		return devErr.Message
	}
}
