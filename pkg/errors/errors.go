package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"

	"github.com/zfogg/dormdesk/pkg/api"
	"github.com/zfogg/dormdesk/pkg/client"
	"github.com/zfogg/dormdesk/pkg/guard"
)

// ErrorType categorizes different error types
type ErrorType string

const (
	// Network errors
	ErrorTypeNetwork ErrorType = "network"
	ErrorTypeTimeout ErrorType = "timeout"

	// Authentication errors
	ErrorTypeUnauthorized   ErrorType = "unauthorized"
	ErrorTypeForbidden      ErrorType = "forbidden"
	ErrorTypeSessionExpired ErrorType = "session_expired"

	// Validation errors
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeFileNotFound  ErrorType = "file_not_found"
	ErrorTypeInvalidFormat ErrorType = "invalid_format"

	// Server errors
	ErrorTypeServer   ErrorType = "server"
	ErrorTypeNotFound ErrorType = "not_found"
	ErrorTypeConflict ErrorType = "conflict"

	ErrorTypeUnknown ErrorType = "unknown"
)

// CLIError represents a structured error with context
type CLIError struct {
	Type       ErrorType
	Message    string
	Cause      error
	Suggestion string
	StatusCode int
}

// Error implements the error interface
func (e *CLIError) Error() string {
	return e.Message
}

// WithSuggestion adds a helpful suggestion to the error
func (e *CLIError) WithSuggestion(suggestion string) *CLIError {
	e.Suggestion = suggestion
	return e
}

// HasSuggestion returns true if the error has a suggestion
func (e *CLIError) HasSuggestion() bool {
	return e.Suggestion != ""
}

// Unwrap returns the underlying error
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// NewCLIError creates a new CLI error
func NewCLIError(errorType ErrorType, message string, cause error) *CLIError {
	return &CLIError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NetworkError creates a network error
func NetworkError(message string, cause error) *CLIError {
	err := NewCLIError(ErrorTypeNetwork, message, cause)
	err.Suggestion = "Check that the dormitory API is reachable (api.base_url) and try again."
	return err
}

// TimeoutError creates a timeout error
func TimeoutError(cause error) *CLIError {
	err := NewCLIError(ErrorTypeTimeout, "Request timed out", cause)
	err.Suggestion = "The server is taking too long to respond. Try again in a moment."
	return err
}

// SessionExpiredError creates a session expired error
func SessionExpiredError(cause error) *CLIError {
	err := NewCLIError(ErrorTypeSessionExpired, "You are not signed in or your session has expired", cause)
	err.Suggestion = "Run 'dormdesk auth login' to sign in again."
	return err
}

// UnauthorizedError creates an unauthorized error
func UnauthorizedError(cause error) *CLIError {
	err := NewCLIError(ErrorTypeUnauthorized, "The server rejected your session", cause)
	err.StatusCode = http.StatusUnauthorized
	err.Suggestion = "Run 'dormdesk auth login' to sign in again."
	return err
}

// ForbiddenError creates a forbidden error
func ForbiddenError(cause error) *CLIError {
	err := NewCLIError(ErrorTypeForbidden, "Access denied", cause)
	err.StatusCode = http.StatusForbidden
	err.Suggestion = "Your staff account lacks the permission for this action. Ask a dormitory administrator."
	return err
}

// ValidationError creates a validation error
func ValidationError(field, reason string) *CLIError {
	message := fmt.Sprintf("Validation error: %s - %s", field, reason)
	return NewCLIError(ErrorTypeValidation, message, nil)
}

// FileNotFoundError creates a file not found error
func FileNotFoundError(path string) *CLIError {
	err := NewCLIError(ErrorTypeFileNotFound, fmt.Sprintf("File not found: %s", path), nil)
	err.Suggestion = "Check the file path and try again."
	return err
}

// ImageFormatError creates an unsupported image error
func ImageFormatError(path string, cause error) *CLIError {
	err := NewCLIError(ErrorTypeInvalidFormat, fmt.Sprintf("Not a readable photo: %s", path), cause)
	err.Suggestion = "Bill photos must be JPEG or PNG."
	return err
}

// ServerError creates a server error
func ServerError(status int, cause error) *CLIError {
	err := NewCLIError(ErrorTypeServer, "Server error", cause)
	err.StatusCode = status
	err.Suggestion = "The server encountered an error. Try again in a few moments."
	return err
}

// NotFoundError creates a not found error
func NotFoundError(resourceType, identifier string) *CLIError {
	err := NewCLIError(ErrorTypeNotFound,
		fmt.Sprintf("%s not found: %s", resourceType, identifier),
		nil)
	err.StatusCode = http.StatusNotFound
	return err
}

// ConflictError creates a conflict error
func ConflictError(message string, cause error) *CLIError {
	err := NewCLIError(ErrorTypeConflict, message, cause)
	err.StatusCode = http.StatusConflict
	err.Suggestion = "Someone else changed this record. Refresh and try again."
	return err
}

// CategorizeError converts a standard error into a CLIError
func CategorizeError(err error) *CLIError {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	if errors.Is(err, guard.ErrRedirected) {
		return SessionExpiredError(err)
	}

	var verr *api.ValidationError
	if errors.As(err, &verr) {
		e := NewCLIError(ErrorTypeValidation, verr.Error(), err)
		e.Suggestion = "Check the values you passed and try again."
		return e
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return categorizeStatus(apiErr)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return TimeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TimeoutError(err)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return NetworkError("Could not connect to the dormitory API. Make sure it's running.", err)
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return NetworkError("Could not reach the dormitory API.", err)
	}
	if errors.Is(err, os.ErrNotExist) {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return FileNotFoundError(pathErr.Path)
		}
	}

	// Last resort for wrapped transport errors that lost their type
	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "connection refused"):
		return NetworkError("Could not connect to the dormitory API. Make sure it's running.", err)
	case strings.Contains(errMsg, "timeout"):
		return TimeoutError(err)
	default:
		return NewCLIError(ErrorTypeUnknown, errMsg, err)
	}
}

func categorizeStatus(apiErr *client.APIError) *CLIError {
	switch {
	case client.IsUnauthorized(apiErr):
		return UnauthorizedError(apiErr)
	case client.IsForbidden(apiErr):
		return ForbiddenError(apiErr)
	case client.IsNotFound(apiErr):
		e := NewCLIError(ErrorTypeNotFound, apiErr.Message, apiErr)
		e.StatusCode = apiErr.StatusCode
		return e
	case apiErr.StatusCode == http.StatusConflict:
		return ConflictError(apiErr.Message, apiErr)
	case apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnprocessableEntity:
		e := NewCLIError(ErrorTypeValidation, apiErr.Message, apiErr)
		e.StatusCode = apiErr.StatusCode
		return e
	case client.IsServerError(apiErr):
		return ServerError(apiErr.StatusCode, apiErr)
	default:
		e := NewCLIError(ErrorTypeUnknown, apiErr.Error(), apiErr)
		e.StatusCode = apiErr.StatusCode
		return e
	}
}

// FormatError returns a user-friendly error message
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	cliErr := CategorizeError(err)
	var sb strings.Builder

	sb.WriteString("❌ Error")
	if cliErr.Type != ErrorTypeUnknown {
		sb.WriteString(" (")
		sb.WriteString(string(cliErr.Type))
		sb.WriteString(")")
	}
	sb.WriteString(": ")
	sb.WriteString(cliErr.Message)
	sb.WriteString("\n")

	if cliErr.HasSuggestion() {
		sb.WriteString("\n💡 Suggestion: ")
		sb.WriteString(cliErr.Suggestion)
		sb.WriteString("\n")
	}

	return sb.String()
}
