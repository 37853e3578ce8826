package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/zfogg/dormdesk/pkg/api"
	"github.com/zfogg/dormdesk/pkg/client"
	"github.com/zfogg/dormdesk/pkg/guard"
)

// TestNewCLIError creates and validates a CLI error
func TestNewCLIError(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewCLIError(ErrorTypeValidation, "Test error", cause)

	if err == nil {
		t.Fatal("NewCLIError returned nil")
	}

	if err.Type != ErrorTypeValidation {
		t.Errorf("Expected type %s, got %s", ErrorTypeValidation, err.Type)
	}

	if err.Message != "Test error" {
		t.Errorf("Expected message 'Test error', got '%s'", err.Message)
	}

	if err.Cause != cause {
		t.Error("Cause not set correctly")
	}
}

// TestWithSuggestion adds suggestion to error
func TestWithSuggestion(t *testing.T) {
	err := NewCLIError(ErrorTypeValidation, "Test", nil)
	suggestion := "Try something else"

	result := err.WithSuggestion(suggestion)

	if !result.HasSuggestion() {
		t.Error("HasSuggestion returned false")
	}

	if result.Suggestion != suggestion {
		t.Errorf("Expected suggestion '%s', got '%s'", suggestion, result.Suggestion)
	}
}

func TestNetworkError(t *testing.T) {
	err := NetworkError("Connection failed", nil)

	if err.Type != ErrorTypeNetwork {
		t.Errorf("Expected type %s, got %s", ErrorTypeNetwork, err.Type)
	}

	if !strings.Contains(err.Suggestion, "api.base_url") {
		t.Error("Expected suggestion to point at the api.base_url setting")
	}
}

func TestSessionExpiredError(t *testing.T) {
	err := SessionExpiredError(nil)

	if err.Type != ErrorTypeSessionExpired {
		t.Errorf("Expected type %s, got %s", ErrorTypeSessionExpired, err.Type)
	}

	if !strings.Contains(err.Suggestion, "auth login") {
		t.Error("Expected login suggestion for expired session")
	}
}

func TestValidationError(t *testing.T) {
	err := ValidationError("date", "must be YYYY-MM-DD")

	if err.Type != ErrorTypeValidation {
		t.Errorf("Expected type %s, got %s", ErrorTypeValidation, err.Type)
	}

	if !strings.Contains(err.Message, "date") || !strings.Contains(err.Message, "YYYY-MM-DD") {
		t.Errorf("Expected field and reason in message, got %q", err.Message)
	}
}

func TestFileNotFoundError(t *testing.T) {
	path := "/path/to/bill.jpg"
	err := FileNotFoundError(path)

	if err.Type != ErrorTypeFileNotFound {
		t.Errorf("Expected type %s, got %s", ErrorTypeFileNotFound, err.Type)
	}

	if !strings.Contains(err.Message, path) {
		t.Error("Expected path in message")
	}
}

func TestImageFormatError(t *testing.T) {
	err := ImageFormatError("scan.tiff", errors.New("image: unknown format"))

	if err.Type != ErrorTypeInvalidFormat {
		t.Errorf("Expected type %s, got %s", ErrorTypeInvalidFormat, err.Type)
	}

	if !strings.Contains(err.Suggestion, "JPEG") {
		t.Error("Expected supported formats in suggestion")
	}
}

func TestNotFoundError(t *testing.T) {
	err := NotFoundError("Parcel", "17")

	if err.Type != ErrorTypeNotFound {
		t.Errorf("Expected type %s, got %s", ErrorTypeNotFound, err.Type)
	}

	if !strings.Contains(err.Message, "Parcel") || !strings.Contains(err.Message, "17") {
		t.Errorf("Expected resource and identifier in message, got %q", err.Message)
	}
}

// invalidUpsert fails validation before any request is made
func invalidUpsert() error {
	_, err := api.New(nil).UpsertRollcall(context.Background(), api.RollcallUpsert{StudentID: -1})
	return err
}

// TestCategorizeError categorizes errors by their type, not their text
func TestCategorizeError(t *testing.T) {
	apiError := func(status int) error {
		return fmt.Errorf("list rooms: %w", &client.APIError{StatusCode: status, Message: http.StatusText(status)})
	}
	validationErr := invalidUpsert()

	testCases := []struct {
		input    error
		expected ErrorType
		name     string
	}{
		{apiError(http.StatusUnauthorized), ErrorTypeUnauthorized, "401"},
		{apiError(http.StatusForbidden), ErrorTypeForbidden, "403"},
		{apiError(http.StatusNotFound), ErrorTypeNotFound, "404"},
		{apiError(http.StatusConflict), ErrorTypeConflict, "409"},
		{apiError(http.StatusUnprocessableEntity), ErrorTypeValidation, "422"},
		{apiError(http.StatusBadGateway), ErrorTypeServer, "502"},
		{fmt.Errorf("rollcall show: %w", guard.ErrRedirected), ErrorTypeSessionExpired, "redirected"},
		{validationErr, ErrorTypeValidation, "payload validation"},
		{fmt.Errorf("GET /rooms: %w", context.DeadlineExceeded), ErrorTypeTimeout, "deadline"},
		{fmt.Errorf("GET /rooms: %w", syscall.ECONNREFUSED), ErrorTypeNetwork, "refused"},
		{&os.PathError{Op: "open", Path: "bill.jpg", Err: os.ErrNotExist}, ErrorTypeFileNotFound, "missing file"},
		{errors.New("dial tcp: connection refused"), ErrorTypeNetwork, "refused text"},
		{errors.New("something odd"), ErrorTypeUnknown, "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := CategorizeError(tc.input)

			if err.Type != tc.expected {
				t.Errorf("Expected type %s, got %s", tc.expected, err.Type)
			}
			if tc.expected != ErrorTypeUnknown && err.Cause == nil && tc.expected != ErrorTypeFileNotFound {
				t.Error("Expected the original error to be kept as cause")
			}
		})
	}
}

func TestCategorizeErrorKeepsStatus(t *testing.T) {
	err := CategorizeError(&client.APIError{StatusCode: http.StatusServiceUnavailable})

	if err.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", err.StatusCode)
	}
}

func TestCategorizeErrorPassesCLIErrorThrough(t *testing.T) {
	original := ConflictError("already picked up", nil)

	if CategorizeError(fmt.Errorf("wrapped: %w", original)) != original {
		t.Error("Expected the wrapped CLIError to be returned as is")
	}
}

func TestValidationErrorUnwrapsToValidator(t *testing.T) {
	var fields validator.ValidationErrors
	if !errors.As(invalidUpsert(), &fields) {
		t.Error("Expected validator field errors behind the validation error")
	}
}

// TestFormatError formats error for display
func TestFormatError(t *testing.T) {
	err := SessionExpiredError(nil)
	formatted := FormatError(err)

	if !strings.Contains(formatted, "Error") {
		t.Error("Expected 'Error' in formatted message")
	}

	if !strings.Contains(formatted, "session_expired") {
		t.Error("Expected error type in formatted message")
	}

	if !strings.Contains(formatted, "Suggestion") {
		t.Error("Expected suggestion in formatted message")
	}
}

func TestFormatError_NoSuggestion(t *testing.T) {
	err := NewCLIError(ErrorTypeUnknown, "Some error", nil)
	formatted := FormatError(err)

	if !strings.Contains(formatted, "Some error") {
		t.Error("Expected error message in formatted output")
	}

	if strings.Contains(formatted, "Suggestion") {
		t.Error("Did not expect a suggestion")
	}
}

// TestFormatError_Nil handles nil error
func TestFormatError_Nil(t *testing.T) {
	formatted := FormatError(nil)

	if formatted != "" {
		t.Errorf("Expected empty string for nil error, got '%s'", formatted)
	}
}

// TestUnwrap returns underlying error
func TestUnwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewCLIError(ErrorTypeValidation, "Test", cause)

	if err.Unwrap() != cause {
		t.Error("Unwrap did not return the correct underlying error")
	}
}
