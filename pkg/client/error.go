package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
)

// APIError is returned for every non-2xx response
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	// Body is the raw response text, kept for diagnostics
	Body string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%d] %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("[%d] %s", e.StatusCode, e.Message)
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ParseError builds an APIError from a failed response
func ParseError(resp *resty.Response) *APIError {
	body := string(resp.Body())
	apiErr := &APIError{
		StatusCode: resp.StatusCode(),
		Message:    body,
		Body:       body,
	}

	var env errorEnvelope
	if err := json.Unmarshal(resp.Body(), &env); err == nil {
		apiErr.Code = env.Code
		if apiErr.Code == "" {
			apiErr.Code = env.Error
		}
		if env.Message != "" {
			apiErr.Message = env.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(apiErr.StatusCode)
	}
	return apiErr
}

// StatusCode extracts the HTTP status from err, or 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsUnauthorized checks if error is due to missing/invalid authentication
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsForbidden checks if error is due to insufficient permissions
func IsForbidden(err error) bool {
	return StatusCode(err) == http.StatusForbidden
}

// IsNotFound checks if error is due to resource not found
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsServerError checks if error is due to server error (5xx)
func IsServerError(err error) bool {
	return StatusCode(err) >= http.StatusInternalServerError
}
