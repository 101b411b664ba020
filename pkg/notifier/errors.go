package notifier

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured indicates a channel is missing credentials or an endpoint
	ErrNotConfigured = errors.New("notifier not configured")

	// ErrRetryExceeded indicates a message still failed after all retries
	ErrRetryExceeded = errors.New("message not delivered after retries")
)

// APIError is an error reported in a chat API response body
type APIError struct {
	Service string
	Code    int
	Message string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %s (code: %d)", e.Service, e.Message, e.Code)
}

// HTTPError is a non-2xx response from a chat API
type HTTPError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP request failed with status %d: %s", e.StatusCode, e.Body)
}
