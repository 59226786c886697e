// Package llm provides the OpenRouter inference client used for both
// candidate generation and schema-constrained judge scoring. It wraps the
// OpenAI-compatible chat-completions API with bearer authentication,
// client-side rate limiting, bounded retry with exponential backoff, and a
// best-effort generation-stats lookup.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrEmptyAPIKey indicates that an API key was required but not provided.
	ErrEmptyAPIKey = errors.New("API key cannot be empty")
	// ErrNoResponseChoice indicates that the endpoint returned no choices.
	ErrNoResponseChoice = errors.New("no response choices returned")
	// ErrRetriesExhausted wraps the last transient error after the retry
	// bound is exhausted.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// ErrorType categorizes an endpoint error for retry decisions.
type ErrorType int

const (
	// ErrorTypeUnknown indicates an error of an undetermined category.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeAuthentication indicates an invalid or rejected API key.
	ErrorTypeAuthentication
	// ErrorTypeRateLimit indicates HTTP 429 from the endpoint.
	ErrorTypeRateLimit
	// ErrorTypeBadRequest indicates a malformed request.
	ErrorTypeBadRequest
	// ErrorTypeServerError indicates a 5xx failure on the endpoint's side.
	ErrorTypeServerError
	// ErrorTypeTimeout indicates the request timed out.
	ErrorTypeTimeout
)

// ProviderError normalizes endpoint failures into a common shape carrying
// the classified type, HTTP status, and the original error.
type ProviderError struct {
	// Type classifies the error.
	Type ErrorType
	// StatusCode holds the HTTP status from the endpoint, when applicable.
	StatusCode int
	// Message is the endpoint's error message.
	Message string
	// WrappedError is the original underlying error.
	WrappedError error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	base := "openrouter error"
	if e.StatusCode > 0 {
		base += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if s := e.typeString(); s != "" {
		base += fmt.Sprintf(" [%s]", s)
	}
	if e.Message != "" {
		base += ": " + e.Message
	}
	if e.WrappedError != nil {
		base += fmt.Sprintf(": %v", e.WrappedError)
	}
	return base
}

// Unwrap returns the wrapped error for errors.Is/errors.As inspection.
func (e *ProviderError) Unwrap() error { return e.WrappedError }

// IsRetryable reports whether the failed request should be retried.
// Only rate limiting and timeouts are transient; every other endpoint
// failure propagates to the caller immediately.
func (e *ProviderError) IsRetryable() bool {
	return e.Type == ErrorTypeRateLimit || e.Type == ErrorTypeTimeout
}

func (e *ProviderError) typeString() string {
	switch e.Type {
	case ErrorTypeAuthentication:
		return "authentication"
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeBadRequest:
		return "bad_request"
	case ErrorTypeServerError:
		return "server_error"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return ""
	}
}

// classifyHTTPError builds a ProviderError from an HTTP status code.
func classifyHTTPError(statusCode int, message string, err error) *ProviderError {
	var errType ErrorType
	switch {
	case statusCode == 401 || statusCode == 403:
		errType = ErrorTypeAuthentication
	case statusCode == 429:
		errType = ErrorTypeRateLimit
	case statusCode >= 500:
		errType = ErrorTypeServerError
	case statusCode >= 400:
		errType = ErrorTypeBadRequest
	default:
		errType = ErrorTypeUnknown
	}
	return &ProviderError{Type: errType, StatusCode: statusCode, Message: message, WrappedError: err}
}

// classifyContextError builds a ProviderError from a context failure.
// Deadline expiry is a timeout and therefore retryable; explicit
// cancellation is not.
func classifyContextError(err error) *ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Type: ErrorTypeTimeout, Message: "request timed out", WrappedError: err}
	}
	return &ProviderError{Type: ErrorTypeUnknown, Message: "request canceled", WrappedError: err}
}
