package tibber

import (
	"fmt"
)

// ErrorKind categorizes a failed Tibber API call.
type ErrorKind string

const (
	// ErrorKindTransport indicates a network-level failure before any HTTP
	// status was received.
	ErrorKindTransport ErrorKind = "transport"
	// ErrorKindStatus indicates a non-2xx HTTP response.
	ErrorKindStatus ErrorKind = "status"
	// ErrorKindResponse indicates a 2xx response whose body did not carry
	// the requested data.
	ErrorKindResponse ErrorKind = "response"
)

// APIError is a structured error from a Tibber API call.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("tibber %s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("tibber %s error: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *APIError) Unwrap() error {
	return e.Cause
}

func newTransportError(cause error) *APIError {
	return &APIError{Kind: ErrorKindTransport, Message: "request failed", Cause: cause}
}

func newStatusError(statusCode int, body string) *APIError {
	return &APIError{Kind: ErrorKindStatus, StatusCode: statusCode, Message: body}
}

func newResponseError(message string) *APIError {
	return &APIError{Kind: ErrorKindResponse, Message: message}
}
