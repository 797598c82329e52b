package provider

import (
	"errors"
	"fmt"
)

// ErrTimeout indicates the per-call budget elapsed before the provider replied.
// It is distinct from other transport or HTTP failures so callers can surface
// a retry hint to the user.
var ErrTimeout = errors.New("provider: request timeout")

// APIError is a non-2xx provider response carrying the provider's message.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return fmt.Sprintf("provider: %s (status=%d)", e.Message, e.Status)
	}
	return fmt.Sprintf("provider: request failed (status=%d)", e.Status)
}

// StatusCode returns the HTTP status of the failed call.
func (e *APIError) StatusCode() int {
	if e == nil {
		return 0
	}
	return e.Status
}

// IsConflict reports whether the provider rejected the call as a duplicate.
func (e *APIError) IsConflict() bool {
	return e != nil && e.Status == 409
}
