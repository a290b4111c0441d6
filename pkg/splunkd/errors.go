package splunkd

import (
	"errors"
	"fmt"
)

// Sentinel errors for transport operations.
var (
	// ErrNotFound indicates the requested resource does not exist (404).
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates authentication failed (401).
	ErrUnauthorized = errors.New("authentication failed")

	// ErrForbidden indicates the caller lacks permission (403).
	ErrForbidden = errors.New("authorization denied")

	// ErrRateLimited indicates the server throttled the request (429).
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrServer indicates a server-side failure (5xx).
	ErrServer = errors.New("server error")
)

// APIError wraps a failed request against the search service with context.
type APIError struct {
	// Op is the operation that failed (e.g., "GET", "POST").
	Op string

	// Path is the endpoint path that was requested.
	Path string

	// StatusCode is the HTTP status code, if a response was received.
	StatusCode int

	// Detail is the server-provided error text, if any.
	Detail string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d: %s", e.Op, e.Path, e.StatusCode, e.Detail)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: %d: %v", e.Op, e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error indicates the resource was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized returns true if the error indicates authentication failed.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden returns true if the error indicates insufficient permissions.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsRateLimited returns true if the error indicates the request was throttled.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsServer returns true if the error indicates a server-side failure.
func IsServer(err error) bool {
	return errors.Is(err, ErrServer)
}

// sentinelForStatus maps an HTTP status code to its sentinel error.
func sentinelForStatus(code int) error {
	switch {
	case code == 401:
		return ErrUnauthorized
	case code == 403:
		return ErrForbidden
	case code == 404:
		return ErrNotFound
	case code == 429:
		return ErrRateLimited
	case code >= 500:
		return ErrServer
	default:
		return fmt.Errorf("unexpected status %d", code)
	}
}
