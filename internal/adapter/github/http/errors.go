// Package githubhttp carries the typed error taxonomy and retry policy
// shared by everything that talks to the GitHub REST API.
package githubhttp

import "fmt"

// ErrorType categorizes a failed API call.
type ErrorType int

const (
	ErrTypeAuthentication ErrorType = iota
	ErrTypeRateLimit
	ErrTypeNotFound
	ErrTypeValidation
	ErrTypeServer
	ErrTypeTimeout
	ErrTypeNetwork
	ErrTypeUnknown
)

// String returns a human-readable description of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeAuthentication:
		return "authentication error"
	case ErrTypeRateLimit:
		return "rate limit exceeded"
	case ErrTypeNotFound:
		return "not found"
	case ErrTypeValidation:
		return "validation failed"
	case ErrTypeServer:
		return "server error"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeNetwork:
		return "network error"
	default:
		return "unknown error"
	}
}

// Error is an API call failure with enough context to decide whether to
// retry and what to log.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Retryable  bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("github: %s: %s (status: %d)", e.Type.String(), e.Message, e.StatusCode)
}

// Is matches errors of the same type, enabling errors.Is checks against
// sentinel instances.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsRetryable reports whether retrying the call can plausibly succeed.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewAuthenticationError creates an error for rejected credentials.
func NewAuthenticationError(message string) *Error {
	return &Error{Type: ErrTypeAuthentication, Message: message, StatusCode: 401, Retryable: false}
}

// NewRateLimitError creates an error for an exhausted rate limit.
func NewRateLimitError(message string, statusCode int) *Error {
	return &Error{Type: ErrTypeRateLimit, Message: message, StatusCode: statusCode, Retryable: true}
}

// NewNotFoundError creates an error for a missing resource.
func NewNotFoundError(message string) *Error {
	return &Error{Type: ErrTypeNotFound, Message: message, StatusCode: 404, Retryable: false}
}

// NewValidationError creates an error for a request GitHub refused to
// process, such as a review comment anchored at a stale position.
func NewValidationError(message string) *Error {
	return &Error{Type: ErrTypeValidation, Message: message, StatusCode: 422, Retryable: false}
}

// NewServerError creates an error for a 5xx response.
func NewServerError(message string, statusCode int) *Error {
	return &Error{Type: ErrTypeServer, Message: message, StatusCode: statusCode, Retryable: true}
}

// NewTimeoutError creates an error for an expired request deadline.
func NewTimeoutError(message string) *Error {
	return &Error{Type: ErrTypeTimeout, Message: message, StatusCode: 0, Retryable: true}
}

// NewNetworkError creates an error for a failed connection.
func NewNetworkError(message string) *Error {
	return &Error{Type: ErrTypeNetwork, Message: message, StatusCode: 0, Retryable: true}
}
