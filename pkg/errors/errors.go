package errors

import (
	"context"
	"errors"
	"net/http"
)

// Error is the typed failure every handler serialises. Err keeps the
// underlying cause for logs and never reaches the client.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Err != nil:
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	default:
		return e.Code + ": " + e.Message
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches cause to a new typed error.
func Wrap(cause error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: cause}
}

// Domain failures.
var (
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid username or password")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrInvalidState       = New("INVALID_STATE", http.StatusUnprocessableEntity, "operation not allowed in current state")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrPayloadTooLarge    = New("PAYLOAD_TOO_LARGE", http.StatusRequestEntityTooLarge, "file exceeds maximum size")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrTimeout            = New("TIMEOUT", http.StatusGatewayTimeout, "request timed out")

	// ErrCacheMiss never reaches a client; the cache layer turns it into a load.
	ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Assistant upstream failures.
var (
	ErrAIUnavailable  = New("AI_UNAVAILABLE", http.StatusServiceUnavailable, "assistant is not configured")
	ErrAIUpstreamAuth = New("AI_UPSTREAM_AUTH", http.StatusServiceUnavailable, "assistant upstream rejected credentials")
	ErrAIRateLimited  = New("AI_RATE_LIMITED", http.StatusTooManyRequests, "assistant rate limit exceeded")
	ErrAITimeout      = New("AI_TIMEOUT", http.StatusGatewayTimeout, "assistant upstream timed out")
	ErrAIGateway      = New("AI_GATEWAY", http.StatusBadGateway, "assistant upstream error")
)

// Is reports whether err carries target's code anywhere in its chain.
func Is(err error, target *Error) bool {
	var e *Error
	return target != nil && errors.As(err, &e) && e.Code == target.Code
}

// FromError returns the first typed error in err's chain. An expired
// context becomes ErrTimeout; anything else is an opaque ErrInternal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, ErrTimeout.Code, ErrTimeout.Status, ErrTimeout.Message)
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone copies err, replacing the message when one is given.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
