package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a failure into the error taxonomy shared by the
// ServiceNow client, the auth layer, and the envelope formatter.
type Kind string

const (
	// KindAuth means the caller's credentials are missing, invalid, or
	// expired (401-equivalent).
	KindAuth Kind = "auth_error"

	// KindAuthorization means the caller authenticated but lacks the
	// scope required by the tool (403-equivalent).
	KindAuthorization Kind = "authorization_error"

	// KindNotFound covers absent upstream resources and unknown tool
	// names (404-equivalent).
	KindNotFound Kind = "not_found"

	// KindRateLimit means the upstream is throttling (429-equivalent).
	KindRateLimit Kind = "rate_limit"

	// KindValidation means the tool arguments are malformed or missing;
	// raised before any upstream call (400-equivalent).
	KindValidation Kind = "validation_error"

	// KindAPI covers all other upstream failures (502-equivalent).
	KindAPI Kind = "api_error"

	// KindInternal is the fallback for unclassified faults. The
	// envelope formatter suppresses the message for this kind.
	KindInternal Kind = "internal_error"
)

// HTTPStatus returns the wire-level status equivalent for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindAuth:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindValidation:
		return http.StatusBadRequest
	case KindAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Retriable reports whether a caller may reasonably retry the failed
// operation after a delay.
func (k Kind) Retriable() bool {
	return k == KindRateLimit || k == KindAPI
}

// Error is a classified failure. StatusCode carries the upstream HTTP
// status when one was observed; RetryAfter carries the upstream's
// throttling hint for KindRateLimit.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	RetryAfter time.Duration
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a classified error with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error, preserving it for errors.Is/As.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf extracts the Kind from an error chain. Unclassified errors
// report KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As extracts the classified error from a chain, or nil.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// Is reports whether the error chain carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
