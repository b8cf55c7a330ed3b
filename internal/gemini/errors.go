package gemini

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors classifying every service failure. Submission code retries
// quota and transient failures with backoff; invalid-request and permission
// failures are surfaced immediately.
var (
	ErrQuotaExceeded    = errors.New("quota exceeded")
	ErrTransient        = errors.New("transient service error")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrPermissionDenied = errors.New("permission denied")
)

// ServiceError carries the classified kind plus the HTTP detail of one failed
// service call. It unwraps to its sentinel so callers use errors.Is.
type ServiceError struct {
	Kind       error
	StatusCode int
	Detail     string
}

func (e *ServiceError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%v (status %d): %s", e.Kind, e.StatusCode, e.Detail)
}

func (e *ServiceError) Unwrap() error {
	return e.Kind
}

// Retryable reports whether the caller may retry the failed call with
// backoff. Quota and transient failures are retryable; everything else is
// fatal for the request that caused it.
func Retryable(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrTransient)
}

// classifyStatus maps an HTTP error status onto the error taxonomy. The body
// is truncated into the detail for log readability.
func classifyStatus(statusCode int, body []byte) error {
	detail := string(body)
	if len(detail) > 200 {
		detail = detail[:200] + "..."
	}

	var kind error
	switch {
	case statusCode == http.StatusTooManyRequests:
		kind = ErrQuotaExceeded
	case statusCode >= 500:
		kind = ErrTransient
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		kind = ErrPermissionDenied
	default:
		// 400s other than auth are malformed requests; retrying cannot help.
		kind = ErrInvalidRequest
	}

	return &ServiceError{Kind: kind, StatusCode: statusCode, Detail: detail}
}

// transientErr wraps a network-level failure as retryable.
func transientErr(err error) error {
	return &ServiceError{Kind: ErrTransient, Detail: err.Error()}
}
