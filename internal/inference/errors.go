package inference

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// AuthenticationError means the credential was missing or rejected.
// It is fatal: retrying with the same configuration cannot succeed.
type AuthenticationError struct {
	Backend    string
	StatusCode int
	Err        error
}

func (e *AuthenticationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: authentication failed (status %d): %v", e.Backend, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: authentication failed: %v", e.Backend, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// ServiceUnavailableError covers timeouts, network failures, rate limiting
// and server errors. Callers may retry it.
type ServiceUnavailableError struct {
	Backend    string
	StatusCode int
	Err        error
}

func (e *ServiceUnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: service unavailable (status %d): %v", e.Backend, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: service unavailable: %v", e.Backend, e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error { return e.Err }

// MalformedResponseError means the model reply could not be read as a verdict.
// Raw holds the reply as received.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed verdict %q: %v", truncate(e.Raw, 200), e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ErrMissingCredential is wrapped by AuthenticationError when no credential
// was configured and no request was made.
var ErrMissingCredential = errors.New("credential is not configured")

func IsAuthentication(err error) bool {
	var target *AuthenticationError
	return errors.As(err, &target)
}

func IsServiceUnavailable(err error) bool {
	var target *ServiceUnavailableError
	return errors.As(err, &target)
}

func IsMalformedResponse(err error) bool {
	var target *MalformedResponseError
	return errors.As(err, &target)
}

// ClassifyStatus turns a non-2xx HTTP status into the matching error type.
// Statuses outside the taxonomy yield a plain error.
func ClassifyStatus(backend string, statusCode int, body string) error {
	cause := fmt.Errorf("response error %d: %s", statusCode, truncate(body, 500))
	switch {
	case statusCode == 401 || statusCode == 403:
		return &AuthenticationError{Backend: backend, StatusCode: statusCode, Err: cause}
	case statusCode == 408 || statusCode == 429 || statusCode >= 500:
		return &ServiceUnavailableError{Backend: backend, StatusCode: statusCode, Err: cause}
	default:
		return cause
	}
}

// truncate cuts s to at most limit bytes without splitting a UTF-8 sequence.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + "..."
}
