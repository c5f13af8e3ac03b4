package repository

import (
	"errors"
	"fmt"
	"net/http"
)

// RequestError wraps a failed backend call with the numeric status the
// backend reported. The status code is the primary machine-readable
// discriminator for all injected failures.
type RequestError struct {
	StatusCode int
	Method     string
	Path       string
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// AuthError is synthesized when pull request listing fails in a pattern
// consistent with insufficient repository access. It is always fatal and
// never retried.
type AuthError struct {
	Owner string
	Repo  string
	Err   error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("insufficient access to %s/%s: %v", e.Owner, e.Repo, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ErrorStatus returns the status code carried by err, or 0 when err carries
// none.
func ErrorStatus(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool {
	return ErrorStatus(err) == http.StatusNotFound
}

// IsPermissionDenied reports whether err is a permission-denied failure.
func IsPermissionDenied(err error) bool {
	return ErrorStatus(err) == http.StatusForbidden
}

// IsTransient reports whether err is a gateway-unavailable class failure, a
// known transient condition while the backend cache warms up.
func IsTransient(err error) bool {
	switch ErrorStatus(err) {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// isAuthStatus reports whether a listing failure looks like a token without
// access to the repository. GitHub answers 404 rather than 403 for private
// repositories the token cannot see.
func isAuthStatus(status int) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}
