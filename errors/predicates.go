package errors

import (
	"errors"
	"strings"

	devhttp "github.com/randalmurphal/enrich/http"
)

var (
	refusedMarkers = []string{"connection refused", "no such host", "network is unreachable", "dial tcp"}
	tlsMarkers     = []string{"certificate", "tls", "x509"}
	timeoutMarkers = []string{"timeout", "deadline exceeded"}
)

// IsAuthError checks if an error is authentication-related.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotAuthenticated) || devhttp.IsUnauthorized(err) {
		return true
	}
	return containsAny(strings.ToLower(err.Error()), "unauthenticated", "unauthorized", "bad credentials", "401")
}

// IsConnectionError checks if an error is connection-related.
// This includes TLS errors, timeouts, and network connectivity issues.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnectionFailed) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return containsAny(errStr, refusedMarkers...) ||
		containsAny(errStr, tlsMarkers...) ||
		containsAny(errStr, timeoutMarkers...)
}

// IsPermissionError checks if an error is permission-related.
func IsPermissionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPermissionDenied) || errors.Is(err, devhttp.ErrForbidden) {
		return true
	}
	return containsAny(strings.ToLower(err.Error()), "permission denied", "forbidden", "403")
}

// IsConfigError checks if an error comes from invalid configuration.
func IsConfigError(err error) bool {
	return err != nil && errors.Is(err, ErrInvalidConfig)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
