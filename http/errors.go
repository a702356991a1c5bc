package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("authentication failed")
	ErrForbidden    = errors.New("permission denied")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrBadRequest   = errors.New("bad request")
	ErrServerError  = errors.New("server error")
)

// statusSentinels maps 4xx replies to the error they unwrap to. Any 5xx
// unwraps to ErrServerError.
var statusSentinels = map[int]error{
	http.StatusBadRequest:      ErrBadRequest,
	http.StatusUnauthorized:    ErrUnauthorized,
	http.StatusForbidden:       ErrForbidden,
	http.StatusNotFound:        ErrNotFound,
	http.StatusTooManyRequests: ErrRateLimited,
}

// APIError is a non-2xx reply from a notification sink or provider API.
type APIError struct {
	Service    string // "slack", "webhook", "github", ...
	StatusCode int
	Message    string
	Endpoint   string
	RequestID  string // from X-Request-Id, when the service sends one
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Service)
	b.WriteString(" API error (")
	b.WriteString(strconv.Itoa(e.StatusCode))
	b.WriteString(") at ")
	b.WriteString(e.Endpoint)
	if e.RequestID != "" {
		b.WriteString(" [" + e.RequestID + "]")
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Unwrap lets errors.Is match the sentinel for the status code.
func (e *APIError) Unwrap() error {
	if e.StatusCode >= 500 {
		return ErrServerError
	}
	return statusSentinels[e.StatusCode]
}

func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// IsRetryable reports whether a delivery that failed with err may succeed
// on a later attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServerError)
}
