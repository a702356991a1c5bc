package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/enrich/config"
	"github.com/randalmurphal/enrich/enhancer"
	"github.com/randalmurphal/enrich/git"
	devhttp "github.com/randalmurphal/enrich/http"
	"github.com/randalmurphal/enrich/pr"
)

// CLIError wraps an error with user-friendly context and suggestions.
type CLIError struct {
	// Err is the underlying error
	Err error

	// Message is a user-friendly description of what went wrong
	Message string

	// Suggestion is an actionable hint for the user
	Suggestion string

	// Details provides additional context (optional)
	Details string
}

func (e *CLIError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Details != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Details)
	}

	if e.Suggestion != "" {
		sb.WriteString("\n\n")
		sb.WriteString(e.Suggestion)
	}

	return sb.String()
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// ErrorMessenger provides customizable error messages.
type ErrorMessenger interface {
	NotInGitRepoMessage() (message, suggestion string)
	ConfigErrorMessage() (message, suggestion string)
	// TokenMissingMessage is used when provider has no token configured.
	TokenMissingMessage(provider string) (message, suggestion string)
	AuthErrorMessage(service string) (message, suggestion string)
	PermissionDeniedMessage(service string) (message, suggestion string)
	ConnectionErrorMessage(target string) (message, suggestion string)
	TLSErrorMessage(target string) (message, suggestion string)
	TimeoutErrorMessage(target string) (message, suggestion string)
	InvalidInputMessage(what string) (message, suggestion string)
}

// DefaultMessenger provides the messages used by the enrich CLI.
type DefaultMessenger struct{}

func (DefaultMessenger) NotInGitRepoMessage() (string, string) {
	return "This command must be run from within a git repository.",
		"Run it from a repository checkout, or pass --dir."
}

func (DefaultMessenger) ConfigErrorMessage() (string, string) {
	return "The enrich configuration is invalid.",
		"Fix the values below with 'enrich config set <key> <value>' or the matching ENRICH_ variable."
}

func (DefaultMessenger) TokenMissingMessage(provider string) (string, string) {
	return fmt.Sprintf("No API token is configured for %s.", provider),
		"Set GITHUB_TOKEN or GITLAB_TOKEN (or GIT_TOKEN), or set pr.provider to gh or none."
}

func (DefaultMessenger) AuthErrorMessage(service string) (string, string) {
	return fmt.Sprintf("%s rejected the credentials.", service),
		"Check that the token is valid and has not expired."
}

func (DefaultMessenger) PermissionDeniedMessage(service string) (string, string) {
	return fmt.Sprintf("The token is not allowed to read from %s.", service),
		"Grant the token read access to the repository and its pull requests."
}

func (DefaultMessenger) ConnectionErrorMessage(target string) (string, string) {
	return fmt.Sprintf("Cannot connect to %s", target),
		"Check that:\n  - The service is running\n  - The URL is correct\n  - Your network connection is working"
}

func (DefaultMessenger) TLSErrorMessage(target string) (string, string) {
	return fmt.Sprintf("TLS/certificate error connecting to %s", target),
		"Check that the server certificate is valid."
}

func (DefaultMessenger) TimeoutErrorMessage(target string) (string, string) {
	return fmt.Sprintf("Connection to %s timed out", target),
		"The service may be overloaded or unreachable.\nTry again in a moment."
}

func (DefaultMessenger) InvalidInputMessage(what string) (string, string) {
	return fmt.Sprintf("Invalid %s.", what),
		"Run the command with --help to see the expected format."
}

// WrapConfig configures error wrapping behavior.
type WrapConfig struct {
	Messenger ErrorMessenger
}

// Option configures WrapConfig.
type Option func(*WrapConfig)

// WithMessenger sets a custom error messenger.
func WithMessenger(m ErrorMessenger) Option {
	return func(c *WrapConfig) {
		c.Messenger = m
	}
}

func getMessenger(opts []Option) ErrorMessenger {
	cfg := &WrapConfig{
		Messenger: DefaultMessenger{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg.Messenger
}

// Wrap turns known failures from the enrich packages into a *CLIError.
// Anything unrecognised, including an existing *CLIError, is returned as
// is.
func Wrap(err error, opts ...Option) error {
	if err == nil {
		return nil
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return err
	}
	messenger := getMessenger(opts)

	var cfgErr *enhancer.ConfigError
	switch {
	case errors.Is(err, git.ErrNotGitRepo):
		msg, suggestion := messenger.NotInGitRepoMessage()
		return &CLIError{Err: fmt.Errorf("%w: %w", ErrNotInGitRepo, err), Message: msg, Suggestion: suggestion}

	case errors.Is(err, config.ErrInvalidValue), errors.As(err, &cfgErr):
		msg, suggestion := messenger.ConfigErrorMessage()
		return &CLIError{
			Err:        fmt.Errorf("%w: %w", ErrInvalidConfig, err),
			Message:    msg,
			Details:    err.Error(),
			Suggestion: suggestion,
		}

	case errors.Is(err, pr.ErrNoToken):
		msg, suggestion := messenger.TokenMissingMessage("the pull request provider")
		return &CLIError{Err: fmt.Errorf("%w: %w", ErrNoToken, err), Message: msg, Suggestion: suggestion}
	}

	var apiErr *devhttp.APIError
	if errors.As(err, &apiErr) {
		if wrapped := WrapAuthError(err, apiErr.Service, opts...); wrapped != err {
			return wrapped
		}
	}
	return WrapConnectionError(err, "remote service", opts...)
}

// WrapAuthError wraps authentication-related errors from service with
// helpful guidance.
func WrapAuthError(err error, service string, opts ...Option) error {
	if err == nil {
		return nil
	}
	messenger := getMessenger(opts)

	if IsAuthError(err) {
		msg, suggestion := messenger.AuthErrorMessage(service)
		return &CLIError{
			Err:        fmt.Errorf("%w: %w", ErrNotAuthenticated, err),
			Message:    msg,
			Suggestion: suggestion,
		}
	}

	if IsPermissionError(err) {
		msg, suggestion := messenger.PermissionDeniedMessage(service)
		return &CLIError{
			Err:        fmt.Errorf("%w: %w", ErrPermissionDenied, err),
			Message:    msg,
			Suggestion: suggestion,
		}
	}

	return err
}

// WrapConnectionError wraps connection-related errors with helpful guidance.
func WrapConnectionError(err error, target string, opts ...Option) error {
	if err == nil {
		return nil
	}

	errStr := strings.ToLower(err.Error())
	messenger := getMessenger(opts)

	switch {
	case containsAny(errStr, refusedMarkers...):
		msg, suggestion := messenger.ConnectionErrorMessage(target)
		return &CLIError{
			Err:        fmt.Errorf("%w: %w", ErrConnectionFailed, err),
			Message:    msg,
			Suggestion: suggestion,
		}
	case containsAny(errStr, tlsMarkers...):
		msg, suggestion := messenger.TLSErrorMessage(target)
		return &CLIError{
			Err:        fmt.Errorf("%w: %w", ErrConnectionFailed, err),
			Message:    msg,
			Details:    err.Error(),
			Suggestion: suggestion,
		}
	case containsAny(errStr, timeoutMarkers...):
		msg, suggestion := messenger.TimeoutErrorMessage(target)
		return &CLIError{
			Err:        fmt.Errorf("%w: %w", ErrConnectionFailed, err),
			Message:    msg,
			Suggestion: suggestion,
		}
	}

	return err
}

// NewNotInGitRepoError creates an error for commands that require a git repository.
func NewNotInGitRepoError(opts ...Option) error {
	msg, suggestion := getMessenger(opts).NotInGitRepoMessage()
	return &CLIError{
		Err:        ErrNotInGitRepo,
		Message:    msg,
		Suggestion: suggestion,
	}
}

// NewInvalidInputError creates an error for malformed input. err may be nil.
func NewInvalidInputError(what string, err error, opts ...Option) error {
	msg, suggestion := getMessenger(opts).InvalidInputMessage(what)
	cliErr := &CLIError{
		Err:        ErrInvalidInput,
		Message:    msg,
		Suggestion: suggestion,
	}
	if err != nil {
		cliErr.Err = fmt.Errorf("%w: %w", ErrInvalidInput, err)
		cliErr.Details = err.Error()
	}
	return cliErr
}
