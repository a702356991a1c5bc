package errors

import "errors"

// Common CLI errors with actionable guidance.
var (
	// ErrNotInGitRepo indicates the command requires a git repository.
	ErrNotInGitRepo = errors.New("not in a git repository")

	// ErrInvalidConfig indicates a configuration value or enhancer set is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoToken indicates a pull request provider needs a token.
	ErrNoToken = errors.New("no API token")

	// ErrNotAuthenticated indicates a remote API rejected the credentials.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrPermissionDenied indicates insufficient permissions.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrConnectionFailed indicates a remote service is unreachable.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrInvalidInput indicates malformed command input.
	ErrInvalidInput = errors.New("invalid input")
)
