package pr

import "errors"

// PR provider errors
var (
	// ErrNoProvider indicates no PR provider is configured.
	ErrNoProvider = errors.New("no PR provider configured")

	// ErrUnknownProvider indicates the git remote uses an unknown provider.
	ErrUnknownProvider = errors.New("unknown git provider")

	// ErrNotFound indicates the PR does not exist.
	ErrNotFound = errors.New("pull request not found")

	// ErrNoToken indicates an API provider was requested without a token.
	ErrNoToken = errors.New("access token not set")
)
