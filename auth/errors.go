package auth

import "errors"

// Authentication errors.
var (
	// ErrInvalidToken indicates the token is malformed, has an invalid
	// signature, or was issued for another issuer or audience.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates the token has expired.
	ErrTokenExpired = errors.New("token expired")

	// ErrSecretTooShort indicates the JWT secret is too short.
	ErrSecretTooShort = errors.New("JWT secret must be at least 32 bytes")

	// ErrInvalidAPIKey indicates the API key is unknown.
	ErrInvalidAPIKey = errors.New("invalid API key")
)
