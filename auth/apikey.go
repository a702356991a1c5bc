package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// API key format.
const (
	DefaultAPIKeyPrefix       = "enrich_"
	DefaultAPIKeyLength       = 32
	DefaultAPIKeyPrefixLength = 12

	// HashedKeyPrefix marks a configured key given as its SHA-256 hash.
	HashedKeyPrefix = "sha256:"

	base62 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// APIKey is a freshly generated key. Secret is only available at creation.
type APIKey struct {
	Secret string
	// Display is a redacted form safe to log.
	Display string
	// Hash is the value to store in server.api_keys instead of Secret.
	Hash string
}

// GenerateAPIKey creates a new random API key.
func GenerateAPIKey() (*APIKey, error) {
	random, err := nanoid.Generate(base62, DefaultAPIKeyLength)
	if err != nil {
		return nil, fmt.Errorf("generate api key: %w", err)
	}
	secret := DefaultAPIKeyPrefix + random
	return &APIKey{
		Secret:  secret,
		Display: RedactAPIKey(secret),
		Hash:    HashedKeyPrefix + HashToken(secret),
	}, nil
}

// ValidateAPIKeyFormat checks if a string looks like a generated API key.
func ValidateAPIKeyFormat(key string) bool {
	rest, ok := strings.CutPrefix(key, DefaultAPIKeyPrefix)
	if !ok || len(rest) != DefaultAPIKeyLength {
		return false
	}
	return strings.Trim(rest, base62) == ""
}

// RedactAPIKey shortens a key for display.
func RedactAPIKey(key string) string {
	if len(key) <= DefaultAPIKeyPrefixLength {
		return key
	}
	return key[:DefaultAPIKeyPrefixLength] + "..."
}

// KeySet verifies presented API keys against configured ones. Only hashes
// are kept in memory.
type KeySet struct {
	hashes [][]byte
}

// NewKeySet builds a KeySet. Each key is either a plain key or
// HashedKeyPrefix followed by the hex SHA-256 of the key.
func NewKeySet(keys ...string) *KeySet {
	ks := &KeySet{}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if h, ok := strings.CutPrefix(k, HashedKeyPrefix); ok {
			ks.hashes = append(ks.hashes, []byte(strings.ToLower(h)))
			continue
		}
		ks.hashes = append(ks.hashes, []byte(HashToken(k)))
	}
	return ks
}

// Len returns the number of configured keys.
func (ks *KeySet) Len() int {
	return len(ks.hashes)
}

// Verify reports whether key matches a configured key. Every configured
// hash is compared in constant time.
func (ks *KeySet) Verify(key string) error {
	if key == "" {
		return ErrInvalidAPIKey
	}
	presented := []byte(HashToken(key))
	match := 0
	for _, h := range ks.hashes {
		match |= subtle.ConstantTimeCompare(presented, h)
	}
	if match != 1 {
		return ErrInvalidAPIKey
	}
	return nil
}
