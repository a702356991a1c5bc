package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey() error = %v", err)
	}

	if !strings.HasPrefix(key.Secret, DefaultAPIKeyPrefix) {
		t.Errorf("Secret = %q, want prefix %q", key.Secret, DefaultAPIKeyPrefix)
	}
	if len(key.Secret) != len(DefaultAPIKeyPrefix)+DefaultAPIKeyLength {
		t.Errorf("len(Secret) = %d", len(key.Secret))
	}
	if !ValidateAPIKeyFormat(key.Secret) {
		t.Error("generated key fails ValidateAPIKeyFormat")
	}
	if key.Display != key.Secret[:DefaultAPIKeyPrefixLength]+"..." {
		t.Errorf("Display = %q", key.Display)
	}
	if key.Hash != HashedKeyPrefix+HashToken(key.Secret) {
		t.Errorf("Hash = %q", key.Hash)
	}

	again, _ := GenerateAPIKey()
	if again.Secret == key.Secret {
		t.Error("two generated keys are equal")
	}
}

func TestValidateAPIKeyFormat(t *testing.T) {
	valid := DefaultAPIKeyPrefix + strings.Repeat("a", DefaultAPIKeyLength)
	tests := []struct {
		key  string
		want bool
	}{
		{valid, true},
		{"key_" + strings.Repeat("a", DefaultAPIKeyLength), false},
		{DefaultAPIKeyPrefix + "short", false},
		{DefaultAPIKeyPrefix + strings.Repeat("-", DefaultAPIKeyLength), false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidateAPIKeyFormat(tt.key); got != tt.want {
			t.Errorf("ValidateAPIKeyFormat(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestRedactAPIKey(t *testing.T) {
	if got := RedactAPIKey("short"); got != "short" {
		t.Errorf("RedactAPIKey(short) = %q", got)
	}
	if got := RedactAPIKey("enrich_abcdefghij"); got != "enrich_abcde..." {
		t.Errorf("RedactAPIKey() = %q", got)
	}
}

func TestKeySet(t *testing.T) {
	hashed, err := GenerateAPIKey()
	if err != nil {
		t.Fatal(err)
	}
	ks := NewKeySet("plain-key", "  ", hashed.Hash)

	if ks.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ks.Len())
	}

	tests := []struct {
		name string
		key  string
		ok   bool
	}{
		{"plain", "plain-key", true},
		{"hashed", hashed.Secret, true},
		{"unknown", "other-key", false},
		{"hash itself", hashed.Hash, false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ks.Verify(tt.key)
			if tt.ok && err != nil {
				t.Errorf("Verify() error = %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidAPIKey) {
				t.Errorf("Verify() error = %v, want ErrInvalidAPIKey", err)
			}
		})
	}
}

func TestKeySet_Empty(t *testing.T) {
	if err := NewKeySet().Verify("anything"); !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("Verify() error = %v, want ErrInvalidAPIKey", err)
	}
}
