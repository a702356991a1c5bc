package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("this-is-a-test-secret-key-32-bytes!")

func newTestService(t *testing.T, cfg JWTConfig) *TokenService {
	t.Helper()
	if cfg.Secret == nil {
		cfg.Secret = testSecret
	}
	s, err := NewTokenService(cfg)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return s
}

func TestNewTokenService_SecretTooShort(t *testing.T) {
	_, err := NewTokenService(JWTConfig{Secret: []byte("short")})
	if !errors.Is(err, ErrSecretTooShort) {
		t.Errorf("error = %v, want ErrSecretTooShort", err)
	}
}

func TestTokenService_IssueValidate(t *testing.T) {
	s := newTestService(t, JWTConfig{})

	token, issued, err := s.Issue("ci-bot", 0, "enrich")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if issued.ID == "" {
		t.Error("token has no ID")
	}
	if got := issued.ExpiresAt.Sub(issued.IssuedAt.Time); got != DefaultTokenTTL {
		t.Errorf("lifetime = %v, want %v", got, DefaultTokenTTL)
	}

	claims, err := s.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.Subject != "ci-bot" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "ci-bot")
	}
	if claims.Issuer != DefaultIssuer {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, DefaultIssuer)
	}
	if claims.ID != issued.ID {
		t.Errorf("ID = %q, want %q", claims.ID, issued.ID)
	}
	if !claims.HasScope("enrich") || claims.HasScope("admin") {
		t.Errorf("Scopes = %v", claims.Scopes)
	}
}

func TestTokenService_UniqueIDs(t *testing.T) {
	s := newTestService(t, JWTConfig{})
	_, a, _ := s.Issue("x", 0)
	_, b, _ := s.Issue("x", 0)
	if a.ID == b.ID {
		t.Errorf("two tokens share ID %q", a.ID)
	}
}

func TestTokenService_Expired(t *testing.T) {
	s := newTestService(t, JWTConfig{})
	start := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return start }

	token, _, err := s.Issue("ci-bot", time.Minute)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	s.now = func() time.Time { return start.Add(2 * time.Minute) }
	if _, err := s.Validate(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Validate() error = %v, want ErrTokenExpired", err)
	}
}

func TestTokenService_Rejects(t *testing.T) {
	s := newTestService(t, JWTConfig{})
	other := newTestService(t, JWTConfig{Secret: []byte("another-secret-that-is-32-bytes-long")})
	foreign := newTestService(t, JWTConfig{Issuer: "someone-else"})
	wrongAudience := newTestService(t, JWTConfig{Audience: "other-api"})

	forged, _, _ := other.Issue("x", 0)
	otherIssuer, _, _ := foreign.Issue("x", 0)
	otherAudience, _, _ := wrongAudience.Issue("x", 0)

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: DefaultIssuer, Audience: jwt.ClaimStrings{DefaultAudience}},
	}).SignedString(testSecret)

	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: DefaultIssuer},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := map[string]string{
		"garbage":        "not-a-token",
		"wrong secret":   forged,
		"wrong issuer":   otherIssuer,
		"wrong audience": otherAudience,
		"no expiry":      noExpiry,
		"alg none":       noneAlg,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Validate(token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestClaims_NoScopesGrantsAll(t *testing.T) {
	c := &Claims{}
	if !c.HasScope("enrich") {
		t.Error("HasScope() = false for unscoped token")
	}
}
