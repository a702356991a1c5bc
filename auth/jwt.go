package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	nanoid "github.com/matoous/go-nanoid/v2"
)

// Token defaults.
const (
	DefaultIssuer   = "enrich"
	DefaultAudience = "enrich-api"
	DefaultTokenTTL = time.Hour
	// MinSecretLength is the shortest accepted HMAC secret, in bytes.
	MinSecretLength = 32
)

// JWTConfig holds configuration for JWT generation and validation.
type JWTConfig struct {
	// Secret is the HMAC signing key (at least MinSecretLength bytes).
	Secret []byte

	// Issuer defaults to DefaultIssuer.
	Issuer string

	// Audience defaults to DefaultAudience.
	Audience string

	// TTL is the default token lifetime. Defaults to DefaultTokenTTL.
	TTL time.Duration
}

// Claims are the claims carried by enrich access tokens.
type Claims struct {
	jwt.RegisteredClaims
	// Scopes lists the endpoints the token may call, e.g. "enrich".
	Scopes []string `json:"scopes,omitempty"`
}

// HasScope reports whether the claims grant scope. A token without
// scopes grants everything.
func (c *Claims) HasScope(scope string) bool {
	if len(c.Scopes) == 0 {
		return true
	}
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// TokenService issues and validates HS256 access tokens.
type TokenService struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenService validates cfg and creates a TokenService.
func NewTokenService(cfg JWTConfig) (*TokenService, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	s := &TokenService{
		secret:   cfg.Secret,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		now:      time.Now,
	}
	if s.issuer == "" {
		s.issuer = DefaultIssuer
	}
	if s.audience == "" {
		s.audience = DefaultAudience
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTokenTTL
	}
	return s, nil
}

// Issue signs a token for subject. A zero ttl uses the configured default.
func (s *TokenService) Issue(subject string, ttl time.Duration, scopes ...string) (string, *Claims, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	tokenID, err := nanoid.New()
	if err != nil {
		return "", nil, fmt.Errorf("generate token ID: %w", err)
	}

	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        tokenID,
		},
		Scopes: scopes,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Validate parses tokenString and checks signature, expiry, issuer and
// audience. Expired tokens return ErrTokenExpired; anything else wrong
// returns ErrInvalidToken.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.secret, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
