// Package auth protects the enrich HTTP service.
//
// Callers authenticate with either a bearer JWT issued by TokenService or
// an API key checked by a KeySet.
//
//	tokens, err := auth.NewTokenService(auth.JWTConfig{Secret: secret})
//	signed, claims, err := tokens.Issue("ci-bot", 24*time.Hour, "enrich")
//	claims, err = tokens.Validate(signed)
//
// API keys are generated once and configured on the server either in
// plain form or as "sha256:<hex>" hashes:
//
//	key, _ := auth.GenerateAPIKey()
//	keys := auth.NewKeySet(key.Hash)
//	err := keys.Verify(key.Secret) // nil
package auth
