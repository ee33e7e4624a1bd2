package auth

import (
	"context"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// APIKey defines a single API key. Either Key (plaintext, compared in
// constant time) or KeyHash (bcrypt) must be set.
type APIKey struct {
	Key     string
	KeyHash string
	Name    string
}

// APIKeyConfig holds API key configuration.
type APIKeyConfig struct {
	Keys []APIKey
}

// APIKeyAuthenticator authenticates using API keys.
type APIKeyAuthenticator struct {
	keys []APIKey
}

// NewAPIKeyAuthenticator creates a new API key authenticator.
func NewAPIKeyAuthenticator(cfg APIKeyConfig) *APIKeyAuthenticator {
	keys := make([]APIKey, len(cfg.Keys))
	copy(keys, cfg.Keys)
	return &APIKeyAuthenticator{keys: keys}
}

// Authenticate validates the API key carried by the context.
func (a *APIKeyAuthenticator) Authenticate(ctx context.Context) (*UserInfo, error) {
	token := GetToken(ctx)
	if token == "" {
		return nil, ErrNoCredentials
	}

	for i := range a.keys {
		key := &a.keys[i]
		if matchesKey(key, token) {
			return &UserInfo{
				UserID:   "apikey:" + key.Name,
				Name:     key.Name,
				AuthType: "apikey",
			}, nil
		}
	}

	return nil, fmt.Errorf("invalid API key")
}

// matchesKey compares the presented token against a key entry. Plaintext
// keys use constant-time comparison; hashed keys use bcrypt.
func matchesKey(key *APIKey, token string) bool {
	if key.KeyHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(token)) == nil
	}
	if key.Key != "" {
		return subtle.ConstantTimeCompare([]byte(key.Key), []byte(token)) == 1
	}
	return false
}

// Verify interface compliance.
var _ Authenticator = (*APIKeyAuthenticator)(nil)
