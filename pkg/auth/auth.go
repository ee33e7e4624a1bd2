// Package auth provides authentication for the HTTP transport.
package auth

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoCredentials is returned when no token is present in the context.
var ErrNoCredentials = errors.New("no credentials found in context")

// UserInfo holds authenticated caller information.
type UserInfo struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name,omitempty"`
	AuthType string `json:"auth_type"` // "apikey", "jwt"
}

// Authenticator validates authentication credentials.
type Authenticator interface {
	// Authenticate validates the credentials carried by the context and
	// returns caller info.
	Authenticate(ctx context.Context) (*UserInfo, error)
}

// Chain tries each authenticator in order and returns the first success.
type Chain []Authenticator

// Authenticate implements Authenticator.
func (c Chain) Authenticate(ctx context.Context) (*UserInfo, error) {
	var lastErr error
	for _, a := range c {
		info, err := a.Authenticate(ctx)
		if err == nil {
			return info, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrNoCredentials
	}
	return nil, fmt.Errorf("authentication failed: %w", lastErr)
}

// Verify interface compliance.
var _ Authenticator = (Chain)(nil)
