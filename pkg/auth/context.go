package auth

import "context"

// contextKey is a private type for context keys.
type contextKey int

const (
	tokenContextKey contextKey = iota
	userContextKey
)

// WithToken adds a bearer token or API key to the context.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}

// GetToken retrieves the token from the context.
func GetToken(ctx context.Context) string {
	if token, ok := ctx.Value(tokenContextKey).(string); ok {
		return token
	}
	return ""
}

// WithUser adds authenticated user info to the context.
func WithUser(ctx context.Context, info *UserInfo) context.Context {
	return context.WithValue(ctx, userContextKey, info)
}

// GetUser retrieves authenticated user info from the context.
func GetUser(ctx context.Context) *UserInfo {
	if info, ok := ctx.Value(userContextKey).(*UserInfo); ok {
		return info
	}
	return nil
}
