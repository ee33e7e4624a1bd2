// Package http provides HTTP middleware for the MCP Snowflake server.
package http

import (
	"net/http"
	"strings"

	"github.com/txn2/mcp-snowflake/pkg/auth"
)

// AuthMiddleware extracts credentials from HTTP headers, validates them
// with the authenticator, and stores the caller info in the request
// context. With a nil authenticator it only extracts the token; when
// requireAuth is set, requests without valid credentials get 401.
func AuthMiddleware(authenticator auth.Authenticator, requireAuth bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := extractToken(r)
			if token != "" {
				ctx = auth.WithToken(ctx, token)
			}

			if authenticator != nil && token != "" {
				info, err := authenticator.Authenticate(ctx)
				if err != nil {
					if requireAuth {
						http.Error(w, "Unauthorized: invalid credentials", http.StatusUnauthorized)
						return
					}
				} else {
					ctx = auth.WithUser(ctx, info)
				}
			}

			if requireAuth && token == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "Unauthorized: missing authentication token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken pulls a Bearer token or X-API-Key header value.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}
