package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/mcp-snowflake/pkg/auth"
)

func newEchoHandler(t *testing.T, sawUser *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) != nil {
			*sawUser = true
		}
		w.WriteHeader(http.StatusOK)
	})
}

func newTestAuthenticator() auth.Authenticator {
	return auth.NewAPIKeyAuthenticator(auth.APIKeyConfig{
		Keys: []auth.APIKey{{Key: "valid-key", Name: "ci"}},
	})
}

func TestAuthMiddleware_BearerToken(t *testing.T) {
	var sawUser bool
	handler := AuthMiddleware(newTestAuthenticator(), true)(newEchoHandler(t, &sawUser))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer valid-key")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, sawUser, "handler should see authenticated user in context")
}

func TestAuthMiddleware_APIKeyHeader(t *testing.T) {
	var sawUser bool
	handler := AuthMiddleware(newTestAuthenticator(), true)(newEchoHandler(t, &sawUser))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-API-Key", "valid-key")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, sawUser)
}

func TestAuthMiddleware_MissingTokenRequired(t *testing.T) {
	var sawUser bool
	handler := AuthMiddleware(newTestAuthenticator(), true)(newEchoHandler(t, &sawUser))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestAuthMiddleware_InvalidTokenRequired(t *testing.T) {
	var sawUser bool
	handler := AuthMiddleware(newTestAuthenticator(), true)(newEchoHandler(t, &sawUser))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-API-Key", "wrong-key")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, sawUser)
}

func TestAuthMiddleware_AnonymousAllowedWhenNotRequired(t *testing.T) {
	var sawUser bool
	handler := AuthMiddleware(newTestAuthenticator(), false)(newEchoHandler(t, &sawUser))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, sawUser)
}

func TestAuthMiddleware_NilAuthenticatorPassesTokenThrough(t *testing.T) {
	var gotToken string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = auth.GetToken(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := AuthMiddleware(nil, false)(inner)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "some-token", gotToken)
}
