package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/mcp-snowflake/pkg/platform"
	"github.com/txn2/mcp-snowflake/pkg/toolkits/snowflake"
)

func testConfig() *platform.Config {
	return &platform.Config{
		Server: platform.ServerConfig{
			Name:      "mcp-snowflake",
			Version:   "1.0.0",
			Transport: platform.TransportStdio,
			Address:   ":8080",
		},
		Snowflake: snowflake.Config{
			Account:        "xy12345",
			User:           "svc_mcp",
			PrivateKeyPath: "/etc/keys/rsa_key.p8",
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew(t *testing.T) {
	srv, err := New(testConfig(), testLogger())
	require.NoError(t, err)
	defer func() { _ = srv.Close() }()

	assert.NotNil(t, srv.MCP())
	assert.NotNil(t, srv.Toolkit())
	assert.NotNil(t, srv.Checker())
	assert.Equal(t, "starting", srv.Checker().State())
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Transport = "carrier-pigeon"

	_, err := New(cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.transport")
}

func TestNew_NilLoggerDefaults(t *testing.T) {
	srv, err := New(testConfig(), nil)
	require.NoError(t, err)
	defer func() { _ = srv.Close() }()

	assert.NotNil(t, srv.logger)
}

func TestNewFromFile(t *testing.T) {
	configYAML := `
server:
  name: test-server
  transport: stdio
snowflake:
  account: xy12345
  user: svc_mcp
  private_key_path: /etc/keys/rsa_key.p8
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	srv, err := NewFromFile(path, testLogger())
	require.NoError(t, err)
	defer func() { _ = srv.Close() }()

	assert.Equal(t, "test-server", srv.config.Server.Name)
}

func TestNewFromFile_MissingFile(t *testing.T) {
	_, err := NewFromFile("/nonexistent/config.yaml", testLogger())
	require.Error(t, err)
}

func TestAuthenticator_NoneConfigured(t *testing.T) {
	srv, err := New(testConfig(), testLogger())
	require.NoError(t, err)
	defer func() { _ = srv.Close() }()

	assert.Nil(t, srv.authenticator())
}

func TestAuthenticator_APIKeys(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.APIKeys = []platform.APIKeyDef{{Key: "secret", Name: "ci"}}

	srv, err := New(cfg, testLogger())
	require.NoError(t, err)
	defer func() { _ = srv.Close() }()

	assert.NotNil(t, srv.authenticator())
}

func TestAuthenticator_JWT(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWT = platform.JWTConfig{
		Enabled:    true,
		Issuer:     "https://auth.example.com",
		SigningKey: "0123456789abcdef0123456789abcdef",
	}

	srv, err := New(cfg, testLogger())
	require.NoError(t, err)
	defer func() { _ = srv.Close() }()

	assert.NotNil(t, srv.authenticator())
}

func TestHTTPHandler_HealthEndpoints(t *testing.T) {
	srv, err := New(testConfig(), testLogger())
	require.NoError(t, err)
	defer func() { _ = srv.Close() }()

	ts := httptest.NewServer(srv.HTTPHandler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Not ready until background init completes.
	resp, err = http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	srv.Checker().SetReady()

	resp, err = http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPHandler_StatusEndpoint(t *testing.T) {
	srv, err := New(testConfig(), testLogger())
	require.NoError(t, err)
	defer func() { _ = srv.Close() }()

	ts := httptest.NewServer(srv.HTTPHandler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/statusz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"connected":false`)
}

func TestHTTPHandler_AuthRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Required = true
	cfg.Auth.APIKeys = []platform.APIKeyDef{{Key: "secret", Name: "ci"}}

	srv, err := New(cfg, testLogger())
	require.NoError(t, err)
	defer func() { _ = srv.Close() }()

	ts := httptest.NewServer(srv.HTTPHandler())
	defer ts.Close()

	// MCP endpoint rejects unauthenticated requests.
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Health endpoints bypass auth.
	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
