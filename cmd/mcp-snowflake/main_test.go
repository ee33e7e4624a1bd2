package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/txn2/mcp-snowflake/pkg/platform"
)

func TestCorsMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := corsMiddleware(inner)

	t.Run("sets CORS headers", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Origin", "https://example.com")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
			t.Errorf("Allow-Origin = %q, want %q", got, "https://example.com")
		}

		methods := w.Header().Get("Access-Control-Allow-Methods")
		for _, m := range []string{"GET", "POST", "DELETE", "OPTIONS"} {
			if !strings.Contains(methods, m) {
				t.Errorf("Allow-Methods missing %q: %s", m, methods)
			}
		}

		allowHeaders := w.Header().Get("Access-Control-Allow-Headers")
		for _, h := range []string{"Mcp-Session-Id", "Mcp-Protocol-Version", "X-API-Key", "Last-Event-ID"} {
			if !strings.Contains(allowHeaders, h) {
				t.Errorf("Allow-Headers missing %q: %s", h, allowHeaders)
			}
		}

		exposeHeaders := w.Header().Get("Access-Control-Expose-Headers")
		if !strings.Contains(exposeHeaders, "Mcp-Session-Id") {
			t.Errorf("Expose-Headers missing Mcp-Session-Id: %s", exposeHeaders)
		}
	})

	t.Run("handles preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://example.com")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
		}
	})

	t.Run("no origin header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty", got)
		}
	})
}

func TestApplyConfigOverrides(t *testing.T) {
	cfg := &platform.Config{
		Server: platform.ServerConfig{
			Transport: platform.TransportHTTP,
			Address:   ":9090",
		},
	}
	opts := serverOptions{transport: "stdio", address: ":8080"}

	applyConfigOverrides(cfg, &opts)

	if opts.transport != platform.TransportHTTP {
		t.Errorf("transport = %q, want %q", opts.transport, platform.TransportHTTP)
	}
	if opts.address != ":9090" {
		t.Errorf("address = %q, want %q", opts.address, ":9090")
	}
}

func TestApplyConfigOverrides_EmptyConfig(t *testing.T) {
	cfg := &platform.Config{}
	opts := serverOptions{transport: "stdio", address: ":8080"}

	applyConfigOverrides(cfg, &opts)

	if opts.transport != "stdio" {
		t.Errorf("transport = %q, want stdio", opts.transport)
	}
	if opts.address != ":8080" {
		t.Errorf("address = %q, want :8080", opts.address)
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("SNOWFLAKE_ACCOUNT", "xy12345")
	t.Setenv("SNOWFLAKE_USER", "svc_mcp")

	cfg, err := loadConfig(serverOptions{})
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Snowflake.Account != "xy12345" {
		t.Errorf("account = %q, want xy12345", cfg.Snowflake.Account)
	}
	if cfg.Server.Transport != platform.TransportStdio {
		t.Errorf("transport = %q, want stdio", cfg.Server.Transport)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := loadConfig(serverOptions{configPath: "/nonexistent/config.yaml"})
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestRunConnectionTest_InvalidConfig(t *testing.T) {
	cfg := &platform.Config{}

	err := runConnectionTest(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected connection test to fail with empty credentials")
	}
	if !strings.Contains(err.Error(), "connection test failed") {
		t.Errorf("err = %v, want connection test failure", err)
	}
}
