// Package main provides the entry point for the mcp-snowflake server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mcpserver "github.com/txn2/mcp-snowflake/internal/server"
	"github.com/txn2/mcp-snowflake/pkg/platform"
	"github.com/txn2/mcp-snowflake/pkg/toolkits/snowflake"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type serverOptions struct {
	configPath     string
	transport      string
	address        string
	showVersion    bool
	testConnection bool
}

func parseFlags() serverOptions {
	opts := serverOptions{}
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.transport, "transport", "stdio", "Transport type: stdio, http")
	flag.StringVar(&opts.address, "address", ":8080", "Server address for HTTP transport")
	flag.BoolVar(&opts.showVersion, "version", false, "Show version and exit")
	flag.BoolVar(&opts.testConnection, "test-connection", false, "Test the Snowflake connection and exit")
	flag.Parse()
	return opts
}

func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx
}

// loadConfig reads the config file when one is given and falls back to
// SNOWFLAKE_* environment variables otherwise.
func loadConfig(opts serverOptions) (*platform.Config, error) {
	if opts.configPath != "" {
		return platform.LoadConfig(opts.configPath)
	}
	return platform.FromEnv(), nil
}

// applyConfigOverrides lets the config file win over flag defaults for
// transport and address.
func applyConfigOverrides(cfg *platform.Config, opts *serverOptions) {
	if cfg.Server.Transport != "" {
		opts.transport = cfg.Server.Transport
	}
	if cfg.Server.Address != "" {
		opts.address = cfg.Server.Address
	}
}

func run() error {
	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("mcp-snowflake version %s\n", mcpserver.Version)
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	if opts.configPath != "" {
		applyConfigOverrides(cfg, &opts)
	} else {
		cfg.Server.Transport = opts.transport
		cfg.Server.Address = opts.address
	}

	ctx := setupSignalHandler()

	if opts.testConnection {
		return runConnectionTest(ctx, cfg)
	}

	srv, err := mcpserver.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer func() { _ = srv.Close() }()

	srv.StartBackgroundInit(ctx)

	switch opts.transport {
	case platform.TransportStdio:
		return srv.ServeStdio(ctx)
	case platform.TransportHTTP:
		logger.Info("listening", "address", opts.address)
		return srv.ServeHTTP(ctx, corsMiddleware)
	default:
		return fmt.Errorf("unknown transport: %s (must be stdio or http)", opts.transport)
	}
}

// runConnectionTest probes the Snowflake session and prints the result,
// exiting non-zero on failure.
func runConnectionTest(ctx context.Context, cfg *platform.Config) error {
	tk, err := snowflake.New("snowflake", cfg.Snowflake)
	if err != nil {
		return fmt.Errorf("creating snowflake toolkit: %w", err)
	}
	defer func() { _ = tk.Close() }()

	ok, message := tk.Client().TestConnection(ctx)
	fmt.Println(message)
	if !ok {
		return errors.New("connection test failed")
	}
	return nil
}

// corsMiddleware adds CORS headers for browser-based MCP clients. The
// streamable transport needs the Mcp-Session-Id header exposed so
// clients can resume sessions.
func corsMiddleware(next http.Handler) http.Handler {
	allowHeaders := strings.Join([]string{
		"Authorization",
		"Content-Type",
		"Mcp-Session-Id",
		"Mcp-Protocol-Version",
		"X-API-Key",
		"Last-Event-ID",
	}, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
		w.Header().Set("Access-Control-Expose-Headers", "Mcp-Session-Id")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
