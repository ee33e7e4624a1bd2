// Package server assembles the MCP Snowflake server from its
// configuration: the database client, the Snowflake toolkit, the MCP
// server, and the HTTP surface for the streamable transport.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-snowflake/pkg/auth"
	"github.com/txn2/mcp-snowflake/pkg/health"
	httpauth "github.com/txn2/mcp-snowflake/pkg/http"
	"github.com/txn2/mcp-snowflake/pkg/platform"
	"github.com/txn2/mcp-snowflake/pkg/toolkits/snowflake"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const shutdownTimeout = 10 * time.Second

// Server bundles the MCP server with the toolkit and health checker it
// was built from.
type Server struct {
	mcpServer *mcp.Server
	toolkit   *snowflake.Toolkit
	checker   *health.Checker
	config    *platform.Config
	logger    *slog.Logger
}

// New builds a Server from the given configuration.
func New(cfg *platform.Config, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	toolkit, err := snowflake.New("snowflake", cfg.Snowflake, snowflake.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("creating snowflake toolkit: %w", err)
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
	}, nil)
	toolkit.RegisterTools(mcpServer)

	checker := health.NewChecker(func() health.SessionStatus {
		s := toolkit.Client().Status()
		return health.SessionStatus{
			Connected:      s.Connected,
			AuthAgeSeconds: s.AuthAge.Seconds(),
			InitPending:    s.InitPending,
		}
	})

	return &Server{
		mcpServer: mcpServer,
		toolkit:   toolkit,
		checker:   checker,
		config:    cfg,
		logger:    logger,
	}, nil
}

// NewFromFile builds a Server from a configuration file.
func NewFromFile(path string, logger *slog.Logger) (*Server, error) {
	cfg, err := platform.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return New(cfg, logger)
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcp.Server {
	return s.mcpServer
}

// Toolkit returns the Snowflake toolkit.
func (s *Server) Toolkit() *snowflake.Toolkit {
	return s.toolkit
}

// Checker returns the health checker.
func (s *Server) Checker() *health.Checker {
	return s.checker
}

// StartBackgroundInit kicks off session initialization without blocking.
// The health checker flips to Ready once the attempt completes; a failed
// attempt still reports Ready since the session manager retries on the
// first query.
func (s *Server) StartBackgroundInit(ctx context.Context) {
	task := s.toolkit.Client().StartBackgroundInit(ctx)
	go func() {
		if err := task.Wait(context.Background()); err != nil {
			s.logger.Warn("background session init failed", "error", err)
		}
		s.checker.SetReady()
	}()
}

// ServeStdio serves MCP over stdin/stdout until ctx is canceled.
func (s *Server) ServeStdio(ctx context.Context) error {
	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}

// HTTPHandler returns the HTTP surface: the streamable MCP endpoint at /
// behind the auth middleware, plus health endpoints which bypass auth.
func (s *Server) HTTPHandler() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.checker.LivenessHandler())
	mux.HandleFunc("/readyz", s.checker.ReadinessHandler())
	mux.HandleFunc("/statusz", s.checker.SessionHandler())
	mux.Handle("/", httpauth.AuthMiddleware(s.authenticator(), s.config.Auth.Required)(streamable))
	return mux
}

// ServeHTTP serves the streamable HTTP transport until ctx is canceled,
// then drains with a bounded shutdown. Middleware wraps the whole
// surface, health endpoints included.
func (s *Server) ServeHTTP(ctx context.Context, middleware ...func(http.Handler) http.Handler) error {
	handler := s.HTTPHandler()
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}

	httpServer := &http.Server{
		Addr:              s.config.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http transport: %w", err)
	case <-ctx.Done():
	}

	s.checker.SetDraining()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// authenticator builds the credential chain from the auth configuration.
// Returns nil when no mechanisms are configured.
func (s *Server) authenticator() auth.Authenticator {
	var chain auth.Chain

	if len(s.config.Auth.APIKeys) > 0 {
		keys := make([]auth.APIKey, 0, len(s.config.Auth.APIKeys))
		for _, k := range s.config.Auth.APIKeys {
			keys = append(keys, auth.APIKey{Key: k.Key, KeyHash: k.KeyHash, Name: k.Name})
		}
		chain = append(chain, auth.NewAPIKeyAuthenticator(auth.APIKeyConfig{Keys: keys}))
	}

	if s.config.Auth.JWT.Enabled {
		jwtAuth, err := auth.NewJWTAuthenticator(auth.JWTConfig{
			Issuer:     s.config.Auth.JWT.Issuer,
			SigningKey: []byte(s.config.Auth.JWT.SigningKey),
		})
		if err != nil {
			s.logger.Warn("jwt authenticator disabled", "error", err)
		} else {
			chain = append(chain, jwtAuth)
		}
	}

	if len(chain) == 0 {
		return nil
	}
	return chain
}

// Close releases the toolkit's database resources.
func (s *Server) Close() error {
	return s.toolkit.Close()
}
