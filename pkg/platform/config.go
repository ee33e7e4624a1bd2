// Package platform provides configuration for the MCP Snowflake server.
package platform

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/txn2/mcp-snowflake/pkg/toolkits/snowflake"
)

// Transport names accepted by server.transport.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds the complete server configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Snowflake snowflake.Config `yaml:"snowflake"`
	Auth      AuthConfig       `yaml:"auth"`
	Log       LogConfig        `yaml:"log"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	Transport string `yaml:"transport"` // "stdio", "http"
	Address   string `yaml:"address"`
}

// AuthConfig configures authentication for the HTTP transport.
type AuthConfig struct {
	Required bool        `yaml:"required"`
	APIKeys  []APIKeyDef `yaml:"api_keys"`
	JWT      JWTConfig   `yaml:"jwt"`
}

// APIKeyDef defines an API key. Either key or key_hash (bcrypt) is set.
type APIKeyDef struct {
	Key     string `yaml:"key"`
	KeyHash string `yaml:"key_hash"`
	Name    string `yaml:"name"`
}

// JWTConfig configures JWT bearer authentication.
type JWTConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Issuer     string `yaml:"issuer"`
	SigningKey string `yaml:"signing_key"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// SlogLevel maps the configured level name to a slog level, defaulting
// to Info for unknown values.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadConfig loads configuration from a file.
// The path is expected to come from command line arguments, controlled
// by the administrator.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by admin
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// FromEnv assembles a configuration from SNOWFLAKE_* environment
// variables, mirroring the connection smoke-test script of the original
// deployment. Used when no config file is given.
func FromEnv() *Config {
	cfg := &Config{
		Snowflake: snowflake.Config{
			Account:              os.Getenv("SNOWFLAKE_ACCOUNT"),
			User:                 os.Getenv("SNOWFLAKE_USER"),
			Warehouse:            os.Getenv("SNOWFLAKE_WAREHOUSE"),
			Database:             os.Getenv("SNOWFLAKE_DATABASE"),
			Schema:               os.Getenv("SNOWFLAKE_SCHEMA"),
			Role:                 os.Getenv("SNOWFLAKE_ROLE"),
			PrivateKeyPath:       os.Getenv("SNOWFLAKE_PRIVATE_KEY_PATH"),
			PrivateKeyPassphrase: os.Getenv("SNOWFLAKE_PRIVATE_KEY_PASSPHRASE"),
		},
	}
	applyDefaults(cfg)
	return cfg
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "mcp-snowflake"
	}
	if cfg.Server.Version == "" {
		cfg.Server.Version = "1.0.0"
	}
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = TransportStdio
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Transport != TransportStdio && c.Server.Transport != TransportHTTP {
		errs = append(errs, fmt.Sprintf("server.transport must be %q or %q", TransportStdio, TransportHTTP))
	}

	if c.Auth.JWT.Enabled {
		if c.Auth.JWT.Issuer == "" {
			errs = append(errs, "auth.jwt.issuer is required when JWT auth is enabled")
		}
		if c.Auth.JWT.SigningKey == "" {
			errs = append(errs, "auth.jwt.signing_key is required when JWT auth is enabled")
		}
	}

	for i, key := range c.Auth.APIKeys {
		if key.Key == "" && key.KeyHash == "" {
			errs = append(errs, fmt.Sprintf("auth.api_keys[%d] needs key or key_hash", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
