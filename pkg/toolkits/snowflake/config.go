package snowflake

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/txn2/mcp-snowflake/pkg/db"
)

// Config holds Snowflake toolkit configuration.
type Config struct {
	Account              string        `yaml:"account"`
	User                 string        `yaml:"user"`
	Warehouse            string        `yaml:"warehouse"`
	Database             string        `yaml:"database"`
	Schema               string        `yaml:"schema"`
	Role                 string        `yaml:"role"`
	PrivateKeyPath       string        `yaml:"private_key_path"`
	PrivateKeyPassphrase string        `yaml:"private_key_passphrase"`
	AuthWindow           time.Duration `yaml:"auth_window"`
	ReadOnly             bool          `yaml:"read_only"`
	ConnectionName       string        `yaml:"connection_name"`
}

// yamlConfig mirrors Config with a string auth window, since YAML has no
// native duration scalar.
type yamlConfig struct {
	Account              string `yaml:"account"`
	User                 string `yaml:"user"`
	Warehouse            string `yaml:"warehouse"`
	Database             string `yaml:"database"`
	Schema               string `yaml:"schema"`
	Role                 string `yaml:"role"`
	PrivateKeyPath       string `yaml:"private_key_path"`
	PrivateKeyPassphrase string `yaml:"private_key_passphrase"`
	AuthWindow           string `yaml:"auth_window"`
	ReadOnly             bool   `yaml:"read_only"`
	ConnectionName       string `yaml:"connection_name"`
}

// UnmarshalYAML decodes the configuration, parsing auth_window values
// like "30m" or "1800s".
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw yamlConfig
	if err := value.Decode(&raw); err != nil {
		return err
	}

	*c = Config{
		Account:              raw.Account,
		User:                 raw.User,
		Warehouse:            raw.Warehouse,
		Database:             raw.Database,
		Schema:               raw.Schema,
		Role:                 raw.Role,
		PrivateKeyPath:       raw.PrivateKeyPath,
		PrivateKeyPassphrase: raw.PrivateKeyPassphrase,
		ReadOnly:             raw.ReadOnly,
		ConnectionName:       raw.ConnectionName,
	}

	if raw.AuthWindow != "" {
		window, err := time.ParseDuration(raw.AuthWindow)
		if err != nil {
			return fmt.Errorf("parsing auth_window: %w", err)
		}
		c.AuthWindow = window
	}

	return nil
}

// applyDefaults applies default values to the configuration.
func applyDefaults(name string, cfg Config) Config {
	if cfg.AuthWindow == 0 {
		cfg.AuthWindow = db.DefaultAuthWindow
	}
	if cfg.ConnectionName == "" {
		cfg.ConnectionName = name
	}
	return cfg
}

// clientConfig converts the toolkit configuration to a db.Config.
func (c Config) clientConfig() db.Config {
	return db.Config{
		Account:              c.Account,
		User:                 c.User,
		Warehouse:            c.Warehouse,
		Database:             c.Database,
		Schema:               c.Schema,
		Role:                 c.Role,
		PrivateKeyPath:       c.PrivateKeyPath,
		PrivateKeyPassphrase: c.PrivateKeyPassphrase,
		AuthWindow:           c.AuthWindow,
	}
}
