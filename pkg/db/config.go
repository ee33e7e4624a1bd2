package db

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
	"time"

	sf "github.com/snowflakedb/gosnowflake"
	"github.com/youmark/pkcs8"
)

// DefaultAuthWindow is how long an authenticated session is trusted
// before the next call re-establishes it.
const DefaultAuthWindow = 1800 * time.Second

// Config holds Snowflake connection parameters. It is supplied once at
// client construction and never mutated afterwards. Authentication is
// fixed to key-pair (JWT) auth.
type Config struct {
	Account              string
	User                 string
	Warehouse            string
	Database             string
	Schema               string
	Role                 string
	PrivateKeyPath       string
	PrivateKeyPassphrase string

	// AuthWindow overrides DefaultAuthWindow when non-zero.
	AuthWindow time.Duration
}

// Validate checks that the parameters required to authenticate are present.
func (c Config) Validate() error {
	var missing []string
	if c.Account == "" {
		missing = append(missing, "account")
	}
	if c.User == "" {
		missing = append(missing, "user")
	}
	if c.PrivateKeyPath == "" {
		missing = append(missing, "private_key_path")
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

// dsn builds a gosnowflake DSN for key-pair authentication.
func (c Config) dsn() (string, error) {
	key, err := loadPrivateKey(c.PrivateKeyPath, c.PrivateKeyPassphrase)
	if err != nil {
		return "", fmt.Errorf("loading private key: %w", err)
	}

	sfCfg := &sf.Config{
		Account:       c.Account,
		User:          c.User,
		Warehouse:     c.Warehouse,
		Database:      c.Database,
		Schema:        c.Schema,
		Role:          c.Role,
		Authenticator: sf.AuthTypeJwt,
		PrivateKey:    key,
	}

	dsn, err := sf.DSN(sfCfg)
	if err != nil {
		return "", fmt.Errorf("building snowflake DSN: %w", err)
	}
	return dsn, nil
}

// loadPrivateKey reads an RSA private key in PKCS#8 PEM form, decrypting
// it with the passphrase when one is provided.
func loadPrivateKey(path, passphrase string) (*rsa.PrivateKey, error) {
	// #nosec G304 -- path is operator-supplied configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("key file %s contains no PEM block", path)
	}

	if passphrase != "" {
		key, err := pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("decrypting key: %w", err)
		}
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		// Encrypted keys fail plain PKCS#8 parsing with an opaque asn1
		// error; surface a hint instead.
		if strings.Contains(err.Error(), "encrypted") || strings.Contains(err.Error(), "asn1") {
			return nil, fmt.Errorf("parsing key (is a passphrase required?): %w", err)
		}
		return nil, fmt.Errorf("parsing key: %w", err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("key file %s is not an RSA key", path)
	}
	return key, nil
}
