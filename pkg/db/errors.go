package db

import (
	"fmt"
	"strings"
)

// ConfigError reports missing or malformed connection parameters.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return "missing required connection parameters: " + strings.Join(e.Missing, ", ")
}

// ConnectionError wraps a driver failure while establishing a session.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to snowflake: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// QueryError wraps a driver failure during SQL execution or result
// metadata retrieval.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("executing query %q: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
