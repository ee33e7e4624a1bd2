// Package toolkit defines the contract toolkit implementations satisfy.
// It has zero internal dependencies so toolkit packages and the server
// assembly can both import it without cycles.
package toolkit

import "github.com/modelcontextprotocol/go-sdk/mcp"

// Toolkit is a named bundle of MCP tools backed by one connection.
type Toolkit interface {
	// Kind identifies the toolkit implementation, e.g. "snowflake".
	Kind() string
	// Name is the configured instance name.
	Name() string
	// Connection names the backing connection for logging.
	Connection() string
	// RegisterTools adds the toolkit's tools and resources to the server.
	RegisterTools(s *mcp.Server)
	// Tools lists the registered tool names.
	Tools() []string
	// Close releases the toolkit's resources.
	Close() error
}
