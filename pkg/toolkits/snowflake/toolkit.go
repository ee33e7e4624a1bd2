// Package snowflake provides the Snowflake toolkit: MCP tools and
// resources over the session-managed database client.
package snowflake

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-snowflake/pkg/db"
	"github.com/txn2/mcp-snowflake/pkg/toolkit"
)

// Tool and resource names exposed by the toolkit.
const (
	readQueryToolName     = "snowflake_read_query"
	writeQueryToolName    = "snowflake_write_query"
	createTableToolName   = "snowflake_create_table"
	listTablesToolName    = "snowflake_list_tables"
	appendInsightToolName = "append_insight"

	memoResourceURI    = "memo://insights"
	insightTemplateURI = "insight://{index}"
)

// queryInput is the input schema shared by the query tools.
type queryInput struct {
	Query string `json:"query"`
}

// queryOutput is the JSON response for query tools.
type queryOutput struct {
	CorrelationID string           `json:"correlation_id"`
	RowCount      int              `json:"row_count"`
	Rows          []map[string]any `json:"rows"`
}

// listTablesInput is empty since the tool has no parameters.
type listTablesInput struct{}

// listTablesOutput is the JSON response for the list tables tool.
type listTablesOutput struct {
	Tables []string `json:"tables"`
	Count  int      `json:"count"`
}

// appendInsightInput is the input schema for the append_insight tool.
type appendInsightInput struct {
	Insight string `json:"insight"`
}

// appendInsightOutput is the JSON response for the append_insight tool.
type appendInsightOutput struct {
	Status       string `json:"status"`
	InsightCount int    `json:"insight_count"`
}

// Toolkit wraps the database client for the MCP server.
type Toolkit struct {
	name   string
	config Config
	client *db.Client
}

// Option configures a Toolkit.
type Option func(*Toolkit)

// WithClient substitutes the database client. Used by tests.
func WithClient(client *db.Client) Option {
	return func(t *Toolkit) {
		if client != nil {
			t.client = client
		}
	}
}

// WithLogger sets the logger for the underlying client. Ignored when a
// client is injected via WithClient.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Toolkit) {
		if t.client == nil && logger != nil {
			t.client = db.New(t.config.clientConfig(), db.WithLogger(logger))
		}
	}
}

// New creates a new Snowflake toolkit.
func New(name string, cfg Config, opts ...Option) (*Toolkit, error) {
	cfg = applyDefaults(name, cfg)

	t := &Toolkit{
		name:   name,
		config: cfg,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.client == nil {
		t.client = db.New(cfg.clientConfig())
	}
	return t, nil
}

// Kind returns the toolkit kind.
func (*Toolkit) Kind() string {
	return "snowflake"
}

// Name returns the toolkit instance name.
func (t *Toolkit) Name() string {
	return t.name
}

// Connection returns the connection name for logging.
func (t *Toolkit) Connection() string {
	return t.config.ConnectionName
}

// Client returns the underlying database client for direct use.
func (t *Toolkit) Client() *db.Client {
	return t.client
}

// Config returns the toolkit configuration.
func (t *Toolkit) Config() Config {
	return t.config
}

// RegisterTools registers the Snowflake tools and resources with the MCP
// server.
func (t *Toolkit) RegisterTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: readQueryToolName,
		Description: "Execute a SELECT query against Snowflake and return the rows " +
			"together with a correlation identifier for the result set.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.handleReadQuery)

	mcp.AddTool(s, &mcp.Tool{
		Name: writeQueryToolName,
		Description: "Execute an INSERT, UPDATE, or DELETE statement against Snowflake. " +
			"Rejected when the toolkit runs in read-only mode.",
	}, t.handleWriteQuery)

	mcp.AddTool(s, &mcp.Tool{
		Name:        createTableToolName,
		Description: "Create a new table in Snowflake. Rejected when the toolkit runs in read-only mode.",
	}, t.handleCreateTable)

	mcp.AddTool(s, &mcp.Tool{
		Name:        listTablesToolName,
		Description: "List tables visible to the current Snowflake session.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.handleListTables)

	mcp.AddTool(s, &mcp.Tool{
		Name: appendInsightToolName,
		Description: "Record a data insight discovered during analysis. Insights are " +
			"collected into the memo://insights resource.",
	}, t.handleAppendInsight)

	t.registerResources(s)
}

// Tools returns the list of tool names provided by this toolkit.
func (*Toolkit) Tools() []string {
	return []string{
		readQueryToolName,
		writeQueryToolName,
		createTableToolName,
		listTablesToolName,
		appendInsightToolName,
	}
}

// Close releases the database session.
func (t *Toolkit) Close() error {
	if t.client != nil {
		if err := t.client.Close(); err != nil {
			return fmt.Errorf("closing snowflake client: %w", err)
		}
	}
	return nil
}

// handleReadQuery executes read statements.
func (t *Toolkit) handleReadQuery(ctx context.Context, _ *mcp.CallToolRequest, input queryInput) (*mcp.CallToolResult, any, error) {
	if input.Query == "" {
		return errorResult("query is required"), nil, nil
	}
	if isWriteStatement(input.Query) {
		return errorResult("only read statements are allowed; use " + writeQueryToolName + " for writes"), nil, nil
	}
	return t.runQuery(ctx, input.Query)
}

// handleWriteQuery executes write statements when writes are enabled.
func (t *Toolkit) handleWriteQuery(ctx context.Context, _ *mcp.CallToolRequest, input queryInput) (*mcp.CallToolResult, any, error) {
	if input.Query == "" {
		return errorResult("query is required"), nil, nil
	}
	if t.config.ReadOnly {
		return errorResult("write operations not allowed in read-only mode"), nil, nil
	}
	if !isWriteStatement(input.Query) {
		return errorResult("not a write statement; use " + readQueryToolName + " for SELECT queries"), nil, nil
	}
	if isCreateTableStatement(input.Query) {
		return errorResult("use " + createTableToolName + " to create tables"), nil, nil
	}
	return t.runQuery(ctx, input.Query)
}

// handleCreateTable executes CREATE TABLE statements when writes are
// enabled.
func (t *Toolkit) handleCreateTable(ctx context.Context, _ *mcp.CallToolRequest, input queryInput) (*mcp.CallToolResult, any, error) {
	if input.Query == "" {
		return errorResult("query is required"), nil, nil
	}
	if t.config.ReadOnly {
		return errorResult("write operations not allowed in read-only mode"), nil, nil
	}
	if !isCreateTableStatement(input.Query) {
		return errorResult("only CREATE TABLE statements are allowed"), nil, nil
	}
	return t.runQuery(ctx, input.Query)
}

// runQuery submits the statement and formats the result set.
func (t *Toolkit) runQuery(ctx context.Context, query string) (*mcp.CallToolResult, any, error) {
	rows, correlationID, err := t.client.ExecuteQuery(ctx, query)
	if err != nil {
		return errorResult(err.Error()), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}
	return jsonResult(queryOutput{
		CorrelationID: correlationID,
		RowCount:      len(rows),
		Rows:          rows,
	})
}

// handleListTables lists tables visible to the session.
func (t *Toolkit) handleListTables(ctx context.Context, _ *mcp.CallToolRequest, _ listTablesInput) (*mcp.CallToolResult, any, error) {
	tables, err := t.client.ListTables(ctx)
	if err != nil {
		return errorResult(err.Error()), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}
	return jsonResult(listTablesOutput{
		Tables: tables,
		Count:  len(tables),
	})
}

// handleAppendInsight records an insight.
func (t *Toolkit) handleAppendInsight(_ context.Context, _ *mcp.CallToolRequest, input appendInsightInput) (*mcp.CallToolResult, any, error) {
	if input.Insight == "" {
		return errorResult("insight text is required"), nil, nil
	}
	t.client.AddInsight(input.Insight)
	return jsonResult(appendInsightOutput{
		Status:       "recorded",
		InsightCount: len(t.client.Insights()),
	})
}

// errorResult builds a tool error response.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(`{"error": %q}`, msg)},
		},
		IsError: true,
	}
}

// jsonResult builds a successful JSON tool response.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("encoding response: " + err.Error()), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

// Verify interface compliance.
var _ toolkit.Toolkit = (*Toolkit)(nil)
