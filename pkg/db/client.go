// Package db provides the Snowflake session manager: a lazily connected
// client that re-authenticates on expiry, executes SQL, and accumulates
// data insights for memo rendering.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	// Registers the "snowflake" database/sql driver.
	_ "github.com/snowflakedb/gosnowflake"
)

// sessionProbeQuery reports who the session is authenticated as.
const sessionProbeQuery = "SELECT CURRENT_ROLE(), CURRENT_DATABASE(), CURRENT_SCHEMA()"

// InitTask is the handle to an in-flight session initialization. Callers
// that find one pending await it instead of opening a second connection.
type InitTask struct {
	done chan struct{}
	err  error
}

// Wait blocks until initialization completes or the context is canceled.
func (t *InitTask) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done reports whether initialization has completed.
func (t *InitTask) Done() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// OpenFunc opens an authenticated connection handle for a configuration.
// Injectable so tests can substitute a mock handle.
type OpenFunc func(ctx context.Context, cfg Config) (*sql.DB, error)

// Client manages a single Snowflake session. Every query-executing call
// runs against a connection that is either freshly established or still
// within its authentication window; callers never manage connection
// state themselves.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	db       *sql.DB
	authTime time.Time
	pending  *InitTask
	insights []string

	now  func() time.Time
	open OpenFunc
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used by the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source. Used by tests to simulate
// authentication expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithOpener overrides how connection handles are opened.
func WithOpener(open OpenFunc) Option {
	return func(c *Client) {
		if open != nil {
			c.open = open
		}
	}
}

// New creates a client for the given connection configuration. No
// connection is made until the first call that needs one, or until
// StartBackgroundInit.
func New(cfg Config, opts ...Option) *Client {
	if cfg.AuthWindow == 0 {
		cfg.AuthWindow = DefaultAuthWindow
	}
	c := &Client{
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
		open:   openSnowflake,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// openSnowflake is the production opener: key-pair DSN, open, ping.
func openSnowflake(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn, err := cfg.dsn()
	if err != nil {
		return nil, err
	}
	handle, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, err
	}
	if err := handle.PingContext(ctx); err != nil {
		_ = handle.Close()
		return nil, err
	}
	return handle, nil
}

// StartBackgroundInit schedules session initialization without blocking
// the caller. If an initialization is already pending, its handle is
// returned instead of starting a duplicate.
func (c *Client) StartBackgroundInit(ctx context.Context) *InitTask {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startInitLocked(ctx)
}

// startInitLocked publishes a pending InitTask and runs initialization in
// a goroutine. Callers must hold c.mu. On failure the prior connection
// handle is left untouched.
func (c *Client) startInitLocked(ctx context.Context) *InitTask {
	if c.pending != nil {
		return c.pending
	}

	task := &InitTask{done: make(chan struct{})}
	c.pending = task

	go func() {
		handle, err := c.initSession(ctx)

		c.mu.Lock()
		if err == nil {
			if c.db != nil {
				_ = c.db.Close()
			}
			c.db = handle
			c.authTime = c.now()
		}
		c.pending = nil
		c.mu.Unlock()

		task.err = err
		close(task.done)
	}()

	return task
}

// initSession validates configuration and opens a fresh connection.
func (c *Client) initSession(ctx context.Context) (*sql.DB, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	handle, err := c.open(ctx, c.cfg)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	c.logger.Info("snowflake session established",
		"account", c.cfg.Account, "user", c.cfg.User, "role", c.cfg.Role)
	return handle, nil
}

// ensureSession guarantees a valid session: a pending initialization is
// awaited; a fresh connection within the auth window is used as-is; any
// other state triggers initialization, itself published as the pending
// task so concurrent callers share it.
func (c *Client) ensureSession(ctx context.Context) error {
	c.mu.Lock()
	if task := c.pending; task != nil {
		c.mu.Unlock()
		return task.Wait(ctx)
	}
	if c.db != nil && c.now().Sub(c.authTime) <= c.cfg.AuthWindow {
		c.mu.Unlock()
		return nil
	}
	task := c.startInitLocked(ctx)
	c.mu.Unlock()
	return task.Wait(ctx)
}

// handle returns the current connection handle.
func (c *Client) handle() *sql.DB {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db
}

// TestConnection verifies the session by reading the current role,
// database, and schema, then listing available tables. It never returns
// an error: failures are reported as (false, message).
func (c *Client) TestConnection(ctx context.Context) (bool, string) {
	if err := c.ensureSession(ctx); err != nil {
		c.logger.Error("connection test failed", "error", err)
		return false, fmt.Sprintf("Connection test failed: %v", err)
	}

	handle := c.handle()

	var role, database, schema sql.NullString
	if err := handle.QueryRowContext(ctx, sessionProbeQuery).Scan(&role, &database, &schema); err != nil {
		c.logger.Error("connection test failed", "error", err)
		return false, fmt.Sprintf("Connection test failed: %v", err)
	}

	tables, err := c.listTables(ctx, handle)
	if err != nil {
		c.logger.Error("connection test failed", "error", err)
		return false, fmt.Sprintf("Connection test failed: %v", err)
	}

	lines := make([]string, 0, len(tables))
	for _, table := range tables {
		lines = append(lines, "- "+table)
	}

	return true, fmt.Sprintf(
		"Connection successful!\nRole: %s\nDatabase: %s\nSchema: %s\n\nAvailable tables:\n%s",
		role.String, database.String, schema.String, strings.Join(lines, "\n"))
}

// ExecuteQuery submits SQL verbatim and returns each row as a mapping of
// column name to value, together with a fresh correlation identifier for
// the result set. Driver errors are logged and propagated; there are no
// retries.
func (c *Client) ExecuteQuery(ctx context.Context, query string) ([]map[string]any, string, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, "", err
	}

	c.logger.Debug("executing query", "sql", query)

	rows, err := c.handle().QueryContext(ctx, query)
	if err != nil {
		c.logger.Error("query failed", "sql", query, "error", err)
		return nil, "", &QueryError{Query: query, Err: err}
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		c.logger.Error("reading result columns failed", "sql", query, "error", err)
		return nil, "", &QueryError{Query: query, Err: err}
	}

	results := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			c.logger.Error("scanning result row failed", "sql", query, "error", err)
			return nil, "", &QueryError{Query: query, Err: err}
		}
		row := make(map[string]any, len(columns))
		for i, name := range columns {
			row[name] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		c.logger.Error("reading result rows failed", "sql", query, "error", err)
		return nil, "", &QueryError{Query: query, Err: err}
	}

	return results, uuid.NewString(), nil
}

// ListTables returns table names visible to the session, scoped to the
// configured schema when one is set.
func (c *Client) ListTables(ctx context.Context) ([]string, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}
	return c.listTables(ctx, c.handle())
}

// listTables queries information_schema for table names.
func (c *Client) listTables(ctx context.Context, handle *sql.DB) ([]string, error) {
	builder := sq.Select("table_name").
		From("information_schema.tables").
		OrderBy("table_name")
	if c.cfg.Schema != "" {
		builder = builder.Where(sq.Eq{"table_schema": strings.ToUpper(c.cfg.Schema)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}

	rows, err := handle.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &QueryError{Query: query, Err: err}
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return tables, nil
}

// SessionStatus describes the current session for health reporting.
type SessionStatus struct {
	Connected   bool          `json:"connected"`
	AuthAge     time.Duration `json:"-"`
	InitPending bool          `json:"init_pending"`
}

// Status reports the session state without touching the connection.
func (c *Client) Status() SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	status := SessionStatus{
		Connected:   c.db != nil,
		InitPending: c.pending != nil,
	}
	if c.db != nil {
		status.AuthAge = c.now().Sub(c.authTime)
	}
	return status
}

// Close releases the connection handle if one exists.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	if err != nil {
		return fmt.Errorf("closing snowflake connection: %w", err)
	}
	return nil
}
