package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/medisync/medisync/internal/apperr"
)

// Config selects the store's backing mode. Exactly one mode is active per
// process lifetime: DSN when set, otherwise an in-memory database when
// InMemory is true, otherwise the durable file at Path.
type Config struct {
	InMemory bool
	Path     string
	DSN      string
}

// dsn resolves the SQLite data source name for the configured backing mode.
func (c Config) dsn() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	if c.InMemory {
		return ":memory:", nil
	}
	if c.Path == "" {
		return "", fmt.Errorf("no backing mode configured: set Path, DSN, or InMemory")
	}
	return c.Path, nil
}

// Store owns the durable patient data and executes SQL statements
// transactionally. Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// RowSet is the uniform result shape for statements executed against the
// store. Queries populate Columns and Rows in store column order; DDL/DML
// statements populate RowsAffected.
type RowSet struct {
	Columns      []string
	Rows         [][]any
	RowsAffected int64
}

// RowCount returns the number of result rows.
func (rs RowSet) RowCount() int {
	return len(rs.Rows)
}

// Open creates or opens a SQLite database for the given config.
// Provisions the backing file if absent.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement (cascade deletes depend on this)
//
// The connection pool is capped at one connection: the design assumes a
// single logical writer, and a single connection keeps in-memory databases
// coherent across calls.
func Open(cfg Config) (*Store, error) {
	dsn, err := cfg.dsn()
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInitFailed, "resolve backing mode", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInitFailed, "open database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, apperr.Wrap(apperr.CodeInitFailed, "connect to database", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, apperr.Wrap(apperr.CodeInitFailed, "apply pragmas", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Exec runs one DDL/DML statement and returns the affected row count.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (RowSet, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return RowSet{}, fmt.Errorf("exec statement: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return RowSet{}, fmt.Errorf("rows affected: %w", err)
	}

	return RowSet{RowsAffected: affected}, nil
}

// Query runs one query statement and returns the full result set in store
// column order. Rows is never nil for a successful query.
func (s *Store) Query(ctx context.Context, query string, args ...any) (RowSet, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return RowSet{}, err
	}
	defer rows.Close()

	return collectRows(rows)
}

// collectRows drains sql.Rows into a RowSet.
func collectRows(rows *sql.Rows) (RowSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return RowSet{}, fmt.Errorf("read columns: %w", err)
	}

	rs := RowSet{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		dests := make([]any, len(columns))
		for i := range values {
			dests[i] = &values[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return RowSet{}, fmt.Errorf("scan row: %w", err)
		}
		// SQLite hands back []byte for TEXT columns; normalize to string
		// so callers see printable values.
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		rs.Rows = append(rs.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return RowSet{}, fmt.Errorf("iterate rows: %w", err)
	}

	return rs, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}
