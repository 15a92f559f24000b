// Package sqlite implements the local store adapter over an embedded SQLite
// database. It exposes map-typed row selection, statement execution with
// last-insert-id and affected-row reporting, column introspection for
// schema-aware write filtering, and a caller-driven transaction scope.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Store wraps one SQLite database connection. The connection is a
// process-wide shared resource; Store serializes writes but takes no
// long-lived locks.
type Store struct {
	mu      sync.RWMutex
	db      *sql.DB
	columns map[string][]string
}

// Open opens (creating if needed) the SQLite database at path. Use
// ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// One in-memory database per connection; pin the pool so every
		// statement sees the same database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &Store{
		db:      db,
		columns: make(map[string][]string),
	}, nil
}

// OpenConfig opens the database named by the Config's data directory and
// database file.
func OpenConfig(cfg types.Config) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	return Open(filepath.Join(dataDir, cfg.DatabaseFile()))
}

// DB returns the underlying *sql.DB for advanced use.
func (s *Store) DB() *sql.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// Close releases the connection. Subsequent operations return
// ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.columns = make(map[string][]string)
	return err
}

// Select runs a row-returning statement and returns column-keyed maps with
// the driver's native typing. TEXT values arrive as strings, INTEGER as
// int64, REAL as float64.
func (s *Store) Select(ctx context.Context, query string, args []any) ([]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, types.ErrStoreClosed
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// Exec runs a non-returning statement and reports the last insert id and
// the number of affected rows.
func (s *Store) Exec(ctx context.Context, query string, args []any) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return 0, 0, types.ErrStoreClosed
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, 0, err
	}
	return resultCounts(res)
}

// Columns returns the column names of a table via PRAGMA table_info,
// cached per table for the lifetime of the connection.
func (s *Store) Columns(ctx context.Context, table string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, types.ErrStoreClosed
	}
	if cached, ok := s.columns[table]; ok {
		return cached, nil
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("introspect %s: %w", table, err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("introspect %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("introspect %s: %w", table, types.ErrNotFound)
	}

	s.columns[table] = cols
	return cols, nil
}

// scanRows converts *sql.Rows into column-keyed maps. BLOB/TEXT byte
// slices are normalized to strings.
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func resultCounts(res sql.Result) (int64, int64, error) {
	lastID, err := res.LastInsertId()
	if err != nil {
		lastID = 0
	}
	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}
	return lastID, affected, nil
}
