// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// lite.go — embedded SQLite record table over a zombiezen sqlitex pool: the
// same operations as the PostgreSQL tier, with timestamps stored as unix
// microseconds and every connection prepared with WAL pragmas.

// Package lite provides the SQLite persistence tier adapter.
package lite

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/ldn-softdev/jsl/internal/record"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// MigrationTable records applied migrations by name.
const MigrationTable = "jsl_migrations"

// DefaultListLimit caps List when the query sets no limit.
const DefaultListLimit = 1000

var (
	selectByID = fmt.Sprintf("SELECT %s FROM %s WHERE id = ?1", strings.Join(record.Columns, ", "), record.Table)
	upsertSQL  = fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7)
ON CONFLICT (id) DO UPDATE SET kind = excluded.kind, codec = excluded.codec, data = excluded.data,
digest = excluded.digest, updated_at = excluded.updated_at
RETURNING created_at`, record.Table, strings.Join(record.Columns, ", "))
)

// Options configures Open.
type Options struct {
	// Path is the database file, created when missing. ":memory:" opens a
	// private in-memory database and forces a single connection.
	Path string
	// PoolSize defaults to max(runtime.NumCPU(), 4).
	PoolSize int
	Logger   *slog.Logger
}

// Store is the SQLite adapter. It is safe for concurrent use; each call
// takes its own connection.
type Store struct {
	pool   *sqlitex.Pool
	path   string
	logger *slog.Logger
}

// Open creates the connection pool. Connections are opened lazily.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("lite: Path is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	size := opts.PoolSize
	switch {
	case opts.Path == ":memory:":
		size = 1
	case size <= 0:
		size = max(runtime.NumCPU(), 4)
	}
	pool, err := sqlitex.NewPool(opts.Path, sqlitex.PoolOptions{
		PoolSize:    size,
		PrepareConn: prepareConn,
	})
	if err != nil {
		return nil, fmt.Errorf("lite: opening %s: %w", opts.Path, err)
	}
	logger.Info("sqlite pool opened", "path", opts.Path, "pool_size", size)
	return &Store{pool: pool, path: opts.Path, logger: logger}, nil
}

func prepareConn(conn *sqlite.Conn) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	} {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("lite: %s: %w", pragma, err)
		}
	}
	return nil
}

// Name returns "sqlite".
func (s *Store) Name() string { return "sqlite" }

// with runs fn on a pooled connection.
func (s *Store) with(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("lite: take: %w", err)
	}
	defer s.pool.Put(conn)
	return fn(conn)
}

// Ping takes and returns a connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.with(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.ExecuteTransient(conn, "SELECT 1", nil)
	})
}

func upsert(conn *sqlite.Conn, row *record.Row) error {
	args := row.Values()
	args[5], args[6] = row.CreatedAt.UnixMicro(), row.UpdatedAt.UnixMicro()
	return sqlitex.Execute(conn, upsertSQL, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			row.CreatedAt = fromMicros(stmt.ColumnInt64(0))
			return nil
		},
	})
}

// Upsert writes row, keeping the stored created_at of an existing id and
// copying it back into row.
func (s *Store) Upsert(ctx context.Context, row *record.Row) error {
	err := s.with(ctx, func(conn *sqlite.Conn) error { return upsert(conn, row) })
	if err != nil {
		return fmt.Errorf("lite upsert %s: %w", row.ID, err)
	}
	return nil
}

// UpsertMany writes rows in one IMMEDIATE transaction.
func (s *Store) UpsertMany(ctx context.Context, rows []*record.Row) error {
	return s.with(ctx, func(conn *sqlite.Conn) (err error) {
		endTransaction, err := sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return fmt.Errorf("lite: begin transaction: %w", err)
		}
		defer endTransaction(&err)
		for _, row := range rows {
			if err = upsert(conn, row); err != nil {
				return fmt.Errorf("lite upsert %s: %w", row.ID, err)
			}
		}
		return nil
	})
}

// Get reads one row; record.ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, id string) (*record.Row, error) {
	var found *record.Row
	err := s.with(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, selectByID, &sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = scanRow(stmt)
				return nil
			},
		})
	})
	switch {
	case err != nil:
		return nil, fmt.Errorf("lite get %s: %w", id, err)
	case found == nil:
		return nil, record.ErrNotFound
	}
	return found, nil
}

// Delete removes id and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.with(ctx, func(conn *sqlite.Conn) error {
		if err := sqlitex.Execute(conn, "DELETE FROM "+record.Table+" WHERE id = ?1", &sqlitex.ExecOptions{Args: []any{id}}); err != nil {
			return err
		}
		n = conn.Changes()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("lite delete %s: %w", id, err)
	}
	return n > 0, nil
}

// Exists checks if a row exists.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var found bool
	err := s.with(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT 1 FROM "+record.Table+" WHERE id = ?1 LIMIT 1", &sqlitex.ExecOptions{
			Args:       []any{id},
			ResultFunc: func(*sqlite.Stmt) error { found = true; return nil },
		})
	})
	if err != nil {
		return false, fmt.Errorf("lite exists %s: %w", id, err)
	}
	return found, nil
}

// List returns the rows matching q.
func (s *Store) List(ctx context.Context, q record.Query) ([]*record.Row, error) {
	query, args, err := q.Select(record.Table, record.SQLite, DefaultListLimit)
	if err != nil {
		return nil, err
	}
	var out []*record.Row
	err = s.with(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				out = append(out, scanRow(stmt))
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("lite list: %w", err)
	}
	return out, nil
}

// Count returns the number of rows matching q.
func (s *Store) Count(ctx context.Context, q record.Query) (int64, error) {
	query, args := q.Count(record.Table, record.SQLite)
	var n int64
	err := s.with(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args:       args,
			ResultFunc: func(stmt *sqlite.Stmt) error { n = stmt.ColumnInt64(0); return nil },
		})
	})
	if err != nil {
		return 0, fmt.Errorf("lite count: %w", err)
	}
	return n, nil
}

// Apply runs the migration named name once; applied is false when it had
// already been recorded.
func (s *Store) Apply(ctx context.Context, name, script string) (applied bool, err error) {
	err = s.with(ctx, func(conn *sqlite.Conn) (err error) {
		if err = ensureMigrationTable(conn); err != nil {
			return err
		}
		endTransaction, err := sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return err
		}
		defer endTransaction(&err)
		err = sqlitex.Execute(conn, "INSERT INTO "+MigrationTable+" (name, applied_at) VALUES (?1, ?2) ON CONFLICT (name) DO NOTHING",
			&sqlitex.ExecOptions{Args: []any{name, time.Now().UnixMicro()}})
		if err != nil || conn.Changes() == 0 {
			return err
		}
		applied = true
		return sqlitex.ExecuteScript(conn, script, nil)
	})
	if err != nil {
		return false, fmt.Errorf("lite migrate %s: %w", name, err)
	}
	return applied, nil
}

// Migrations lists applied migrations in order.
func (s *Store) Migrations(ctx context.Context) ([]record.Migration, error) {
	var out []record.Migration
	err := s.with(ctx, func(conn *sqlite.Conn) error {
		if err := ensureMigrationTable(conn); err != nil {
			return err
		}
		return sqlitex.Execute(conn, "SELECT name, applied_at FROM "+MigrationTable+" ORDER BY id", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				out = append(out, record.Migration{Name: stmt.ColumnText(0), AppliedAt: fromMicros(stmt.ColumnInt64(1))})
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("lite migrations: %w", err)
	}
	return out, nil
}

func ensureMigrationTable(conn *sqlite.Conn) error {
	return sqlitex.ExecuteTransient(conn, `CREATE TABLE IF NOT EXISTS `+MigrationTable+` (
id         INTEGER PRIMARY KEY AUTOINCREMENT,
name       TEXT NOT NULL UNIQUE,
applied_at INTEGER NOT NULL
)`, nil)
}

func scanRow(stmt *sqlite.Stmt) *record.Row {
	row := &record.Row{
		ID:        stmt.ColumnText(0),
		Kind:      stmt.ColumnText(1),
		Codec:     stmt.ColumnText(2),
		Data:      make([]byte, stmt.ColumnLen(3)),
		CreatedAt: fromMicros(stmt.ColumnInt64(5)),
		UpdatedAt: fromMicros(stmt.ColumnInt64(6)),
	}
	stmt.ColumnBytes(3, row.Data)
	stmt.ColumnBytes(4, row.Digest[:])
	return row
}

func fromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}

// Close closes every connection, waiting for borrowed ones.
func (s *Store) Close() {
	if err := s.pool.Close(); err != nil {
		s.logger.Error("sqlite pool close error", "path", s.path, "error", err)
		return
	}
	s.logger.Info("sqlite pool closed", "path", s.path)
}
