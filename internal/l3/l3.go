// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// l3.go — PostgreSQL record table: upsert (single and batched in one
// transaction), point reads, paged listing, Exists/Count helpers, named
// migrations, and optional read-replica routing via a secondary pgxpool.

// Package l3 provides the PostgreSQL persistence tier adapter.
package l3

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ldn-softdev/jsl/internal/record"
)

// MigrationTable records applied migrations by name.
const MigrationTable = "jsl_migrations"

// DefaultListLimit caps List when the query sets no limit.
const DefaultListLimit = 1000

var (
	selectByID = fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", strings.Join(record.Columns, ", "), record.Table)
	upsertSQL  = fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET kind = EXCLUDED.kind, codec = EXCLUDED.codec, data = EXCLUDED.data,
digest = EXCLUDED.digest, updated_at = EXCLUDED.updated_at
RETURNING created_at`, record.Table, strings.Join(record.Columns, ", "))
)

// Store is the L3 PostgreSQL adapter.
type Store struct {
	pool    *pgxpool.Pool
	replica *pgxpool.Pool
}

// New creates a new L3 Store from existing pools; replica may be nil.
func New(pool *pgxpool.Pool, replica *pgxpool.Pool) *Store {
	return &Store{pool: pool, replica: replica}
}

// Open connects to dsn (and replicaDSN when not empty).
func Open(ctx context.Context, dsn, replicaDSN string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("l3 connect: %w", err)
	}
	var replica *pgxpool.Pool
	if replicaDSN != "" {
		if replica, err = pgxpool.New(ctx, replicaDSN); err != nil {
			pool.Close()
			return nil, fmt.Errorf("l3 connect replica: %w", err)
		}
	}
	return New(pool, replica), nil
}

// Name returns "postgres".
func (s *Store) Name() string { return "postgres" }

// readPool returns the read replica if available, otherwise the primary.
func (s *Store) readPool() *pgxpool.Pool {
	if s.replica != nil {
		return s.replica
	}
	return s.pool
}

// Ping verifies the primary pool is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Upsert writes row, keeping the stored created_at of an existing id and
// copying it back into row.
func (s *Store) Upsert(ctx context.Context, row *record.Row) error {
	if err := s.pool.QueryRow(ctx, upsertSQL, row.Values()...).Scan(&row.CreatedAt); err != nil {
		return fmt.Errorf("l3 upsert %s: %w", row.ID, err)
	}
	row.CreatedAt = row.CreatedAt.UTC()
	return nil
}

// UpsertMany writes rows in one transaction using a pipelined batch.
func (s *Store) UpsertMany(ctx context.Context, rows []*record.Row) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, row := range rows {
			batch.Queue(upsertSQL, row.Values()...).QueryRow(func(r pgx.Row) error {
				if err := r.Scan(&row.CreatedAt); err != nil {
					return fmt.Errorf("l3 upsert %s: %w", row.ID, err)
				}
				row.CreatedAt = row.CreatedAt.UTC()
				return nil
			})
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// Get reads one row; record.ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, id string) (*record.Row, error) {
	row, err := scanRow(s.readPool().QueryRow(ctx, selectByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, record.ErrNotFound
		}
		return nil, fmt.Errorf("l3 get %s: %w", id, err)
	}
	return row, nil
}

// Delete removes id and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM "+record.Table+" WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("l3 delete %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Exists checks if a row exists.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var dummy int
	err := s.readPool().QueryRow(ctx, "SELECT 1 FROM "+record.Table+" WHERE id = $1 LIMIT 1", id).Scan(&dummy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("l3 exists %s: %w", id, err)
	}
	return true, nil
}

// List returns the rows matching q.
func (s *Store) List(ctx context.Context, q record.Query) ([]*record.Row, error) {
	sql, args, err := q.Select(record.Table, record.Postgres, DefaultListLimit)
	if err != nil {
		return nil, err
	}
	rows, err := s.readPool().Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("l3 list: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (*record.Row, error) { return scanRow(r) })
	if err != nil {
		return nil, fmt.Errorf("l3 list: %w", err)
	}
	return out, nil
}

// Count returns the number of rows matching q.
func (s *Store) Count(ctx context.Context, q record.Query) (int64, error) {
	sql, args := q.Count(record.Table, record.Postgres)
	var n int64
	if err := s.readPool().QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("l3 count: %w", err)
	}
	return n, nil
}

// Apply runs the migration named name once; applied is false when it had
// already been recorded.
func (s *Store) Apply(ctx context.Context, name, sql string) (applied bool, err error) {
	if err := s.ensureMigrationTable(ctx); err != nil {
		return false, err
	}
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "INSERT INTO "+MigrationTable+" (name) VALUES ($1) ON CONFLICT (name) DO NOTHING", name)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		applied = true
		_, err = tx.Exec(ctx, sql)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("l3 migrate %s: %w", name, err)
	}
	return applied, nil
}

// Migrations lists applied migrations in order.
func (s *Store) Migrations(ctx context.Context) ([]record.Migration, error) {
	if err := s.ensureMigrationTable(ctx); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, "SELECT name, applied_at FROM "+MigrationTable+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("l3 migrations: %w", err)
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (record.Migration, error) {
		var m record.Migration
		err := r.Scan(&m.Name, &m.AppliedAt)
		m.AppliedAt = m.AppliedAt.UTC()
		return m, err
	})
}

func (s *Store) ensureMigrationTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+MigrationTable+` (
id         SERIAL PRIMARY KEY,
name       TEXT NOT NULL UNIQUE,
applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`)
	if err != nil {
		return fmt.Errorf("l3 migration table: %w", err)
	}
	return nil
}

func scanRow(r pgx.Row) (*record.Row, error) {
	var (
		row    record.Row
		digest []byte
	)
	if err := r.Scan(&row.ID, &row.Kind, &row.Codec, &row.Data, &digest, &row.CreatedAt, &row.UpdatedAt); err != nil {
		return nil, err
	}
	row.SetDigest(digest)
	row.CreatedAt = row.CreatedAt.UTC()
	row.UpdatedAt = row.UpdatedAt.UTC()
	return &row, nil
}

// Pool returns the underlying primary connection pool.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Close shuts down both pools.
func (s *Store) Close() {
	s.pool.Close()
	if s.replica != nil {
		s.replica.Close()
	}
}
