package jsl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Migrate applies the built-in record schema to the relational tier. It is
// idempotent; a store without a relational tier has nothing to migrate.
func (s *Store) Migrate(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if s.l3 == nil {
		return nil
	}
	for _, step := range s.l3.Builtin() {
		if err := s.apply(ctx, step.Name, step.SQL); err != nil {
			return err
		}
	}
	return nil
}

// MigrateFrom applies SQL migration files from dir in NNN_description.sql
// order. Each file is recorded by name and runs at most once.
func (s *Store) MigrateFrom(ctx context.Context, dir string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if s.l3 == nil {
		return ErrL3Unavailable
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("migrate-from readdir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, fname := range files {
		content, err := os.ReadFile(filepath.Join(dir, fname))
		if err != nil {
			return fmt.Errorf("migrate-from read %q: %w", fname, err)
		}
		if err := s.apply(ctx, fname, string(content)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) apply(ctx context.Context, name, sql string) error {
	applied, err := s.l3.Apply(ctx, name, sql)
	if err != nil {
		return fmt.Errorf("migrate %q: %w", name, err)
	}
	if applied {
		s.logger.Info("jsl: migration applied", "name", name, "backend", s.l3.Name())
	}
	return nil
}

// MigrationStatus returns the applied migrations in order.
func (s *Store) MigrationStatus(ctx context.Context) ([]Migration, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if s.l3 == nil {
		return nil, ErrL3Unavailable
	}
	return s.l3.Migrations(ctx)
}
