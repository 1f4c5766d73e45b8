// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// query.go — Query, the record filter shared by every relational backend,
// rendered to a parameterised SELECT with the backend's placeholder style.

package record

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadOrder is returned for an ORDER BY column that is not a record column.
var ErrBadOrder = errors.New("record: unsupported order column")

// Dialect holds what differs between the relational backends.
type Dialect struct {
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// Unbounded is the LIMIT value meaning "no limit".
	Unbounded string
}

var (
	Postgres = Dialect{Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) }, Unbounded: "ALL"}
	SQLite   = Dialect{Placeholder: func(n int) string { return fmt.Sprintf("?%d", n) }, Unbounded: "-1"}
)

// Query filters and pages records. A negative Limit means no limit; zero
// takes the caller's default.
type Query struct {
	Kind     string
	IDPrefix string
	OrderBy  string
	Desc     bool
	Limit    int
	Offset   int
}

var orderColumns = map[string]bool{"id": true, "kind": true, "created_at": true, "updated_at": true}

// Validate checks the ORDER BY column.
func (q Query) Validate() error {
	if q.OrderBy != "" && !orderColumns[q.OrderBy] {
		return fmt.Errorf("%w: %q", ErrBadOrder, q.OrderBy)
	}
	return nil
}

// Where returns the WHERE clause (without the keyword) and its arguments.
func (q Query) Where(d Dialect) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.Kind != "" {
		args = append(args, q.Kind)
		conds = append(conds, "kind = "+d.Placeholder(len(args)))
	}
	if q.IDPrefix != "" {
		args = append(args, escapeLike(q.IDPrefix)+"%")
		conds = append(conds, "id LIKE "+d.Placeholder(len(args))+` ESCAPE '\'`)
	}
	return strings.Join(conds, " AND "), args
}

// Select renders the paged SELECT of every record column.
func (q Query) Select(table string, d Dialect, defaultLimit int) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(Columns, ", "), table)
	where, args := q.Where(d)
	if where != "" {
		sql += " WHERE " + where
	}
	order := q.OrderBy
	if order == "" {
		order = "id"
	}
	sql += " ORDER BY " + order
	if q.Desc {
		sql += " DESC"
	}
	limit := q.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	switch {
	case limit > 0:
		sql += fmt.Sprintf(" LIMIT %d", limit)
	case q.Offset > 0:
		sql += " LIMIT " + d.Unbounded
	}
	if q.Offset > 0 {
		sql += fmt.Sprintf(" OFFSET %d", q.Offset)
	}
	return sql, args, nil
}

// Count renders the COUNT(*) of matching records; paging is ignored.
func (q Query) Count(table string, d Dialect) (string, []any) {
	sql := "SELECT COUNT(*) FROM " + table
	where, args := q.Where(d)
	if where != "" {
		sql += " WHERE " + where
	}
	return sql, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
