package lite

import "github.com/ldn-softdev/jsl/internal/record"

// Schema is the built-in DDL of the record table, applied in order.
var Schema = []record.Step{
	{Name: "0001_records", SQL: `CREATE TABLE IF NOT EXISTS ` + record.Table + ` (
id         TEXT PRIMARY KEY,
kind       TEXT NOT NULL DEFAULT '',
codec      TEXT NOT NULL DEFAULT '',
data       BLOB NOT NULL,
digest     BLOB NOT NULL,
created_at INTEGER NOT NULL,
updated_at INTEGER NOT NULL
);`},
	{Name: "0002_records_kind_idx", SQL: `CREATE INDEX IF NOT EXISTS ` + record.Table + `_kind_idx ON ` + record.Table + ` (kind, id);`},
}

// Builtin returns Schema.
func (s *Store) Builtin() []record.Step { return Schema }
