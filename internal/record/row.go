// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// row.go — Row, the unit every storage tier holds: an opaque encoded payload
// with its identity, codec name, blake3 digest and timestamps.

// Package record defines the stored record shared by the cache and
// relational tiers, and the query that lists them.
package record

import (
	"bytes"
	"errors"
	"slices"
	"time"

	"github.com/zeebo/blake3"
)

// Table is the relational table holding records.
const Table = "jsl_records"

// Columns lists the record columns in scan order.
var Columns = []string{"id", "kind", "codec", "data", "digest", "created_at", "updated_at"}

// DigestSize is the length of a payload digest.
const DigestSize = 32

// Row is a stored record. It declares its own fields so rows travel through
// the Blob codec into the cache tier.
type Row struct {
	ID        string
	Kind      string
	Codec     string
	Data      []byte
	Digest    [DigestSize]byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Fields lists the encoded fields in order.
func (r *Row) Fields() []any {
	return []any{&r.ID, &r.Kind, &r.Codec, &r.Data, &r.Digest, &r.CreatedAt, &r.UpdatedAt}
}

// New builds a row for data, stamping the digest and both timestamps.
func New(id, kind, codec string, data []byte, now time.Time) *Row {
	now = now.UTC().Truncate(time.Microsecond)
	return &Row{
		ID:        id,
		Kind:      kind,
		Codec:     codec,
		Data:      data,
		Digest:    Sum(data),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Sum returns the blake3-256 digest of data.
func Sum(data []byte) [DigestSize]byte {
	return blake3.Sum256(data)
}

// Verify reports whether Digest matches Data.
func (r *Row) Verify() bool {
	sum := Sum(r.Data)
	return bytes.Equal(sum[:], r.Digest[:])
}

// Clone returns a deep copy, so cached rows are never shared with callers.
func (r *Row) Clone() *Row {
	if r == nil {
		return nil
	}
	c := *r
	c.Data = slices.Clone(r.Data)
	return &c
}

// SetDigest copies a scanned digest column into r.
func (r *Row) SetDigest(p []byte) {
	r.Digest = [DigestSize]byte{}
	copy(r.Digest[:], p)
}

// Values returns the column values in Columns order. A nil payload is
// bound as an empty one.
func (r *Row) Values() []any {
	data := r.Data
	if data == nil {
		data = []byte{}
	}
	return []any{r.ID, r.Kind, r.Codec, data, r.Digest[:], r.CreatedAt, r.UpdatedAt}
}

// ErrNotFound is returned by the relational tiers for an unknown id.
var ErrNotFound = errors.New("record: not found")

// Migration is one applied schema migration.
type Migration struct {
	Name      string
	AppliedAt time.Time
}

// Step is a named schema change applied at most once per database.
type Step struct {
	Name string
	SQL  string
}
