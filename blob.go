// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// blob.go — Blob, the byte sink/source every encode and decode session runs
// against, with its top-level Append/Restore entry points and raw access.

package jsl

import (
	"fmt"
	"reflect"

	"github.com/ldn-softdev/jsl/internal/wire"
)

const defaultMaxDepth = 4096

// Option configures a Blob.
type Option func(*Blob)

// WithLogger routes session diagnostics to l.
func WithLogger(l Logger) Option {
	return func(b *Blob) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMaxDepth bounds composite and container nesting. n <= 0 keeps the default.
func WithMaxDepth(n int) Option {
	return func(b *Blob) {
		if n > 0 {
			b.maxDepth = n
		}
	}
}

// Blob holds an encoded byte stream and a read cursor into it.
// Appends always extend the end; restores consume from the cursor. A Blob
// is not safe for concurrent use. The zero value is an empty Blob.
type Blob struct {
	buf      wire.Buffer
	logger   Logger
	maxDepth int
}

// New returns an empty Blob.
func New(opts ...Option) *Blob {
	b := &Blob{logger: noopLogger{}, maxDepth: defaultMaxDepth}
	for _, o := range opts {
		o(b)
	}
	return b
}

// FromBytes returns a Blob positioned at the start of data. The Blob takes
// ownership of data.
func FromBytes(data []byte, opts ...Option) *Blob {
	b := New(opts...)
	b.buf = *wire.NewBuffer(data)
	return b
}

func (b *Blob) log() Logger {
	if b.logger == nil {
		return noopLogger{}
	}
	return b.logger
}

func (b *Blob) depthLimit() int {
	if b.maxDepth <= 0 {
		return defaultMaxDepth
	}
	return b.maxDepth
}

// Append encodes values, in order, to the end of the blob. A pointer
// argument is dereferenced once, so Append(&v) and Append(v) write the same
// bytes; passing a pointer lets references to v itself resolve.
//
// All values share one reference scope. On error nothing is appended.
func (b *Blob) Append(values ...any) error {
	roots := make([]reflect.Value, len(values))
	for i, v := range values {
		rv := reflect.ValueOf(v)
		switch {
		case !rv.IsValid():
			return fmt.Errorf("%w: nil value at argument %d", ErrUnsupportedType, i)
		case rv.Kind() == reflect.Ptr:
			if rv.IsNil() {
				return fmt.Errorf("%w: nil %s at argument %d", ErrNotPointer, rv.Type(), i)
			}
			roots[i] = rv.Elem()
		default:
			cp := reflect.New(rv.Type()).Elem()
			cp.Set(rv)
			roots[i] = cp
		}
	}

	mark := b.buf.Len()
	e := newEncoder(b)
	if err := e.run(roots); err != nil {
		b.buf.Truncate(mark)
		b.log().Debug("jsl: append failed", "values", len(values), "err", err)
		return err
	}
	b.log().Debug("jsl: append", "values", len(values), "bytes", b.buf.Len()-mark, "uids", e.refs.size())
	return nil
}

// Restore decodes into dsts, in order, from the cursor. Each destination
// must be a non-nil pointer; decoding overwrites the pointee starting from
// its current state. References are resolved once every destination has
// been decoded.
//
// On error the cursor is rewound to where it was and the destinations
// should be discarded.
func (b *Blob) Restore(dsts ...any) error {
	roots := make([]reflect.Value, len(dsts))
	for i, d := range dsts {
		rv := reflect.ValueOf(d)
		if !rv.IsValid() || rv.Kind() != reflect.Ptr || rv.IsNil() {
			return fmt.Errorf("%w: argument %d is %T", ErrNotPointer, i, d)
		}
		roots[i] = rv.Elem()
	}

	mark := b.buf.Offset()
	d := newDecoder(b)
	if err := d.run(roots); err != nil {
		_ = b.buf.Seek(mark)
		b.log().Debug("jsl: restore failed", "offset", mark, "err", err)
		return err
	}
	b.log().Debug("jsl: restore", "values", len(dsts), "bytes", b.buf.Offset()-mark, "uids", d.refs.size())
	return nil
}

// AppendRaw copies p verbatim to the end of the blob.
func (b *Blob) AppendRaw(p []byte) { b.buf.AppendRaw(p) }

// RestoreRaw fills p from the cursor; ErrOutOfRange if fewer bytes remain.
func (b *Blob) RestoreRaw(p []byte) error { return b.buf.RestoreRaw(p) }

// AppendLength writes n as a width-tagged length prefix.
func (b *Blob) AppendLength(n uint64) { b.buf.AppendLength(n) }

// RestoreLength reads a width-tagged length prefix.
func (b *Blob) RestoreLength() (uint64, error) { return b.buf.RestoreLength() }

// Reset rewinds the cursor, keeping the content, so the same bytes can be
// restored again.
func (b *Blob) Reset() { b.buf.Reset() }

// Clear drops the content and rewinds the cursor.
func (b *Blob) Clear() { b.buf.Clear() }

// Offset returns the number of bytes restored so far. After restoring one
// unit from a stream of concatenated units it is that unit's encoded size.
func (b *Blob) Offset() int { return b.buf.Offset() }

// Seek moves the cursor to an absolute offset.
func (b *Blob) Seek(off int) error { return b.buf.Seek(off) }

// Len returns the encoded size.
func (b *Blob) Len() int { return b.buf.Len() }

// Remaining returns the number of bytes past the cursor.
func (b *Blob) Remaining() int { return b.buf.Remaining() }

// Empty reports whether the blob holds no bytes.
func (b *Blob) Empty() bool { return b.buf.Len() == 0 }

// Bytes returns the encoded content. The slice aliases the blob.
func (b *Blob) Bytes() []byte { return b.buf.Bytes() }
