// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// buffer.go — append-only byte sink with a read cursor over the same bytes;
// the unit every encode and decode session operates on.

// Package wire provides the byte-level primitives of the jsl stream format:
// the growable buffer with its read cursor, fixed-width scalars in native
// byte order, and the width-tagged length prefix.
package wire

import "errors"

var (
	// ErrOutOfRange is returned when a read would pass the end of the buffer.
	ErrOutOfRange = errors.New("jsl: read past end of buffer")
	// ErrBadLengthWidth is returned for a length prefix whose width tag is not 0..3.
	ErrBadLengthWidth = errors.New("jsl: invalid length prefix width tag")
)

// Buffer is a growable byte buffer with a read cursor. Writes always go to
// the end; reads consume from the cursor. The zero value is ready to use.
type Buffer struct {
	data []byte
	off  int
}

// NewBuffer returns a Buffer reading from b. The buffer takes ownership of b.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{data: b}
}

// AppendRaw copies p verbatim to the end of the buffer.
func (b *Buffer) AppendRaw(p []byte) {
	b.data = append(b.data, p...)
}

// AppendByte appends a single byte.
func (b *Buffer) AppendByte(c byte) {
	b.data = append(b.data, c)
}

// RestoreRaw copies the next len(p) bytes into p and advances the cursor.
// The cursor does not move when fewer than len(p) bytes remain.
func (b *Buffer) RestoreRaw(p []byte) error {
	src, err := b.Next(len(p))
	if err != nil {
		return err
	}
	copy(p, src)
	return nil
}

// Next returns a view of the next n bytes and advances the cursor. The view
// aliases the buffer and is only valid until the next write.
func (b *Buffer) Next(n int) ([]byte, error) {
	if n < 0 || n > len(b.data)-b.off {
		return nil, ErrOutOfRange
	}
	p := b.data[b.off : b.off+n : b.off+n]
	b.off += n
	return p, nil
}

// ReadByte consumes one byte.
func (b *Buffer) ReadByte() (byte, error) {
	if b.off >= len(b.data) {
		return 0, ErrOutOfRange
	}
	c := b.data[b.off]
	b.off++
	return c, nil
}

// Reset rewinds the cursor to the start, keeping the content.
func (b *Buffer) Reset() { b.off = 0 }

// Clear drops the content and rewinds the cursor.
func (b *Buffer) Clear() {
	b.data = b.data[:0]
	b.off = 0
}

// Truncate drops everything past the first n bytes. The cursor is clamped
// to the new length.
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > len(b.data) {
		return
	}
	b.data = b.data[:n]
	if b.off > n {
		b.off = n
	}
}

// Seek moves the cursor to an absolute offset.
func (b *Buffer) Seek(off int) error {
	if off < 0 || off > len(b.data) {
		return ErrOutOfRange
	}
	b.off = off
	return nil
}

// Offset returns the number of bytes consumed so far.
func (b *Buffer) Offset() int { return b.off }

// Len returns the total number of bytes in the buffer.
func (b *Buffer) Len() int { return len(b.data) }

// Remaining returns the number of unread bytes.
func (b *Buffer) Remaining() int { return len(b.data) - b.off }

// Bytes returns the whole content, read or not.
func (b *Buffer) Bytes() []byte { return b.data }

// Unread returns the bytes past the cursor.
func (b *Buffer) Unread() []byte { return b.data[b.off:] }
