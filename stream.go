// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// stream.go — moving blobs to and from files and other byte streams. The
// format carries no header, so a stream holding several units can only be
// split by restoring them one after another.

package jsl

import (
	"fmt"
	"io"
	"os"
	"slices"
)

// WriteTo writes the whole content of the blob to w, with no framing.
func (b *Blob) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.buf.Bytes())
	return int64(n), err
}

// ReadFrom appends everything r yields until EOF. The boundary of a single
// unit is not recorded in the stream, so all of it is taken.
func (b *Blob) ReadFrom(r io.Reader) (int64, error) {
	p, err := io.ReadAll(r)
	b.buf.AppendRaw(p)
	return int64(len(p)), err
}

// ReadBlob reads r to EOF into a new Blob.
func ReadBlob(r io.Reader, opts ...Option) (*Blob, error) {
	b := New(opts...)
	if _, err := b.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("jsl: read blob: %w", err)
	}
	return b, nil
}

// ReadFile loads the file at path into a new Blob.
func ReadFile(path string, opts ...Option) (*Blob, error) {
	p, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jsl: read %s: %w", path, err)
	}
	return FromBytes(p, opts...), nil
}

// WriteFile writes the blob's content to path.
func (b *Blob) WriteFile(path string) error {
	if err := os.WriteFile(path, b.buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("jsl: write %s: %w", path, err)
	}
	return nil
}

// Rest returns the bytes past the cursor as a new Blob positioned at its
// start. After restoring one unit of a concatenated stream, Rest frames the
// units that follow.
func (b *Blob) Rest() *Blob {
	return FromBytes(slices.Clone(b.buf.Unread()), WithLogger(b.logger), WithMaxDepth(b.maxDepth))
}
