// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// errors.go — sentinel error variables returned by the jsl codec and the
// record store, covering stream corruption, reference resolution, and tier
// availability.

// Package jsl is a binary serialization engine for graph-shaped Go values.
// A Blob accumulates the flat encoding of scalars, arrays, slices, maps,
// strings, user composites and the references between them, and restores
// an equivalent structure from those bytes. Store keeps encoded blobs in a
// tiered record store (memory, Redis, PostgreSQL or SQLite).
package jsl

import (
	"errors"

	"github.com/ldn-softdev/jsl/internal/wire"
)

// Stream errors
var (
	ErrOutOfRange     = wire.ErrOutOfRange
	ErrBadLengthWidth = wire.ErrBadLengthWidth
)

// Reference errors
var (
	ErrUnaccountedReference  = errors.New("jsl: reference target was not minded")
	ErrDuplicateReferentSlot = errors.New("jsl: reference slot restored twice")
	ErrMissingReferents      = errors.New("jsl: reference uid has no rebuilt target")
	ErrReferentMismatch      = errors.New("jsl: rebuilt target does not fit reference slot")
	ErrDetachedReference     = errors.New("jsl: non-nil reference under an accessor")
)

// Type errors
var (
	ErrMissingDefaultState = errors.New("jsl: destination cannot be default constructed")
	ErrUnsupportedType     = errors.New("jsl: unsupported type")
	ErrNotPointer          = errors.New("jsl: destination must be a non-nil pointer")
	ErrMaxDepth            = errors.New("jsl: maximum nesting depth exceeded")
)

// Data errors
var (
	ErrNotFound       = errors.New("jsl: record not found")
	ErrDigestMismatch = errors.New("jsl: stored payload digest mismatch")
	ErrUnknownCodec   = errors.New("jsl: unknown payload codec")
	ErrValueCount     = errors.New("jsl: codec takes exactly one value")
	ErrDecrypt        = errors.New("jsl: payload decryption failed")
)

// Infrastructure errors
var (
	ErrL2Unavailable = errors.New("jsl: L2 Redis unavailable")
	ErrL3Unavailable = errors.New("jsl: L3 database unavailable")
	ErrClosed        = errors.New("jsl: store closed")
)

// Config errors
var (
	ErrInvalidConfig = errors.New("jsl: invalid configuration")
)
