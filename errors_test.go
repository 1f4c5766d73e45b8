package jsl_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ldn-softdev/jsl"
	"github.com/stretchr/testify/assert"
)

func TestErrors_Sentinel(t *testing.T) {
	errs := []error{
		jsl.ErrOutOfRange,
		jsl.ErrBadLengthWidth,
		jsl.ErrUnaccountedReference,
		jsl.ErrDuplicateReferentSlot,
		jsl.ErrMissingReferents,
		jsl.ErrReferentMismatch,
		jsl.ErrDetachedReference,
		jsl.ErrMissingDefaultState,
		jsl.ErrUnsupportedType,
		jsl.ErrNotPointer,
		jsl.ErrMaxDepth,
		jsl.ErrNotFound,
		jsl.ErrDigestMismatch,
		jsl.ErrUnknownCodec,
		jsl.ErrValueCount,
		jsl.ErrDecrypt,
		jsl.ErrL2Unavailable,
		jsl.ErrL3Unavailable,
		jsl.ErrClosed,
		jsl.ErrInvalidConfig,
	}
	for i, e := range errs {
		if e == nil {
			t.Fatalf("nil sentinel error at %d", i)
		}
		for _, other := range errs[i+1:] {
			assert.False(t, errors.Is(e, other), "%v is %v", e, other)
		}
	}
}

func TestErrors_Is(t *testing.T) {
	wrapped := fmt.Errorf("record %q: %w", "x", jsl.ErrNotFound)
	if !errors.Is(wrapped, jsl.ErrNotFound) {
		t.Fatal("expected ErrNotFound")
	}
}
