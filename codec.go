package jsl

import (
	"github.com/ldn-softdev/jsl/internal/codec"
)

// Codec is the record payload codec interface used by Store.
type Codec = codec.Codec

// BlobCodec adapts the Blob encoding to Codec. Marshal takes a value or a
// pointer; Unmarshal needs a pointer.
type BlobCodec struct {
	Options []Option
}

// Marshal encodes v into a fresh Blob and returns its bytes.
func (c BlobCodec) Marshal(v any) ([]byte, error) {
	b := New(c.Options...)
	if err := b.Append(v); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Unmarshal restores v from data.
func (c BlobCodec) Unmarshal(data []byte, v any) error {
	return FromBytes(data, c.Options...).Restore(v)
}

// Name returns "jsl".
func (BlobCodec) Name() string { return "jsl" }

var _ Codec = BlobCodec{}
