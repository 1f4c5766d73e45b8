package wire

import (
	"encoding/binary"
	"math"
)

// Scalars are written as their in-memory representation: fixed width,
// native byte order. Streams are only portable between machines that agree
// on both.

// PutUint16 appends v in native byte order.
func (b *Buffer) PutUint16(v uint16) { b.data = binary.NativeEndian.AppendUint16(b.data, v) }

// PutUint32 appends v in native byte order.
func (b *Buffer) PutUint32(v uint32) { b.data = binary.NativeEndian.AppendUint32(b.data, v) }

// PutUint64 appends v in native byte order.
func (b *Buffer) PutUint64(v uint64) { b.data = binary.NativeEndian.AppendUint64(b.data, v) }

// PutFloat32 appends the IEEE-754 bits of v.
func (b *Buffer) PutFloat32(v float32) { b.PutUint32(math.Float32bits(v)) }

// PutFloat64 appends the IEEE-754 bits of v.
func (b *Buffer) PutFloat64(v float64) { b.PutUint64(math.Float64bits(v)) }

// PutBool appends 1 for true, 0 for false.
func (b *Buffer) PutBool(v bool) {
	if v {
		b.AppendByte(1)
		return
	}
	b.AppendByte(0)
}

// Uint16 reads a native-order uint16.
func (b *Buffer) Uint16() (uint16, error) {
	p, err := b.Next(2)
	if err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint16(p), nil
}

// Uint32 reads a native-order uint32.
func (b *Buffer) Uint32() (uint32, error) {
	p, err := b.Next(4)
	if err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint32(p), nil
}

// Uint64 reads a native-order uint64.
func (b *Buffer) Uint64() (uint64, error) {
	p, err := b.Next(8)
	if err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint64(p), nil
}

// Float32 reads an IEEE-754 float32.
func (b *Buffer) Float32() (float32, error) {
	u, err := b.Uint32()
	return math.Float32frombits(u), err
}

// Float64 reads an IEEE-754 float64.
func (b *Buffer) Float64() (float64, error) {
	u, err := b.Uint64()
	return math.Float64frombits(u), err
}

// Bool reads one byte; any non-zero value is true.
func (b *Buffer) Bool() (bool, error) {
	c, err := b.ReadByte()
	return c != 0, err
}
