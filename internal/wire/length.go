package wire

// Length prefix: one width tag byte w in 0..3 followed by the count in
// 1<<w bytes. The tag is the smallest that covers the value.

// LengthWidth returns the width tag AppendLength uses for n.
func LengthWidth(n uint64) uint8 {
	switch {
	case n < 1<<8:
		return 0
	case n < 1<<16:
		return 1
	case n < 1<<32:
		return 2
	default:
		return 3
	}
}

// AppendLength appends n as a length prefix.
func (b *Buffer) AppendLength(n uint64) {
	w := LengthWidth(n)
	b.AppendByte(w)
	switch w {
	case 0:
		b.AppendByte(uint8(n))
	case 1:
		b.PutUint16(uint16(n))
	case 2:
		b.PutUint32(uint32(n))
	default:
		b.PutUint64(n)
	}
}

// RestoreLength reads a length prefix. On failure the cursor is left where
// it was.
func (b *Buffer) RestoreLength() (uint64, error) {
	start := b.off
	n, err := b.restoreLength()
	if err != nil {
		b.off = start
	}
	return n, err
}

func (b *Buffer) restoreLength() (uint64, error) {
	w, err := b.ReadByte()
	if err != nil {
		return 0, err
	}
	switch w {
	case 0:
		c, err := b.ReadByte()
		return uint64(c), err
	case 1:
		v, err := b.Uint16()
		return uint64(v), err
	case 2:
		v, err := b.Uint32()
		return uint64(v), err
	case 3:
		return b.Uint64()
	default:
		return 0, ErrBadLengthWidth
	}
}

// LengthSize returns the encoded size of n's length prefix in bytes.
func LengthSize(n uint64) int {
	return 1 + 1<<LengthWidth(n)
}
