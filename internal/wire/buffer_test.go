package wire_test

import (
	"math"
	"testing"

	"github.com/ldn-softdev/jsl/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_AppendRestoreRaw(t *testing.T) {
	var b wire.Buffer
	b.AppendRaw([]byte("hello"))
	b.AppendRaw([]byte(" world"))
	assert.Equal(t, 11, b.Len())

	got := make([]byte, 5)
	require.NoError(t, b.RestoreRaw(got))
	assert.Equal(t, "hello", string(got))
	assert.Equal(t, 5, b.Offset())
	assert.Equal(t, 6, b.Remaining())
	assert.Equal(t, " world", string(b.Unread()))
}

func TestBuffer_RestoreRaw_OutOfRange(t *testing.T) {
	b := wire.NewBuffer([]byte{1, 2, 3})
	got := make([]byte, 4)
	err := b.RestoreRaw(got)
	require.ErrorIs(t, err, wire.ErrOutOfRange)
	assert.Equal(t, 0, b.Offset(), "cursor must not move on failure")

	_, err = b.Next(-1)
	assert.ErrorIs(t, err, wire.ErrOutOfRange)
}

func TestBuffer_ResetKeepsContent(t *testing.T) {
	b := wire.NewBuffer([]byte{7, 8})
	c, err := b.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(7), c)

	b.Reset()
	assert.Equal(t, 0, b.Offset())
	assert.Equal(t, 2, b.Len())

	b.Clear()
	assert.Equal(t, 0, b.Len())
	_, err = b.ReadByte()
	assert.ErrorIs(t, err, wire.ErrOutOfRange)
}

func TestBuffer_TruncateClampsCursor(t *testing.T) {
	b := wire.NewBuffer([]byte{1, 2, 3, 4})
	_, err := b.Next(4)
	require.NoError(t, err)
	b.Truncate(2)
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, 2, b.Offset())

	require.NoError(t, b.Seek(1))
	assert.Equal(t, []byte{2}, b.Unread())
	assert.ErrorIs(t, b.Seek(3), wire.ErrOutOfRange)
}

func TestScalars_RoundTrip(t *testing.T) {
	var b wire.Buffer
	b.PutBool(true)
	b.PutUint16(0xBEEF)
	b.PutUint32(0xDEADBEEF)
	b.PutUint64(math.MaxUint64 - 1)
	b.PutFloat32(3.25)
	b.PutFloat64(-1e300)
	assert.Equal(t, 1+2+4+8+4+8, b.Len())

	v, err := b.Bool()
	require.NoError(t, err)
	assert.True(t, v)
	u16, err := b.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), u16)
	u32, err := b.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u32)
	u64, err := b.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64-1), u64)
	f32, err := b.Float32()
	require.NoError(t, err)
	assert.Equal(t, float32(3.25), f32)
	f64, err := b.Float64()
	require.NoError(t, err)
	assert.Equal(t, -1e300, f64)

	_, err = b.Uint16()
	assert.ErrorIs(t, err, wire.ErrOutOfRange)
}
