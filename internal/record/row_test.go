package record_test

import (
	"testing"
	"time"

	"github.com/ldn-softdev/jsl"
	"github.com/ldn-softdev/jsl/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRow_DigestAndVerify(t *testing.T) {
	r := record.New("a", "note", "jsl", []byte("payload"), time.Now())
	assert.True(t, r.Verify())
	assert.Equal(t, r.CreatedAt, r.UpdatedAt)
	assert.Equal(t, time.UTC, r.CreatedAt.Location())

	r.Data[0] = 'P'
	assert.False(t, r.Verify())
}

func TestRow_CloneIsDeep(t *testing.T) {
	r := record.New("a", "note", "jsl", []byte{1, 2, 3}, time.Now())
	c := r.Clone()
	c.Data[0] = 9
	assert.Equal(t, byte(1), r.Data[0])
	assert.Nil(t, (*record.Row)(nil).Clone())
}

func TestRow_SetDigest(t *testing.T) {
	r := record.New("a", "k", "jsl", []byte("x"), time.Now())
	var other record.Row
	other.SetDigest(r.Digest[:])
	assert.Equal(t, r.Digest, other.Digest)
}

func TestRow_BlobRoundTrip(t *testing.T) {
	want := record.New("id-1", "doc", "jsl", []byte("hello"), time.Date(2025, 1, 2, 3, 4, 5, 6000, time.UTC))
	b := jsl.New()
	require.NoError(t, b.Append(want))

	var got record.Row
	require.NoError(t, b.Restore(&got))
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Kind, got.Kind)
	assert.Equal(t, want.Data, got.Data)
	assert.Equal(t, want.Digest, got.Digest)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, got.Verify())
}

func TestRow_Values(t *testing.T) {
	r := record.New("a", "k", "jsl", []byte("x"), time.Now())
	assert.Len(t, r.Values(), len(record.Columns))
}
