package codec_test

import (
	"testing"

	"github.com/ldn-softdev/jsl/internal/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   int               `json:"id" msgpack:"id" cbor:"id"`
	Name string            `json:"name" msgpack:"name" cbor:"name"`
	Tags map[string]string `json:"tags" msgpack:"tags" cbor:"tags"`
}

func TestJSONCodec(t *testing.T) {
	c := codec.JSON{}
	orig := item{ID: 1, Name: "test"}
	b, err := c.Marshal(orig)
	require.NoError(t, err)

	var got item
	require.NoError(t, c.Unmarshal(b, &got))
	assert.Equal(t, orig, got)
	assert.Equal(t, "json", c.Name())
}

func TestMsgPackCodec(t *testing.T) {
	c := codec.MsgPack{}
	orig := item{ID: 42, Name: "pack"}
	b, err := c.Marshal(orig)
	require.NoError(t, err)

	var got item
	require.NoError(t, c.Unmarshal(b, &got))
	assert.Equal(t, orig, got)
	assert.Equal(t, "msgpack", c.Name())
}

func TestCBORCodec(t *testing.T) {
	c := codec.CBOR{}
	orig := item{ID: 7, Name: "cbor", Tags: map[string]string{"b": "2", "a": "1"}}
	b, err := c.Marshal(orig)
	require.NoError(t, err)

	var got item
	require.NoError(t, c.Unmarshal(b, &got))
	assert.Equal(t, orig, got)
	assert.Equal(t, "cbor", c.Name())
}

func TestCBORCodec_Deterministic(t *testing.T) {
	c := codec.CBOR{}
	tags := map[string]string{}
	for _, k := range []string{"z", "y", "x", "w", "v", "u"} {
		tags[k] = k
	}
	first, err := c.Marshal(item{Tags: tags})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := c.Marshal(item{Tags: tags})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "msgpack", "cbor"} {
		c, ok := codec.ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}
	_, ok := codec.ByName("xml")
	assert.False(t, ok)
}
