package jsl_test

import (
	"testing"

	"github.com/ldn-softdev/jsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestAES256GCM_RoundTrip(t *testing.T) {
	enc, err := jsl.NewAES256GCM(testKey())
	require.NoError(t, err)

	plain := []byte("Hello, jsl!")
	cipher, err := enc.Encrypt(plain)
	require.NoError(t, err)
	assert.NotEqual(t, plain, cipher)

	decrypted, err := enc.Decrypt(cipher)
	require.NoError(t, err)
	assert.Equal(t, plain, decrypted)
}

func TestAES256GCM_FreshNonce(t *testing.T) {
	enc, err := jsl.NewAES256GCM(testKey())
	require.NoError(t, err)
	a, err := enc.Encrypt([]byte("same"))
	require.NoError(t, err)
	b, err := enc.Encrypt([]byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestAES256GCM_InvalidKeyLength(t *testing.T) {
	_, err := jsl.NewAES256GCM([]byte("short"))
	assert.Error(t, err)
}

func TestAES256GCM_TamperDetection(t *testing.T) {
	enc, _ := jsl.NewAES256GCM(make([]byte, 32))
	cipher, _ := enc.Encrypt([]byte("secret"))
	// Tamper
	cipher[len(cipher)-1] ^= 0xFF
	_, err := enc.Decrypt(cipher)
	assert.ErrorIs(t, err, jsl.ErrDecrypt)

	_, err = enc.Decrypt([]byte{1, 2})
	assert.ErrorIs(t, err, jsl.ErrDecrypt)
}
