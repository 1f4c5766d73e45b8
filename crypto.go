// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// crypto.go — AES-256-GCM payload encryption, and the seal/open steps that
// wrap every record payload on its way into and out of the tiers.

package jsl

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"github.com/ldn-softdev/jsl/internal/record"
)

// sealedSuffix marks the codec column of an encrypted payload.
const sealedSuffix = "+aes256gcm"

// Encryptor encrypts and decrypts record payloads.
type Encryptor interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// AES256GCM implements AES-256-GCM authenticated encryption.
type AES256GCM struct {
	aead cipher.AEAD
}

// NewAES256GCM creates an AES-256-GCM encryptor from a 32-byte key.
func NewAES256GCM(key []byte) (*AES256GCM, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("jsl: encryption key must be exactly 32 bytes (got %d)", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AES256GCM{aead: aead}, nil
}

// Encrypt encrypts plaintext using AES-256-GCM with a random nonce.
// Output: nonce (12 bytes) || ciphertext.
func (e *AES256GCM) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize(), e.aead.NonceSize()+len(plaintext)+e.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return e.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt decrypts ciphertext produced by Encrypt.
func (e *AES256GCM) Decrypt(ciphertext []byte) ([]byte, error) {
	nsize := e.aead.NonceSize()
	if len(ciphertext) < nsize {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}
	p, err := e.aead.Open(nil, ciphertext[:nsize], ciphertext[nsize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return p, nil
}

// seal encrypts row in place when a key is configured. The digest keeps
// describing the plaintext.
func (s *Store) seal(row *record.Row) (*record.Row, error) {
	if s.encryptor == nil {
		return row, nil
	}
	ct, err := s.encryptor.Encrypt(row.Data)
	if err != nil {
		return nil, err
	}
	row.Data = ct
	row.Codec += sealedSuffix
	return row, nil
}

// open returns a copy of row with a plaintext payload whose digest checks.
func (s *Store) open(row *record.Row) (*record.Row, error) {
	row = row.Clone()
	if name, ok := strings.CutSuffix(row.Codec, sealedSuffix); ok {
		if s.encryptor == nil {
			return nil, fmt.Errorf("%w: record %q is encrypted and no key is configured", ErrDecrypt, row.ID)
		}
		p, err := s.encryptor.Decrypt(row.Data)
		if err != nil {
			return nil, fmt.Errorf("record %q: %w", row.ID, err)
		}
		row.Data, row.Codec = p, name
	}
	if !row.Verify() {
		return nil, fmt.Errorf("%w: %q", ErrDigestMismatch, row.ID)
	}
	return row, nil
}
