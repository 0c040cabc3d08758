// File: internal/infra/security/encryption_service.go
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrCiphertextTooShort is returned when a payload cannot contain a nonce.
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// EncryptionService seals snapshot payloads at rest with AES-GCM and a random
// nonce per message. Sealed output is base64(nonce || ciphertext).
type EncryptionService struct {
	gcm cipher.AEAD
}

// NewEncryptionService constructs an AES-GCM service. Key must be 16, 24 or 32 bytes.
func NewEncryptionService(key string) (*EncryptionService, error) {
	k := []byte(key)
	switch len(k) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("encryption key must be 16, 24, or 32 bytes; got %d", len(k))
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &EncryptionService{gcm: gcm}, nil
}

// Seal encrypts raw bytes; aad binds the ciphertext to a record (may be nil).
func (e *EncryptionService) Seal(plain, aad []byte) (string, error) {
	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}
	ct := e.gcm.Seal(nonce, nonce, plain, aad)
	return base64.StdEncoding.EncodeToString(ct), nil
}

// Open reverses Seal. The same aad must be supplied.
func (e *EncryptionService) Open(sealed string, aad []byte) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	ns := e.gcm.NonceSize()
	if len(data) < ns {
		return nil, ErrCiphertextTooShort
	}
	pt, err := e.gcm.Open(nil, data[:ns], data[ns:], aad)
	if err != nil {
		return nil, fmt.Errorf("gcm open: %w", err)
	}
	return pt, nil
}

func (e *EncryptionService) Encrypt(plaintext string) (string, error) {
	return e.Seal([]byte(plaintext), nil)
}

func (e *EncryptionService) Decrypt(b64 string) (string, error) {
	pt, err := e.Open(b64, nil)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}
