package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/draftbench/draftbench/pkg/ports"
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionStore struct {
	next   ports.DurableStore
	config EncryptionConfig
}

// NewEncryption creates a middleware that encrypts stored values with
// AES-GCM. Keys, listing, and deletion pass through untouched.
func NewEncryption(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.DurableStore) ports.DurableStore {
		return &encryptionStore{next: next, config: config}
	}
}

func (s *encryptionStore) Set(ctx context.Context, key string, value []byte) error {
	ciphertext, err := encrypt(value, s.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt value: %w", err)
	}
	return s.next.Set(ctx, key, ciphertext)
}

func (s *encryptionStore) Get(ctx context.Context, key string) ([]byte, error) {
	ciphertext, err := s.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	plain, err := decryptWithRotation(ciphertext, s.config.ActiveKey, s.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt value: %w", err)
	}
	return plain, nil
}

func (s *encryptionStore) Delete(ctx context.Context, key string) error {
	return s.next.Delete(ctx, key)
}

func (s *encryptionStore) Keys(ctx context.Context) ([]string, error) {
	return s.next.Keys(ctx)
}

func (s *encryptionStore) Clear(ctx context.Context) error {
	return s.next.Clear(ctx)
}

func (s *encryptionStore) Available() bool {
	return s.next.Available()
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	// Try active key first
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	// Try fallbacks in order
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
