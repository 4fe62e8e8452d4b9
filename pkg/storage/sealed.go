package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrSealed is returned by a sealed store's Get when a value cannot be
// decrypted, either because it was tampered with or written under another
// secret.
var ErrSealed = errors.New("storage: value cannot be unsealed")

// sealedDisk encrypts every value with AES-256-GCM before it reaches the
// wrapped driver. Stored form: base64url(nonce || ciphertext || tag).
type sealedDisk struct {
	Store
	gcm cipher.AEAD
}

// Sealed wraps st so values are encrypted at rest. The AES key is the
// SHA-256 of secret. Keys are stored in the clear.
func Sealed(st Store, secret string) (Store, error) {
	if secret == "" {
		return nil, errors.New("storage/sealed: empty secret")
	}
	k := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(k[:])
	if err != nil {
		return nil, fmt.Errorf("storage/sealed: cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("storage/sealed: gcm: %w", err)
	}
	return &sealedDisk{Store: st, gcm: gcm}, nil
}

func (s *sealedDisk) Put(key string, value []byte) error {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("storage/sealed: nonce: %w", err)
	}
	// The key is bound as additional data so values cannot be swapped
	// between keys.
	sealed := s.gcm.Seal(nonce, nonce, value, []byte(key))
	out := make([]byte, base64.URLEncoding.EncodedLen(len(sealed)))
	base64.URLEncoding.Encode(out, sealed)
	return s.Store.Put(key, out)
}

func (s *sealedDisk) Get(key string) ([]byte, error) {
	raw, err := s.Store.Get(key)
	if err != nil {
		return nil, err
	}
	data := make([]byte, base64.URLEncoding.DecodedLen(len(raw)))
	n, err := base64.URLEncoding.Decode(data, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrSealed, key)
	}
	data = data[:n]

	ns := s.gcm.NonceSize()
	if len(data) < ns {
		return nil, fmt.Errorf("%w: %q", ErrSealed, key)
	}
	plain, err := s.gcm.Open(nil, data[:ns], data[ns:], []byte(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrSealed, key)
	}
	return plain, nil
}
