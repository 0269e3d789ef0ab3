package crypto

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// NonceBytes is the XChaCha20-Poly1305 nonce size prefixed to sealed data.
const NonceBytes = chacha20poly1305.NonceSizeX

// ErrDecrypt is returned when sealed data fails authentication: wrong key,
// wrong associated data or tampering.
var ErrDecrypt = errors.New("decryption failed")

// RandomBytes returns n bytes from crypto/rand.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Seal encrypts plaintext under key and returns nonce || ciphertext.
func Seal(key, plaintext, ad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce, err := RandomBytes(NonceBytes)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, ad), nil
}

// Open reverses Seal.
func Open(key, sealed, ad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < NonceBytes+aead.Overhead() {
		return nil, ErrDecrypt
	}
	pt, err := aead.Open(nil, sealed[:NonceBytes], sealed[NonceBytes:], ad)
	if err != nil {
		return nil, ErrDecrypt
	}
	return pt, nil
}
