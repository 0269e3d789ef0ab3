package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

// GenerateBackupKey returns a fresh clamped Curve25519 private key suitable
// as a key backup decryption key.
func GenerateBackupKey() ([]byte, error) {
	priv := make([]byte, curve25519.ScalarSize)
	if _, err := rand.Read(priv); err != nil {
		return nil, err
	}
	clamp(priv)
	return priv, nil
}

// BackupPublicKey derives the Curve25519 public key for a backup decryption
// key.
func BackupPublicKey(priv []byte) ([32]byte, error) {
	var out [32]byte
	if len(priv) != curve25519.ScalarSize {
		return out, fmt.Errorf("backup key: want %d bytes, got %d", curve25519.ScalarSize, len(priv))
	}
	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return out, err
	}
	copy(out[:], pub)
	return out, nil
}

func clamp(k []byte) {
	k[0] &= 248
	k[31] &= 127
	k[31] |= 64
}
