package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"
)

// Subkey derives an independent KeyBytes key from master for the given
// purpose label.
func Subkey(master []byte, info string) ([]byte, error) {
	out := make([]byte, KeyBytes)
	r := hkdf.New(sha256.New, master, nil, []byte(info))
	if _, err := io.ReadFull(r, out); err != nil {
		Wipe(out)
		return nil, err
	}
	return out, nil
}

// NameDigest returns the hex keyed BLAKE2b-256 digest of name. Equal names
// under the same key map to the same digest, so the digest can serve as a
// lookup key without revealing the name.
func NameDigest(macKey []byte, name string) (string, error) {
	h, err := blake2b.New256(macKey)
	if err != nil {
		return "", err
	}
	h.Write([]byte(name))
	return hex.EncodeToString(h.Sum(nil)), nil
}
