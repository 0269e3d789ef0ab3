package crypto

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const fingerprintBytes = 10

// Fingerprint returns a short fingerprint of a public key for reading aloud:
// the first 10 bytes of its BLAKE2b-256 digest as hex, in groups of four.
func Fingerprint(pub []byte) string {
	sum := blake2b.Sum256(pub)
	h := hex.EncodeToString(sum[:fingerprintBytes])
	groups := make([]string, 0, len(h)/4)
	for i := 0; i < len(h); i += 4 {
		groups = append(groups, h[i:i+4])
	}
	return strings.Join(groups, " ")
}
