package crypto

import (
	"encoding/base64"
	"strings"
)

// EncodeBase64 returns unpadded standard base64, the encoding used for
// exported key seeds.
func EncodeBase64(b []byte) string { return base64.RawStdEncoding.EncodeToString(b) }

// DecodeBase64 accepts padded or unpadded standard base64.
func DecodeBase64(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
