package types

import (
	"encoding/json"
	"fmt"

	"cryptostore/internal/crypto"
)

// RoomID identifies an encrypted room.
type RoomID string

// String returns the string form of the room identifier.
func (id RoomID) String() string { return string(id) }

// UserID identifies a user.
type UserID string

// String returns the string form of the user identifier.
func (id UserID) String() string { return string(id) }

// EncryptionAlgorithm names an end-to-end encryption algorithm.
type EncryptionAlgorithm string

const (
	AlgorithmOlmV1    EncryptionAlgorithm = "m.olm.v1.curve25519-aes-sha2"
	AlgorithmMegolmV1 EncryptionAlgorithm = "m.megolm.v1.aes-sha2"
	AlgorithmMegolmV2 EncryptionAlgorithm = "m.megolm.v2.aes-sha2"
)

// String returns the string form of the algorithm.
func (a EncryptionAlgorithm) String() string { return string(a) }

// Known reports whether a is one of the algorithms this package names.
func (a EncryptionAlgorithm) Known() bool {
	switch a {
	case AlgorithmOlmV1, AlgorithmMegolmV1, AlgorithmMegolmV2:
		return true
	}
	return false
}

// Curve25519PublicKey is the public identity key of a sending device.
type Curve25519PublicKey [32]byte

// ParseCurve25519PublicKey decodes an unpadded base64 Curve25519 key.
func ParseCurve25519PublicKey(s string) (Curve25519PublicKey, error) {
	var k Curve25519PublicKey
	b, err := crypto.DecodeBase64(s)
	if err != nil {
		return k, fmt.Errorf("curve25519 key: %w", err)
	}
	if len(b) != len(k) {
		return k, fmt.Errorf("curve25519 key: want %d bytes, got %d", len(k), len(b))
	}
	copy(k[:], b)
	return k, nil
}

// ToBase64 returns the key as unpadded base64.
func (k Curve25519PublicKey) ToBase64() string { return crypto.EncodeBase64(k[:]) }

// String returns the key as unpadded base64.
func (k Curve25519PublicKey) String() string { return k.ToBase64() }

// Slice returns the key as a []byte.
func (k Curve25519PublicKey) Slice() []byte { return k[:] }

// MarshalJSON encodes the key as an unpadded base64 string.
func (k Curve25519PublicKey) MarshalJSON() ([]byte, error) { return json.Marshal(k.ToBase64()) }

// UnmarshalJSON decodes an unpadded base64 string.
func (k *Curve25519PublicKey) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseCurve25519PublicKey(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// WithheldCode is the reason a room key was not shared. The vocabulary is
// open; unknown codes are carried verbatim.
type WithheldCode string

const (
	WithheldBlacklisted  WithheldCode = "m.blacklisted"
	WithheldUnverified   WithheldCode = "m.unverified"
	WithheldUnauthorised WithheldCode = "m.unauthorised"
	WithheldUnavailable  WithheldCode = "m.unavailable"
	WithheldNoOlm        WithheldCode = "m.no_olm"
)

// String returns the code as sent on the wire.
func (c WithheldCode) String() string { return string(c) }
