package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/scrypt"
)

const (
	// KeyBytes is the size of every symmetric key handled here.
	KeyBytes = 32
	// SaltBytes is the size of KDF salts.
	SaltBytes = 16

	KDFArgon2id = "argon2id"
	KDFScrypt   = "scrypt"
)

// Upper cost bounds. Parameters are read back from store headers, so a
// corrupt header must not be able to request an unbounded allocation.
const (
	maxArgon2Time      = 64
	maxArgon2MemoryKiB = 2 << 20 // 2 GiB
	maxScryptN         = 1 << 22
	maxScryptR         = 32
	maxScryptP         = 64
	maxScryptNR        = 1 << 24 // 128*N*r bytes <= 2 GiB
)

var errBadSalt = errors.New("bad salt size")

// Argon2Params tunes argon2id.
type Argon2Params struct {
	Time      uint32 `json:"t" yaml:"time"`
	MemoryKiB uint32 `json:"m" yaml:"memory_kib"`
	Threads   uint8  `json:"p" yaml:"threads"`
}

// ScryptParams tunes scrypt.
type ScryptParams struct {
	N int `json:"n" yaml:"n"`
	R int `json:"r" yaml:"r"`
	P int `json:"p" yaml:"p"`
}

// KDFParams selects a passphrase KDF and its cost. The chosen parameters are
// recorded next to the salt so a store can be reopened after defaults change.
type KDFParams struct {
	Algorithm string       `json:"algo" yaml:"algorithm"`
	Argon2    Argon2Params `json:"argon2,omitempty" yaml:"argon2"`
	Scrypt    ScryptParams `json:"scrypt,omitempty" yaml:"scrypt"`
}

// DefaultKDFParams returns interactive-strength defaults.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Algorithm: KDFArgon2id,
		Argon2:    Argon2Params{Time: 3, MemoryKiB: 64 * 1024, Threads: 4},
		Scrypt:    ScryptParams{N: 1 << 15, R: 8, P: 1},
	}
}

// Validate reports whether p names a known KDF with usable cost parameters.
func (p KDFParams) Validate() error {
	switch p.Algorithm {
	case KDFArgon2id:
		if p.Argon2.Time == 0 || p.Argon2.MemoryKiB == 0 || p.Argon2.Threads == 0 {
			return fmt.Errorf("argon2id parameters must be positive")
		}
		if p.Argon2.Time > maxArgon2Time || p.Argon2.MemoryKiB > maxArgon2MemoryKiB {
			return fmt.Errorf("argon2id cost exceeds limits (time <= %d, memory_kib <= %d)", maxArgon2Time, maxArgon2MemoryKiB)
		}
	case KDFScrypt:
		if p.Scrypt.N <= 1 || p.Scrypt.N&(p.Scrypt.N-1) != 0 {
			return fmt.Errorf("scrypt N must be a power of two greater than 1")
		}
		if p.Scrypt.R <= 0 || p.Scrypt.P <= 0 {
			return fmt.Errorf("scrypt r and p must be positive")
		}
		if p.Scrypt.N > maxScryptN || p.Scrypt.R > maxScryptR || p.Scrypt.P > maxScryptP ||
			p.Scrypt.N*p.Scrypt.R > maxScryptNR {
			return fmt.Errorf("scrypt cost exceeds limits")
		}
	default:
		return fmt.Errorf("unknown kdf %q", p.Algorithm)
	}
	return nil
}

// DeriveKey stretches passphrase into a KeyBytes key. It does not wipe
// passphrase; the caller owns it.
func DeriveKey(passphrase, salt []byte, p KDFParams) ([]byte, error) {
	if len(salt) != SaltBytes {
		return nil, errBadSalt
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	switch p.Algorithm {
	case KDFScrypt:
		return scrypt.Key(passphrase, salt, p.Scrypt.N, p.Scrypt.R, p.Scrypt.P, KeyBytes)
	default:
		return argon2.IDKey(passphrase, salt, p.Argon2.Time, p.Argon2.MemoryKiB, p.Argon2.Threads, KeyBytes), nil
	}
}
