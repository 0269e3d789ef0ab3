package crypto

import "cryptostore/internal/util/memzero"

// Wipe zeroes the provided buffer.
func Wipe(b []byte) { memzero.Zero(b) }
