// Package crypto exposes the minimal primitives used by cryptostore.
//
// Contents
//
//   - Passphrase key derivation with argon2id or scrypt (DeriveKey, KDFParams)
//   - XChaCha20-Poly1305 sealing with a random nonce prefix (Seal, Open)
//   - HKDF subkeys and keyed BLAKE2b digests for store entry names
//     (Subkey, NameDigest)
//   - Curve25519 backup decryption keys (GenerateBackupKey, BackupPublicKey)
//   - Unpadded base64 helpers matching the key export format (EncodeBase64,
//     DecodeBase64)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//
// # Notes
//
// Functions never retain their inputs. Derived keys are returned in fresh
// slices that the caller owns and should Wipe when done.
package crypto
