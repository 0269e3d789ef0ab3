package secrets

import (
	"fmt"

	"cryptostore/internal/crypto"
	"cryptostore/internal/domain/types"
	"cryptostore/internal/util/memzero"
)

// BackupAlgorithmMegolmV1 is the only backup algorithm this package can
// extract secrets for.
const BackupAlgorithmMegolmV1 = "m.megolm_backup.v1.curve25519-aes-sha2"

// CrossSigningSecrets are the private cross-signing seeds, unpadded base64.
// Empty fields are absent.
type CrossSigningSecrets struct {
	MasterKey      string
	SelfSigningKey string
	UserSigningKey string
}

// BackupSecrets is the tagged backup variant. Algorithm may name an algorithm
// this package does not know; such secrets are carried but never extracted.
type BackupSecrets struct {
	Algorithm     string
	Key           string // unpadded base64
	BackupVersion string
}

// BackupSecretsBundle is the backup part of a bundle whose algorithm is
// BackupAlgorithmMegolmV1.
type BackupSecretsBundle struct {
	Key           string // backup decryption key, unpadded base64
	BackupVersion string
}

// DecryptionKey decodes Key. The caller owns and should wipe the result.
func (b BackupSecretsBundle) DecryptionKey() ([]byte, error) {
	k, err := crypto.DecodeBase64(b.Key)
	if err != nil {
		return nil, fmt.Errorf("decode backup key: %w", err)
	}
	if len(k) != crypto.KeyBytes {
		crypto.Wipe(k)
		return nil, fmt.Errorf("backup key: expected %d bytes, got %d", crypto.KeyBytes, len(k))
	}
	return k, nil
}

// PublicKey returns the Curve25519 public half of the decryption key, as
// published in the backup's auth data.
func (b BackupSecretsBundle) PublicKey() (types.Curve25519PublicKey, error) {
	k, err := b.DecryptionKey()
	if err != nil {
		return types.Curve25519PublicKey{}, err
	}
	defer crypto.Wipe(k)
	pub, err := crypto.BackupPublicKey(k)
	if err != nil {
		return types.Curve25519PublicKey{}, err
	}
	return types.Curve25519PublicKey(pub), nil
}

type backupSecrets struct {
	algorithm string
	key       []byte
	version   []byte
}

// Bundle is the secrets bundle. The zero value is an empty bundle. A Bundle is
// not safe for concurrent use with Destroy.
type Bundle struct {
	masterKey      []byte // nil when absent
	selfSigningKey []byte
	userSigningKey []byte
	backup         *backupSecrets
}

// NewBundle copies cs and backup into a new bundle.
func NewBundle(cs CrossSigningSecrets, backup *BackupSecrets) *Bundle {
	b := &Bundle{
		masterKey:      fromString(cs.MasterKey),
		selfSigningKey: fromString(cs.SelfSigningKey),
		userSigningKey: fromString(cs.UserSigningKey),
	}
	if backup != nil {
		b.backup = &backupSecrets{
			algorithm: backup.Algorithm,
			key:       []byte(backup.Key),
			version:   []byte(backup.BackupVersion),
		}
	}
	return b
}

func fromString(s string) []byte {
	if s == "" {
		return nil
	}
	return []byte(s)
}

func toString(b []byte) (string, bool) {
	if b == nil {
		return "", false
	}
	return string(b), true
}

// MasterKey returns a copy of the master key seed.
func (b *Bundle) MasterKey() (string, bool) { return toString(b.masterKey) }

// SelfSigningKey returns a copy of the self-signing key seed.
func (b *Bundle) SelfSigningKey() (string, bool) { return toString(b.selfSigningKey) }

// UserSigningKey returns a copy of the user-signing key seed.
func (b *Bundle) UserSigningKey() (string, bool) { return toString(b.userSigningKey) }

// Backup returns the backup variant as carried, whatever its algorithm.
func (b *Bundle) Backup() (BackupSecrets, bool) {
	if b.backup == nil {
		return BackupSecrets{}, false
	}
	return BackupSecrets{
		Algorithm:     b.backup.algorithm,
		Key:           string(b.backup.key),
		BackupVersion: string(b.backup.version),
	}, true
}

// BackupBundle returns the backup secrets only when their algorithm is
// BackupAlgorithmMegolmV1. Any other algorithm reports absent.
func (b *Bundle) BackupBundle() (BackupSecretsBundle, bool) {
	if b.backup == nil || b.backup.algorithm != BackupAlgorithmMegolmV1 {
		return BackupSecretsBundle{}, false
	}
	return BackupSecretsBundle{
		Key:           string(b.backup.key),
		BackupVersion: string(b.backup.version),
	}, true
}

// Empty reports whether the bundle carries no secret at all.
func (b *Bundle) Empty() bool {
	return b.masterKey == nil && b.selfSigningKey == nil && b.userSigningKey == nil && b.backup == nil
}

// Destroy wipes every buffer the bundle holds and leaves it empty. Strings
// already returned by accessors are not affected.
func (b *Bundle) Destroy() {
	memzero.Zero(b.masterKey)
	memzero.Zero(b.selfSigningKey)
	memzero.Zero(b.userSigningKey)
	b.masterKey, b.selfSigningKey, b.userSigningKey = nil, nil, nil
	if b.backup != nil {
		memzero.Zero(b.backup.key)
		memzero.Zero(b.backup.version)
		b.backup = nil
	}
}

// String never prints key material.
func (b *Bundle) String() string {
	return fmt.Sprintf("SecretsBundle{master:%t self_signing:%t user_signing:%t backup:%t}",
		b.masterKey != nil, b.selfSigningKey != nil, b.userSigningKey != nil, b.backup != nil)
}
