package secrets

import (
	"context"
	"errors"
	"fmt"

	"cryptostore/internal/domain"
	"cryptostore/internal/domain/types"
	"cryptostore/internal/util/memzero"
)

// Well-known store entries holding the secrets.
const (
	EntryMasterKey      = "cross_signing/master"
	EntrySelfSigningKey = "cross_signing/self_signing"
	EntryUserSigningKey = "cross_signing/user_signing"
	EntryBackupKey      = "backup/decryption_key"
	EntryBackupVersion  = "backup/version"
)

// ErrMissingCrossSigningKey is returned by Export when the store holds no
// master cross-signing key; a bundle without it cannot activate a device.
var ErrMissingCrossSigningKey = errors.New("secrets: no master cross-signing key in store")

// Export assembles a bundle from the secrets held in s. The backup part is
// included only when both the decryption key and its version are stored.
func Export(ctx context.Context, s domain.CryptoStore) (_ *Bundle, err error) {
	b := &Bundle{}
	defer func() {
		if err != nil {
			b.Destroy()
		}
	}()

	for _, f := range []struct {
		name string
		dst  *[]byte
	}{
		{EntryMasterKey, &b.masterKey},
		{EntrySelfSigningKey, &b.selfSigningKey},
		{EntryUserSigningKey, &b.userSigningKey},
	} {
		if *f.dst, err = read(ctx, s, f.name); err != nil {
			return nil, err
		}
	}
	if b.masterKey == nil {
		return nil, ErrMissingCrossSigningKey
	}

	key, err := read(ctx, s, EntryBackupKey)
	if err != nil {
		return nil, err
	}
	version, err := read(ctx, s, EntryBackupVersion)
	if err != nil {
		memzero.Zero(key)
		return nil, err
	}
	if key == nil || version == nil {
		memzero.Zero(key)
		memzero.Zero(version)
		return b, nil
	}
	b.backup = &backupSecrets{algorithm: BackupAlgorithmMegolmV1, key: key, version: version}
	return b, nil
}

// Import writes the secrets carried by b into s. Absent fields leave the
// store untouched, and backup secrets of an unrecognized algorithm are skipped.
// It reports whether backup secrets were written.
func Import(ctx context.Context, s domain.CryptoStore, b *Bundle) (backup bool, err error) {
	for _, f := range []struct {
		name  string
		value []byte
	}{
		{EntryMasterKey, b.masterKey},
		{EntrySelfSigningKey, b.selfSigningKey},
		{EntryUserSigningKey, b.userSigningKey},
	} {
		if f.value == nil {
			continue
		}
		if err := s.Put(ctx, f.name, f.value); err != nil {
			return false, fmt.Errorf("import %s: %w", f.name, err)
		}
	}

	if b.backup == nil || b.backup.algorithm != BackupAlgorithmMegolmV1 {
		return false, nil
	}
	if err := s.Put(ctx, EntryBackupKey, b.backup.key); err != nil {
		return false, fmt.Errorf("import %s: %w", EntryBackupKey, err)
	}
	if err := s.Put(ctx, EntryBackupVersion, b.backup.version); err != nil {
		return false, fmt.Errorf("import %s: %w", EntryBackupVersion, err)
	}
	return true, nil
}

// ExportCrossSigningKeys returns the cross-signing seeds held in s, or nil
// when none is stored.
func ExportCrossSigningKeys(ctx context.Context, s domain.CryptoStore) (*types.CrossSigningKeyExport, error) {
	var seeds [3]string
	for i, name := range []string{EntryMasterKey, EntrySelfSigningKey, EntryUserSigningKey} {
		v, err := read(ctx, s, name)
		if err != nil {
			return nil, err
		}
		seeds[i] = string(v)
		memzero.Zero(v)
	}
	export := types.NewCrossSigningKeyExport(seeds[0], seeds[1], seeds[2])
	if export.Empty() {
		return nil, nil
	}
	return &export, nil
}

// StoreBackupKey records a backup decryption key, unpadded base64, and the
// backup version it belongs to.
func StoreBackupKey(ctx context.Context, s domain.CryptoStore, b BackupSecretsBundle) error {
	if b.Key == "" || b.BackupVersion == "" {
		return types.ValidationError("secrets.StoreBackupKey", "backup key and version are required", nil)
	}
	if err := s.Put(ctx, EntryBackupKey, []byte(b.Key)); err != nil {
		return fmt.Errorf("store %s: %w", EntryBackupKey, err)
	}
	if err := s.Put(ctx, EntryBackupVersion, []byte(b.BackupVersion)); err != nil {
		return fmt.Errorf("store %s: %w", EntryBackupVersion, err)
	}
	return nil
}

// read returns nil for a missing entry.
func read(ctx context.Context, s domain.CryptoStore, name string) ([]byte, error) {
	v, ok, err := s.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if !ok {
		return nil, nil
	}
	if v == nil {
		v = []byte{}
	}
	return v, nil
}
