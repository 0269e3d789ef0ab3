package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cryptostore/internal/util/memzero"
)

// MaxSecretFileBytes bounds what ReadSecretFile accepts. Secrets bundles are
// a few hundred bytes.
const MaxSecretFileBytes = 1 << 20

// ReadSecretFile reads a secrets file; a missing file yields (nil, nil).
// Files larger than MaxSecretFileBytes are rejected.
func ReadSecretFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b, err := io.ReadAll(io.LimitReader(f, MaxSecretFileBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) > MaxSecretFileBytes {
		memzero.Zero(b)
		return nil, fmt.Errorf("%s: larger than %d bytes", path, MaxSecretFileBytes)
	}
	return b, nil
}

// WriteSecretFile writes b with owner-only permissions. The data goes to a
// temp file in the same directory, is synced, and then renamed over path, so
// readers see either the old file or the complete new one.
func WriteSecretFile(path string, b []byte) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	err = f.Chmod(0o600)
	if err == nil {
		_, err = f.Write(b)
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// exists reports whether path exists. Errors other than "not found" are
// returned so callers can tell an unreachable store from a missing one.
func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// removeDBFiles deletes a SQLite database and its WAL side files.
func removeDBFiles(path string) {
	for _, p := range []string{path, path + "-wal", path + "-shm", path + "-journal"} {
		_ = os.Remove(p)
	}
}
