package store_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptostore/internal/store"
)

func TestSecretFile_ReadWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.json")

	b, err := store.ReadSecretFile(path)
	require.NoError(t, err)
	assert.Nil(t, b)

	require.NoError(t, store.WriteSecretFile(path, []byte("first")))
	require.NoError(t, os.Chmod(path, 0o644))
	require.NoError(t, store.WriteSecretFile(path, []byte("second")))

	b, err = store.ReadSecretFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))

	// replaced, so the loose mode of the old file is gone
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReadSecretFile_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.json")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), store.MaxSecretFileBytes+1), 0o600))

	_, err := store.ReadSecretFile(path)
	assert.Error(t, err)
}

func TestWriteSecretFile_MissingDir(t *testing.T) {
	err := store.WriteSecretFile(filepath.Join(t.TempDir(), "nope", "bundle.json"), []byte("x"))
	assert.Error(t, err)
}
