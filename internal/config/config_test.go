package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptostore/internal/config"
	"cryptostore/internal/crypto"
	"cryptostore/internal/domain/types"
)

func TestDefault_Valid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Finalize())
	home, err := homedir.Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".cryptostore"), cfg.Root)
	assert.False(t, cfg.AllowInsecure)
	assert.Equal(t, crypto.KDFArgon2id, cfg.KDF.Algorithm)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
root: `+dir+`/stores
allow_insecure: true
kdf:
  algorithm: scrypt
  scrypt: {n: 1024, r: 8, p: 1}
log:
  level: debug
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "stores"), cfg.Root)
	assert.True(t, cfg.AllowInsecure)
	assert.Equal(t, crypto.KDFScrypt, cfg.KDF.Algorithm)
	assert.Equal(t, 1024, cfg.KDF.Scrypt.N)
	// untouched keys keep their defaults
	assert.Equal(t, crypto.DefaultKDFParams().Argon2, cfg.KDF.Argon2)
	assert.EqualValues(t, 2, cfg.MaxConcurrentDerivations)
	assert.Equal(t, "json", cfg.Log.Format)

	sc := cfg.Store()
	assert.Equal(t, cfg.Root, sc.Root)
	assert.True(t, sc.AllowInsecure)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := config.Load(filepath.Join(dir, "missing.yaml"))
	assert.True(t, types.IsConfiguration(err), "got %v", err)

	for name, body := range map[string]string{
		"unknown key": "rot: /tmp\n",
		"bad kdf":     "kdf: {algorithm: md5}\n",
		"huge kdf":    "kdf: {algorithm: argon2id, argon2: {time: 1, memory_kib: 4294967295, threads: 1}}\n",
		"bad level":   "log: {level: loud}\n",
		"bad limit":   "max_concurrent_derivations: 0\n",
		"not yaml":    "root: [\n",
	} {
		path := filepath.Join(dir, "c.yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		_, err := config.Load(path)
		assert.True(t, types.IsConfiguration(err), "%s: got %v", name, err)
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := config.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}
