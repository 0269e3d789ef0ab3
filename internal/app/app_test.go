package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptostore/internal/app"
	"cryptostore/internal/domain/types"
	"cryptostore/internal/store"
	"cryptostore/internal/util/memzero"
)

func newWire(t *testing.T) *app.Wire {
	t.Helper()
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
kdf:
  algorithm: argon2id
  argon2: {time: 1, memory_kib: 64, threads: 1}
log:
  level: error
`), 0o600))

	w, err := app.NewWire(app.Config{ConfigFile: cfgFile, Root: filepath.Join(dir, "stores")})
	require.NoError(t, err)
	t.Cleanup(w.Close)
	return w
}

func TestWire_Overrides(t *testing.T) {
	w := newWire(t)
	assert.Equal(t, "error", w.Settings.Log.Level)
	assert.Equal(t, "stores", filepath.Base(w.Settings.Root))
	assert.False(t, w.Settings.AllowInsecure)
}

func TestWire_OpenPassphraseStore(t *testing.T) {
	w := newWire(t)
	ctx := context.Background()

	pass := []byte("correct horse")
	a, err := w.Open(ctx, "alice-device", app.Credentials{Passphrase: pass})
	require.NoError(t, err)
	assert.True(t, memzero.IsZero(pass))
	assert.Equal(t, store.VariantPersistent, a.Store.Info().Variant)
	require.NotNil(t, a.RoomKeys)
	require.NoError(t, a.Close())

	_, err = w.Open(ctx, "alice-device", app.Credentials{Passphrase: []byte("wrong horse")})
	assert.True(t, types.IsStoreOpen(err), "got %v", err)
}

func TestWire_OpenMemoryStore(t *testing.T) {
	w := newWire(t)
	a, err := w.Open(context.Background(), "", app.Credentials{})
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, store.VariantMemory, a.Store.Info().Variant)
}

func TestWire_BothCredentials(t *testing.T) {
	w := newWire(t)
	pass := []byte("correct horse")
	key := make([]byte, 32)
	key[0] = 1

	_, err := w.Open(context.Background(), "alice-device", app.Credentials{Passphrase: pass, Key: key})
	assert.True(t, types.IsConfiguration(err), "got %v", err)
	assert.True(t, memzero.IsZero(pass))
	assert.True(t, memzero.IsZero(key))
}
