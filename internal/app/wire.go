package app

import (
	"context"

	"go.uber.org/zap"

	"cryptostore/internal/config"
	"cryptostore/internal/domain/types"
	"cryptostore/internal/logger"
	"cryptostore/internal/store"
	"cryptostore/internal/util/memzero"
)

// Wire bundles the settings, logger and store opener for the CLI.
type Wire struct {
	Settings config.Config
	Log      *zap.Logger
	Opener   *store.Opener
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(settings.Log)
	if err != nil {
		return nil, types.ConfigurationError("app.NewWire", err.Error())
	}
	opener, err := store.NewOpener(settings.Store(), log)
	if err != nil {
		return nil, err
	}
	return &Wire{Settings: settings, Log: log, Opener: opener}, nil
}

// Credentials select how a named store is unlocked. At most one of
// Passphrase and Key may be set; both nil means a default open.
type Credentials struct {
	Passphrase []byte
	Key        []byte
}

// Release wipes both buffers.
func (c Credentials) Release() {
	memzero.Zero(c.Passphrase)
	memzero.Zero(c.Key)
}

// Open opens the named store, or a memory store when name is empty, and
// returns it with its services. The credential buffers are always wiped.
func (w *Wire) Open(ctx context.Context, name string, cred Credentials) (*App, error) {
	var (
		h   *store.StoreHandle
		err error
	)
	switch {
	case cred.Passphrase != nil && cred.Key != nil:
		cred.Release()
		return nil, types.ConfigurationError("app.Open", "use either a passphrase or a key, not both")
	case cred.Key != nil:
		h, err = w.Opener.OpenWithKey(ctx, name, cred.Key)
	default:
		h, err = w.Opener.Open(ctx, name, cred.Passphrase)
	}
	if err != nil {
		return nil, err
	}
	return newApp(h), nil
}

// Close waits for abandoned opens and flushes the logger.
func (w *Wire) Close() {
	w.Opener.Wait()
	_ = w.Log.Sync()
}
