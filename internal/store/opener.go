package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"cryptostore/internal/crypto"
	"cryptostore/internal/domain/types"
	"cryptostore/internal/util/memzero"
)

const defaultMaxConcurrentDerivations = 2

// names used verbatim as file names; anything else is hashed
var plainName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Config parameterizes an Opener.
type Config struct {
	Root                     string           // directory holding <name>.db
	KDF                      crypto.KDFParams // used when creating passphrase stores
	AllowInsecure            bool             // permit creating unencrypted stores
	MaxConcurrentDerivations int64            // bound on parallel passphrase derivations
}

// Opener selects, creates and opens crypto stores.
type Opener struct {
	cfg Config
	log *zap.Logger
	sem *semaphore.Weighted

	inflight sync.WaitGroup
}

// NewOpener validates cfg and returns an Opener. A nil log discards output.
func NewOpener(cfg Config, log *zap.Logger) (*Opener, error) {
	const op = "store.NewOpener"

	if cfg.Root == "" {
		return nil, types.ConfigurationError(op, "root directory is required")
	}
	if cfg.KDF.Algorithm == "" {
		cfg.KDF = crypto.DefaultKDFParams()
	}
	if err := cfg.KDF.Validate(); err != nil {
		return nil, types.ConfigurationError(op, err.Error())
	}
	if cfg.MaxConcurrentDerivations <= 0 {
		cfg.MaxConcurrentDerivations = defaultMaxConcurrentDerivations
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Opener{
		cfg: cfg,
		log: log.Named("store"),
		sem: semaphore.NewWeighted(cfg.MaxConcurrentDerivations),
	}, nil
}

// Path returns the database file backing the named store.
func (o *Opener) Path(name string) string {
	if plainName.MatchString(name) {
		return filepath.Join(o.cfg.Root, name+".db")
	}
	sum := sha256.Sum256([]byte(name))
	return filepath.Join(o.cfg.Root, "store-"+hex.EncodeToString(sum[:])+".db")
}

// Exists reports whether the named persistent store has been created.
func (o *Opener) Exists(name string) (bool, error) {
	return exists(o.Path(name))
}

// Open opens a crypto store.
//
// Without a name the store lives in memory only and its keys are lost when
// the last handle is closed; supplying a passphrase in that case is a
// configuration error, since it would have no effect. With a name the store is
// persisted under the opener's root; a non-nil passphrase encrypts it, a nil
// passphrase opens it with default parameters.
//
// The passphrase buffer is wiped before Open does any work, so it is clean
// on every return path. If ctx is done first, Open returns ctx.Err() while
// the open already in flight runs to completion in the background on its own
// copy; a store it opened is closed again.
func (o *Opener) Open(ctx context.Context, name string, passphrase []byte) (*StoreHandle, error) {
	const op = "store.Open"
	pass := memzero.Take(passphrase)

	if name == "" {
		pass.Release()
		if pass.Present() {
			return nil, types.ConfigurationError(op,
				"the store passphrase has been set, but it has an effect only if a store name is set; please provide one")
		}
		return o.openMemory(), nil
	}

	cred := credential{mode: EncryptionNone}
	if pass.Present() {
		cred = credential{mode: EncryptionPassphrase, secret: pass}
	}
	return o.openPersistent(ctx, name, cred)
}

// OpenWithKey opens a persistent store encrypted with key, which must be
// exactly 32 bytes. No key derivation takes place. The key buffer is wiped
// before any work starts, as with Open.
func (o *Opener) OpenWithKey(ctx context.Context, name string, key []byte) (*StoreHandle, error) {
	const op = "store.OpenWithKey"
	guard := memzero.Take(key)

	if guard.Len() != crypto.KeyBytes {
		guard.Release()
		return nil, types.ValidationError(op, fmt.Sprintf("expected a key of length %d", crypto.KeyBytes), nil)
	}
	if name == "" {
		guard.Release()
		return nil, types.ConfigurationError(op, "a store name is required to open a key-encrypted store")
	}
	return o.openPersistent(ctx, name, credential{mode: EncryptionKey, secret: guard})
}

func (o *Opener) openMemory() *StoreHandle {
	m := NewMemoryStore()
	o.log.Debug("opened memory store", zap.String("store_id", m.ID()))
	return newHandle(m, Info{ID: m.ID(), Variant: VariantMemory, Encryption: EncryptionNone, Created: true}, o.log)
}

type openResult struct {
	s   *SQLiteStore
	err error
}

func (o *Opener) openPersistent(ctx context.Context, name string, cred credential) (*StoreHandle, error) {
	path := o.Path(name)
	log := o.log.With(zap.String("store", name), zap.String("encryption", string(cred.mode)))
	log.Debug("opening store", zap.String("path", path))

	opts := sqliteOptions{
		kdf:           o.cfg.KDF,
		allowInsecure: o.cfg.AllowInsecure,
		derive:        o.derive,
	}
	done := make(chan openResult, 1)
	o.inflight.Add(1)
	go func() {
		defer o.inflight.Done()
		s, err := openSQLite(path, cred, opts)
		done <- openResult{s: s, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			log.Debug("open failed", zap.Error(r.err))
			return nil, r.err
		}
		log.Info("store opened",
			zap.String("store_id", r.s.ID()),
			zap.Bool("created", r.s.Created()),
			zap.String("at_rest", string(r.s.Encryption())))
		info := Info{
			ID:         r.s.ID(),
			Name:       name,
			Path:       path,
			Variant:    VariantPersistent,
			Encryption: r.s.Encryption(),
			Created:    r.s.Created(),
		}
		return newHandle(r.s, info, o.log), nil

	case <-ctx.Done():
		log.Debug("caller gave up waiting for open", zap.Error(ctx.Err()))
		o.inflight.Add(1)
		go func() {
			defer o.inflight.Done()
			if r := <-done; r.s != nil {
				_ = r.s.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// Wait blocks until every open abandoned through its context has finished
// and any store it opened has been closed again.
func (o *Opener) Wait() { o.inflight.Wait() }

// derive runs one passphrase derivation, bounded by the opener's semaphore.
func (o *Opener) derive(passphrase, salt []byte, p crypto.KDFParams) ([]byte, error) {
	// not cancellable: an open that started deriving runs to completion
	if err := o.sem.Acquire(context.Background(), 1); err != nil {
		return nil, err
	}
	defer o.sem.Release(1)
	return crypto.DeriveKey(passphrase, salt, p)
}
