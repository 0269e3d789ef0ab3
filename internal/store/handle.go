package store

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"cryptostore/internal/domain"
)

// Variant is the kind of backend behind a handle.
type Variant string

const (
	VariantMemory     Variant = "memory"
	VariantPersistent Variant = "persistent"
)

// Encryption is how a persistent store is protected at rest.
type Encryption string

const (
	EncryptionNone       Encryption = "none"
	EncryptionPassphrase Encryption = "passphrase"
	EncryptionKey        Encryption = "key"
)

// ErrHandleClosed is returned when a closed handle is used.
var ErrHandleClosed = errors.New("store handle closed")

// Info describes the backend behind a handle. It is fixed at open time.
type Info struct {
	ID         string
	Name       string // empty for memory stores
	Path       string // empty for memory stores
	Variant    Variant
	Encryption Encryption
	Created    bool
}

type sharedBackend struct {
	store domain.CryptoStore
	info  Info
	refs  atomic.Int64
	log   *zap.Logger
}

// StoreHandle is an open connection to a crypto store.
//
// Opening a store can take some time because of the key derivation involved,
// so when several operations target the same store it is more efficient to
// open it once and share the handle. Clone hands out additional holders of
// the same backend; the backend is closed when the last holder closes. For a
// memory store that loses every key it held.
type StoreHandle struct {
	b      *sharedBackend
	closed atomic.Bool
}

func newHandle(s domain.CryptoStore, info Info, log *zap.Logger) *StoreHandle {
	b := &sharedBackend{store: s, info: info, log: log}
	b.refs.Store(1)
	return &StoreHandle{b: b}
}

// Info returns the backend description.
func (h *StoreHandle) Info() Info { return h.b.info }

// Backend returns the shared backend. It stays usable only while at least one
// handle is open.
func (h *StoreHandle) Backend() domain.CryptoStore { return h.b.store }

// Holders returns the number of open handles sharing the backend.
func (h *StoreHandle) Holders() int64 { return h.b.refs.Load() }

// Clone returns a new handle sharing this handle's backend.
func (h *StoreHandle) Clone() (*StoreHandle, error) {
	if h.closed.Load() {
		return nil, ErrHandleClosed
	}
	h.b.refs.Add(1)
	return &StoreHandle{b: h.b}, nil
}

// Close releases this holder. The backend is closed with the last holder.
// Closing a handle twice is a no-op.
func (h *StoreHandle) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	if h.b.refs.Add(-1) > 0 {
		return nil
	}
	h.b.log.Debug("closing store",
		zap.String("store_id", h.b.info.ID),
		zap.String("variant", string(h.b.info.Variant)))
	return h.b.store.Close()
}

// Get implements domain.CryptoStore.
func (h *StoreHandle) Get(ctx context.Context, name string) ([]byte, bool, error) {
	if h.closed.Load() {
		return nil, false, ErrHandleClosed
	}
	return h.b.store.Get(ctx, name)
}

// Put implements domain.CryptoStore.
func (h *StoreHandle) Put(ctx context.Context, name string, value []byte) error {
	if h.closed.Load() {
		return ErrHandleClosed
	}
	return h.b.store.Put(ctx, name, value)
}

// Delete implements domain.CryptoStore.
func (h *StoreHandle) Delete(ctx context.Context, name string) error {
	if h.closed.Load() {
		return ErrHandleClosed
	}
	return h.b.store.Delete(ctx, name)
}

// List implements domain.CryptoStore.
func (h *StoreHandle) List(ctx context.Context, prefix string) ([]string, error) {
	if h.closed.Load() {
		return nil, ErrHandleClosed
	}
	return h.b.store.List(ctx, prefix)
}

// Compile-time assertion that StoreHandle implements domain.CryptoStore.
var _ domain.CryptoStore = (*StoreHandle)(nil)
