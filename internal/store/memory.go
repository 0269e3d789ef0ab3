package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"cryptostore/internal/crypto"
	"cryptostore/internal/domain"
)

// ErrClosed is returned by a backend after Close.
var ErrClosed = errors.New("store closed")

// MemoryStore keeps entries in process memory only. Everything it holds is
// wiped and lost on Close.
type MemoryStore struct {
	id string

	mu      sync.RWMutex
	entries map[string][]byte
	closed  bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{id: uuid.NewString(), entries: make(map[string][]byte)}
}

// ID returns the random instance identifier of this store.
func (s *MemoryStore) ID() string { return s.id }

// Get returns a copy of the value stored under name.
func (s *MemoryStore) Get(_ context.Context, name string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, ErrClosed
	}
	v, ok := s.entries[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Put stores a copy of value under name, wiping any previous value.
func (s *MemoryStore) Put(_ context.Context, name string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if old, ok := s.entries[name]; ok {
		crypto.Wipe(old)
	}
	s.entries[name] = append([]byte(nil), value...)
	return nil
}

// Delete removes name. Deleting a missing name is not an error.
func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if old, ok := s.entries[name]; ok {
		crypto.Wipe(old)
		delete(s.entries, name)
	}
	return nil
}

// List returns the sorted names starting with prefix.
func (s *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	out := make([]string, 0, len(s.entries))
	for name := range s.entries {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Close wipes every value. The store cannot be used afterwards.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	for name, v := range s.entries {
		crypto.Wipe(v)
		delete(s.entries, name)
	}
	s.closed = true
	return nil
}

// Compile-time assertion that MemoryStore implements domain.CryptoStore.
var _ domain.CryptoStore = (*MemoryStore)(nil)
