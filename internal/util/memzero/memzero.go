package memzero

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Zero overwrites b with zeros.
func Zero(b []byte) {
	if len(b) == 0 {
		return
	}
	memguard.WipeBytes(b)
}

// IsZero reports whether every byte of b is zero.
func IsZero(b []byte) bool {
	var acc byte
	for _, c := range b {
		acc |= c
	}
	return acc == 0
}

// Guard takes ownership of a sensitive buffer and wipes it exactly once, when
// Release is called. Callers hand the buffer over at the top of a function and
// defer Release, so the wipe runs after the last read on every return path.
type Guard struct {
	mu   sync.Mutex
	b    []byte
	done bool
}

// NewGuard returns a Guard owning b. b must not be used after Release.
func NewGuard(b []byte) *Guard { return &Guard{b: b} }

// Take copies b into a Guard and wipes b at once, so the caller's buffer is
// clean before any work on the copy starts. A nil b stays absent.
func Take(b []byte) *Guard {
	if b == nil {
		return &Guard{}
	}
	own := make([]byte, len(b))
	copy(own, b)
	Zero(b)
	return &Guard{b: own}
}

// Bytes returns the guarded buffer, or nil once released.
func (g *Guard) Bytes() []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return nil
	}
	return g.b
}

// Len returns the length of the guarded buffer, or 0 once released.
func (g *Guard) Len() int { return len(g.Bytes()) }

// Present reports whether a buffer was supplied at all. A nil buffer is
// absent; an empty non-nil buffer is present.
func (g *Guard) Present() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.b != nil
}

// Release wipes the buffer. Subsequent calls are no-ops.
func (g *Guard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return
	}
	Zero(g.b)
	g.done = true
}
