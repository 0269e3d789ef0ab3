// Package store selects, opens and shares the backends that hold key
// material.
//
// An Opener produces a StoreHandle backed by exactly one of:
//   - an ephemeral MemoryStore, when no store name is given, or
//   - a persistent SQLiteStore under the configured root, protected by a
//     passphrase-derived or raw 32-byte key.
//
// Persistent stores keep a random store key wrapped by the caller's
// credential; entry names and values are sealed with subkeys of it. Opening
// a passphrase store runs a deliberately slow KDF, so callers should open a
// store once and share the handle via Clone.
//
// Passphrase and key buffers handed to Open and OpenWithKey are owned by the
// opener from that point and are wiped once consumed, on success and failure.
package store
