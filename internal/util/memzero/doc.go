// Package memzero wipes sensitive buffers.
//
// Zero clears a slice in place. Guard wraps a passphrase or raw key handed to
// a single consuming call and guarantees it is cleared once that call has
// returned, whichever way it returned.
package memzero
