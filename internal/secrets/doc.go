// Package secrets holds the bundle of secrets needed to activate a new device
// for end-to-end encryption: the cross-signing seeds and, optionally, the
// backup decryption key with the backup version it belongs to.
//
// A Bundle is short-lived. It is assembled from a store (Export) or decoded
// from its transport form (FromTransport), handed on, and then destroyed.
// Bundle fields live in byte buffers that Destroy wipes; accessors return
// independent string copies, which Destroy cannot reach, so call them as
// rarely as possible.
package secrets
