// Package commands defines the cryptostore CLI.
//
// Commands
//
//   - init            Create a persistent store
//   - export-secrets  Write the secrets bundle of a store as JSON
//   - import-secrets  Import a secrets bundle into a store
//   - inspect         Summarize what a store holds, never printing secrets
//   - withheld        List or record withheld room key notices
//   - backup-key      Generate and store a new backup decryption key
//
// # Credentials
//
// A store is selected with --store. It is unlocked with --passphrase (or the
// CRYPTOSTORE_PASSPHRASE environment variable) or with --key-file, a file
// holding a hex-encoded 32-byte key. Without --store commands run against a
// throwaway memory store.
//
// # Exit codes
//
// 2 configuration error, 3 validation error, 4 store open error,
// 5 serialization error, 1 anything else.
package commands
