package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"cryptostore/internal/crypto"
	"cryptostore/internal/domain"
	"cryptostore/internal/domain/types"
	"cryptostore/internal/util/memzero"
)

const (
	sqliteDriver = "sqlite"

	// applied to every pooled connection
	sqlitePragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	metaCipher  = "cipher"
	metaStoreID = "store_id"

	// The current supported version of the cipher header stored in meta.
	cipherFormatVersion = 1

	// kdfRaw marks a store whose wrapping key is supplied directly.
	kdfRaw = "raw"
)

// cipherHeader is the meta row describing how the store key is protected.
type cipherHeader struct {
	V          int               `json:"v"`
	Mode       Encryption        `json:"mode"`
	KDF        *crypto.KDFParams `json:"kdf,omitempty"`
	Salt       []byte            `json:"salt,omitempty"`
	WrappedKey []byte            `json:"wrapped_key,omitempty"`
}

// credential is the secret a persistent store is opened with. secret is nil
// for EncryptionNone; it is an owned copy, released when the open finishes.
type credential struct {
	mode   Encryption
	secret *memzero.Guard
}

func (c credential) release() {
	if c.secret != nil {
		c.secret.Release()
	}
}

// deriveFunc stretches a passphrase; the opener supplies one that bounds
// concurrent derivations.
type deriveFunc func(passphrase, salt []byte, p crypto.KDFParams) ([]byte, error)

type sqliteOptions struct {
	kdf           crypto.KDFParams
	allowInsecure bool
	derive        deriveFunc
}

// SQLiteStore is the persistent backend. Entry names and values are encrypted
// unless the store was created without encryption.
type SQLiteStore struct {
	db         *sql.DB
	id         string
	path       string
	encryption Encryption
	created    bool
	cipher     *storeCipher // nil when unencrypted

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// ID returns the identifier generated when the store was created.
func (s *SQLiteStore) ID() string { return s.id }

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.path }

// Encryption returns how the store is protected at rest.
func (s *SQLiteStore) Encryption() Encryption { return s.encryption }

// Created reports whether this open created the store.
func (s *SQLiteStore) Created() bool { return s.created }

func errInsecureCreate(op string) error {
	return types.ConfigurationError(op,
		"refusing to create an unencrypted store; provide a passphrase or key, or enable allow_insecure")
}

// errStoreExists reports that another opener published the store first.
var errStoreExists = errors.New("store already exists")

// openSQLite opens or creates the store at path. cred is always released
// before returning. A store file at path is never removed here: new stores
// are built in a private temp file and published with an atomic link, so a
// racing opener either publishes its own store or opens the winner's.
func openSQLite(path string, cred credential, opts sqliteOptions) (*SQLiteStore, error) {
	const op = "store.Open"
	defer cred.release()

	existed, err := exists(path)
	if err != nil {
		return nil, types.StoreOpenError(op, types.ReasonUnavailable, err)
	}
	if !existed {
		if cred.mode == EncryptionNone && !opts.allowInsecure {
			return nil, errInsecureCreate(op)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, types.StoreOpenError(op, types.ReasonUnavailable, fmt.Errorf("create data directory: %w", err))
		}
		s, err := createSQLite(path, cred, opts)
		if !errors.Is(err, errStoreExists) {
			return s, err
		}
	}
	return openExistingSQLite(path, cred, opts)
}

// createSQLite builds a fresh store next to path and links it into place.
// It returns errStoreExists when path appeared in the meantime.
func createSQLite(path string, cred credential, opts sqliteOptions) (*SQLiteStore, error) {
	const op = "store.Open"

	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	defer removeDBFiles(tmp)

	hdr, storeKey, err := newHeader(cred, opts)
	if err != nil {
		return nil, types.StoreOpenError(op, types.ReasonUnavailable, err)
	}
	defer crypto.Wipe(storeKey)
	id := uuid.NewString()

	// rollback journal, so the closed temp file is self-contained
	db, err := sql.Open(sqliteDriver, tmp+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, types.StoreOpenError(op, types.ReasonUnavailable, err)
	}
	err = initSchema(db)
	if err == nil {
		_, err = writeHeader(db, hdr, id)
	}
	if cerr := db.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, types.StoreOpenError(op, types.ReasonUnavailable, err)
	}

	if err := os.Link(tmp, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, errStoreExists
		}
		return nil, types.StoreOpenError(op, types.ReasonUnavailable, fmt.Errorf("publish store: %w", err))
	}

	db, err = sql.Open(sqliteDriver, path+sqlitePragmas)
	if err != nil {
		return nil, types.StoreOpenError(op, types.ReasonUnavailable, err)
	}
	s, err := newSQLiteStore(db, path, id, hdr.Mode, storeKey)
	if err != nil {
		db.Close()
		return nil, types.StoreOpenError(op, types.ReasonUnavailable, err)
	}
	s.created = true
	return s, nil
}

// openExistingSQLite unlocks the store at path. A database without a cipher
// header is initialized in place; the first header committed wins and every
// other opener unlocks it.
func openExistingSQLite(path string, cred credential, opts sqliteOptions) (_ *SQLiteStore, err error) {
	const op = "store.Open"

	db, err := sql.Open(sqliteDriver, path+sqlitePragmas)
	if err != nil {
		return nil, types.StoreOpenError(op, types.ReasonUnavailable, err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	if err = initSchema(db); err != nil {
		return nil, types.StoreOpenError(op, types.ReasonCorrupted, err)
	}
	hdr, found, err := readHeader(db)
	if err != nil {
		return nil, types.StoreOpenError(op, types.ReasonCorrupted, err)
	}

	created := false
	var storeKey []byte
	if !found {
		if cred.mode == EncryptionNone && !opts.allowInsecure {
			return nil, errInsecureCreate(op)
		}
		var fresh cipherHeader
		if fresh, storeKey, err = newHeader(cred, opts); err != nil {
			return nil, types.StoreOpenError(op, types.ReasonUnavailable, err)
		}
		if created, err = writeHeader(db, fresh, uuid.NewString()); err != nil {
			crypto.Wipe(storeKey)
			return nil, types.StoreOpenError(op, types.ReasonUnavailable, err)
		}
		if created {
			hdr = fresh
		} else {
			crypto.Wipe(storeKey)
			storeKey = nil
			if hdr, _, err = readHeader(db); err != nil {
				return nil, types.StoreOpenError(op, types.ReasonCorrupted, err)
			}
		}
	}
	if !created {
		if storeKey, err = unlock(hdr, cred, opts); err != nil {
			return nil, err
		}
	}
	defer crypto.Wipe(storeKey)

	id, err := readMeta(db, metaStoreID)
	if err != nil {
		return nil, types.StoreOpenError(op, types.ReasonCorrupted, err)
	}
	s, err := newSQLiteStore(db, path, id, hdr.Mode, storeKey)
	if err != nil {
		return nil, types.StoreOpenError(op, types.ReasonUnavailable, err)
	}
	s.created = created
	return s, nil
}

func newSQLiteStore(db *sql.DB, path, id string, mode Encryption, storeKey []byte) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db, path: path, id: id, encryption: mode}
	if mode != EncryptionNone {
		c, err := newStoreCipher(storeKey)
		if err != nil {
			return nil, err
		}
		s.cipher = c
	}
	return s, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS entries (
			id    TEXT PRIMARY KEY,
			name  BLOB NOT NULL,
			value BLOB NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func readMeta(db *sql.DB, key string) (string, error) {
	var v []byte
	if err := db.QueryRow("SELECT v FROM meta WHERE k = ?", key).Scan(&v); err != nil {
		return "", fmt.Errorf("read meta %s: %w", key, err)
	}
	return string(v), nil
}

func readHeader(db *sql.DB) (cipherHeader, bool, error) {
	var hdr cipherHeader
	var raw []byte
	err := db.QueryRow("SELECT v FROM meta WHERE k = ?", metaCipher).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return hdr, false, nil
	}
	if err != nil {
		return hdr, false, err
	}
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return hdr, false, fmt.Errorf("decode cipher header: %w", err)
	}
	if hdr.V > cipherFormatVersion {
		return hdr, false, fmt.Errorf("unsupported store version %d", hdr.V)
	}
	switch hdr.Mode {
	case EncryptionNone:
	case EncryptionPassphrase, EncryptionKey:
		if hdr.KDF == nil || len(hdr.WrappedKey) == 0 {
			return hdr, false, errors.New("cipher header is missing key material")
		}
		if hdr.Mode == EncryptionPassphrase {
			if err := hdr.KDF.Validate(); err != nil {
				return hdr, false, fmt.Errorf("cipher header: %w", err)
			}
			if len(hdr.Salt) != crypto.SaltBytes {
				return hdr, false, errors.New("cipher header: bad salt size")
			}
		}
	default:
		return hdr, false, fmt.Errorf("unknown encryption mode %q", hdr.Mode)
	}
	return hdr, true, nil
}

// writeHeader records the cipher header and store id unless a header is
// already present. It reports whether this call wrote them.
func writeHeader(db *sql.DB, hdr cipherHeader, storeID string) (bool, error) {
	raw, err := json.Marshal(hdr)
	if err != nil {
		return false, err
	}
	tx, err := db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.Exec("INSERT OR IGNORE INTO meta (k, v) VALUES (?, ?)", metaCipher, raw)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false, err
	}
	if _, err := tx.Exec("INSERT OR REPLACE INTO meta (k, v) VALUES (?, ?)", metaStoreID, []byte(storeID)); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// wrappingKey turns the credential into the key protecting the store key. The
// credential stays usable; openSQLite releases it.
func wrappingKey(cred credential, kdf crypto.KDFParams, salt []byte, derive deriveFunc) ([]byte, error) {
	switch cred.mode {
	case EncryptionPassphrase:
		return derive(cred.secret.Bytes(), salt, kdf)
	case EncryptionKey:
		return append([]byte(nil), cred.secret.Bytes()...), nil
	}
	return nil, fmt.Errorf("no wrapping key for mode %q", cred.mode)
}

// newHeader creates the cipher header and store key for a fresh store.
func newHeader(cred credential, opts sqliteOptions) (cipherHeader, []byte, error) {
	hdr := cipherHeader{V: cipherFormatVersion, Mode: cred.mode}
	if cred.mode == EncryptionNone {
		return hdr, nil, nil
	}

	storeKey, err := crypto.RandomBytes(crypto.KeyBytes)
	if err != nil {
		return hdr, nil, err
	}
	kdf := crypto.KDFParams{Algorithm: kdfRaw}
	if cred.mode == EncryptionPassphrase {
		kdf = opts.kdf
		if hdr.Salt, err = crypto.RandomBytes(crypto.SaltBytes); err != nil {
			crypto.Wipe(storeKey)
			return hdr, nil, err
		}
	}
	hdr.KDF = &kdf

	wk, err := wrappingKey(cred, kdf, hdr.Salt, opts.derive)
	if err != nil {
		crypto.Wipe(storeKey)
		return hdr, nil, err
	}
	defer crypto.Wipe(wk)

	if hdr.WrappedKey, err = wrapStoreKey(wk, storeKey); err != nil {
		crypto.Wipe(storeKey)
		return hdr, nil, err
	}
	return hdr, storeKey, nil
}

// unlock recovers the store key of an existing store.
func unlock(hdr cipherHeader, cred credential, opts sqliteOptions) ([]byte, error) {
	const op = "store.Open"

	if hdr.Mode != cred.mode {
		var msg string
		switch {
		case hdr.Mode == EncryptionNone:
			msg = "store is not encrypted"
		case cred.mode == EncryptionNone:
			msg = "store is encrypted; a passphrase or key is required"
		default:
			msg = fmt.Sprintf("store is encrypted with a %s, not a %s", hdr.Mode, cred.mode)
		}
		return nil, &types.Error{Kind: types.KindStoreOpen, Reason: types.ReasonWrongCredentials, Op: op, Msg: msg}
	}
	if hdr.Mode == EncryptionNone {
		return nil, nil
	}
	if hdr.Mode == EncryptionKey && hdr.KDF.Algorithm != kdfRaw {
		return nil, types.StoreOpenError(op, types.ReasonCorrupted, fmt.Errorf("unexpected kdf %q for key store", hdr.KDF.Algorithm))
	}

	wk, err := wrappingKey(cred, *hdr.KDF, hdr.Salt, opts.derive)
	if err != nil {
		return nil, types.StoreOpenError(op, types.ReasonCorrupted, err)
	}
	defer crypto.Wipe(wk)

	storeKey, err := unwrapStoreKey(wk, hdr.WrappedKey)
	if errors.Is(err, crypto.ErrDecrypt) {
		return nil, types.StoreOpenError(op, types.ReasonWrongCredentials, errors.New("could not unlock store key"))
	}
	if err != nil {
		return nil, types.StoreOpenError(op, types.ReasonCorrupted, err)
	}
	return storeKey, nil
}

func (s *SQLiteStore) rowID(name string) (string, error) {
	if s.cipher == nil {
		return name, nil
	}
	return s.cipher.digest(name)
}

// Get returns the decrypted value stored under name.
func (s *SQLiteStore) Get(ctx context.Context, name string) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrClosed
	}
	id, err := s.rowID(name)
	if err != nil {
		return nil, false, err
	}
	var value []byte
	err = s.db.QueryRowContext(ctx, "SELECT value FROM entries WHERE id = ?", id).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", name, err)
	}
	if s.cipher == nil {
		return value, true, nil
	}
	defer crypto.Wipe(value)
	pt, err := s.cipher.openValue(id, value)
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", name, err)
	}
	return pt, true, nil
}

// Put stores value under name, replacing any previous value.
func (s *SQLiteStore) Put(ctx context.Context, name string, value []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	id, sealedName, sealedValue := name, []byte(name), value
	if s.cipher != nil {
		var err error
		if id, sealedName, sealedValue, err = s.cipher.seal(name, value); err != nil {
			return fmt.Errorf("put %s: %w", name, err)
		}
	}
	if sealedValue == nil {
		sealedValue = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (id, name, value) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, value = excluded.value`,
		id, sealedName, sealedValue)
	if err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	return nil
}

// Delete removes name. Deleting a missing name is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	id, err := s.rowID(name)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// List returns the sorted names starting with prefix. Encrypted stores
// decrypt every name, so List is linear in the number of entries.
func (s *SQLiteStore) List(ctx context.Context, prefix string) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM entries")
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		var sealedName []byte
		if err := rows.Scan(&id, &sealedName); err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		name := string(sealedName)
		if s.cipher != nil {
			if name, err = s.cipher.openName(id, sealedName); err != nil {
				return nil, fmt.Errorf("list: %w", err)
			}
		}
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	sort.Strings(out)
	return out, nil
}

// Close closes the database. It is safe to call more than once.
func (s *SQLiteStore) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// Compile-time assertion that SQLiteStore implements domain.CryptoStore.
var _ domain.CryptoStore = (*SQLiteStore)(nil)
