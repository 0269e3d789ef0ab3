package store

import (
	"github.com/awnumar/memguard"

	"cryptostore/internal/crypto"
)

const (
	storeKeyAD     = "cryptostore/store-key/v1"
	entryNameInfo  = "cryptostore/entry-name/v1"
	entryValueInfo = "cryptostore/entry-value/v1"
)

// storeCipher encrypts entries of an encrypted persistent store. The name and
// value subkeys stay sealed in a memguard enclave and are only unsealed for
// the duration of one operation.
type storeCipher struct {
	keys *memguard.Enclave // nameKey || valueKey
}

// newStoreCipher derives the entry subkeys from storeKey. It does not wipe
// storeKey.
func newStoreCipher(storeKey []byte) (*storeCipher, error) {
	nameKey, err := crypto.Subkey(storeKey, entryNameInfo)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(nameKey)
	valueKey, err := crypto.Subkey(storeKey, entryValueInfo)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(valueKey)

	buf := make([]byte, 0, 2*crypto.KeyBytes)
	buf = append(buf, nameKey...)
	buf = append(buf, valueKey...)
	// NewEnclave wipes buf.
	return &storeCipher{keys: memguard.NewEnclave(buf)}, nil
}

func (c *storeCipher) withKeys(fn func(nameKey, valueKey []byte) error) error {
	lb, err := c.keys.Open()
	if err != nil {
		return err
	}
	defer lb.Destroy()
	b := lb.Bytes()
	return fn(b[:crypto.KeyBytes], b[crypto.KeyBytes:])
}

// digest maps an entry name to its row id.
func (c *storeCipher) digest(name string) (id string, err error) {
	err = c.withKeys(func(nameKey, _ []byte) error {
		id, err = crypto.NameDigest(nameKey, name)
		return err
	})
	return id, err
}

// seal returns the row id, sealed name and sealed value for one entry.
func (c *storeCipher) seal(name string, value []byte) (id string, sealedName, sealedValue []byte, err error) {
	err = c.withKeys(func(nameKey, valueKey []byte) error {
		if id, err = crypto.NameDigest(nameKey, name); err != nil {
			return err
		}
		if sealedName, err = crypto.Seal(valueKey, []byte(name), nameAD(id)); err != nil {
			return err
		}
		sealedValue, err = crypto.Seal(valueKey, value, []byte(id))
		return err
	})
	return id, sealedName, sealedValue, err
}

func (c *storeCipher) openValue(id string, sealed []byte) (value []byte, err error) {
	err = c.withKeys(func(_, valueKey []byte) error {
		value, err = crypto.Open(valueKey, sealed, []byte(id))
		return err
	})
	return value, err
}

func (c *storeCipher) openName(id string, sealed []byte) (name string, err error) {
	err = c.withKeys(func(_, valueKey []byte) error {
		b, err := crypto.Open(valueKey, sealed, nameAD(id))
		if err != nil {
			return err
		}
		name = string(b)
		return nil
	})
	return name, err
}

func nameAD(id string) []byte { return []byte("name:" + id) }

// wrapStoreKey seals the random store key under a passphrase-derived or raw
// wrapping key.
func wrapStoreKey(wrappingKey, storeKey []byte) ([]byte, error) {
	return crypto.Seal(wrappingKey, storeKey, []byte(storeKeyAD))
}

// unwrapStoreKey returns crypto.ErrDecrypt when wrappingKey is wrong.
func unwrapStoreKey(wrappingKey, wrapped []byte) ([]byte, error) {
	return crypto.Open(wrappingKey, wrapped, []byte(storeKeyAD))
}
