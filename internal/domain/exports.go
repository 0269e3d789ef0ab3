package domain

import (
	interfaces "cryptostore/internal/domain/interfaces"
	types "cryptostore/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	RoomID                = types.RoomID
	UserID                = types.UserID
	EncryptionAlgorithm   = types.EncryptionAlgorithm
	Curve25519PublicKey   = types.Curve25519PublicKey
	WithheldCode          = types.WithheldCode
	RoomKeyInfo           = types.RoomKeyInfo
	RoomKeyWithheldInfo   = types.RoomKeyWithheldInfo
	CrossSigningKeyExport = types.CrossSigningKeyExport
	Error                 = types.Error
	ErrorKind             = types.ErrorKind
	OpenFailure           = types.OpenFailure
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	CryptoStore  = interfaces.CryptoStore
	RoomKeyStore = interfaces.RoomKeyStore
)
