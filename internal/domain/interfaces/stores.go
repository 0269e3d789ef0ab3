package interfaces

import (
	"context"

	domaintypes "cryptostore/internal/domain/types"
)

// CryptoStore is the generic key-value credential store the crypto core
// persists into. Names are opaque slash-separated paths such as
// "cross_signing/master". Get returns ok=false for a missing name.
// Implementations must be safe for concurrent use.
type CryptoStore interface {
	Get(ctx context.Context, name string) (value []byte, ok bool, err error)
	Put(ctx context.Context, name string, value []byte) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// RoomKeyStore keeps the informational room key records.
type RoomKeyStore interface {
	RecordReceived(ctx context.Context, info domaintypes.RoomKeyInfo) error
	Received(ctx context.Context, room domaintypes.RoomID) ([]domaintypes.RoomKeyInfo, error)
	RecordWithheld(ctx context.Context, info domaintypes.RoomKeyWithheldInfo) error
	Withheld(ctx context.Context, room domaintypes.RoomID, sessionID string) (domaintypes.RoomKeyWithheldInfo, bool, error)
	ListWithheld(ctx context.Context, room domaintypes.RoomID) ([]domaintypes.RoomKeyWithheldInfo, error)
}
