package roomkeys

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"cryptostore/internal/domain"
	"cryptostore/internal/domain/types"
)

const (
	receivedPrefix = "room_keys/"
	withheldPrefix = "withheld/"
)

// Service records room key information in a backing store.
type Service struct {
	store domain.CryptoStore
}

// New returns a room key service backed by the given store.
func New(s domain.CryptoStore) *Service { return &Service{store: s} }

// entry builds "<prefix><room>/<session>"; both parts are escaped because
// session ids are base64 and may contain '/'.
func entry(prefix string, room domain.RoomID, sessionID string) string {
	return roomPrefix(prefix, room) + url.PathEscape(sessionID)
}

func roomPrefix(prefix string, room domain.RoomID) string {
	return prefix + url.PathEscape(room.String()) + "/"
}

func validate(op string, room domain.RoomID, sessionID string) error {
	if room == "" {
		return types.ValidationError(op, "room id is required", nil)
	}
	if sessionID == "" {
		return types.ValidationError(op, "session id is required", nil)
	}
	return nil
}

// RecordReceived stores info, replacing any earlier record for the session.
func (s *Service) RecordReceived(ctx context.Context, info domain.RoomKeyInfo) error {
	const op = "roomkeys.RecordReceived"
	if err := validate(op, info.RoomID(), info.SessionID()); err != nil {
		return err
	}
	if !info.Algorithm().Known() {
		return types.ValidationError(op, fmt.Sprintf("unknown algorithm %q", info.Algorithm()), nil)
	}
	return s.put(ctx, op, entry(receivedPrefix, info.RoomID(), info.SessionID()), info)
}

// Received returns the room keys recorded for room, ordered by session id.
func (s *Service) Received(ctx context.Context, room domain.RoomID) ([]domain.RoomKeyInfo, error) {
	var out []domain.RoomKeyInfo
	err := s.each(ctx, roomPrefix(receivedPrefix, room), func(raw []byte) error {
		var info domain.RoomKeyInfo
		if err := json.Unmarshal(raw, &info); err != nil {
			return err
		}
		out = append(out, info)
		return nil
	})
	return out, err
}

// RecordWithheld stores a withheld notice, replacing any earlier one for the
// session.
func (s *Service) RecordWithheld(ctx context.Context, info domain.RoomKeyWithheldInfo) error {
	const op = "roomkeys.RecordWithheld"
	if err := validate(op, info.RoomID(), info.SessionID()); err != nil {
		return err
	}
	if info.WithheldCode() == "" {
		return types.ValidationError(op, "withheld code is required", nil)
	}
	return s.put(ctx, op, entry(withheldPrefix, info.RoomID(), info.SessionID()), info)
}

// Withheld returns the withheld notice for one session, if any.
func (s *Service) Withheld(ctx context.Context, room domain.RoomID, sessionID string) (domain.RoomKeyWithheldInfo, bool, error) {
	var info domain.RoomKeyWithheldInfo
	raw, ok, err := s.store.Get(ctx, entry(withheldPrefix, room, sessionID))
	if err != nil || !ok {
		return info, false, err
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return info, false, types.SerializationError("roomkeys.Withheld", "decode record", err)
	}
	return info, true, nil
}

// ListWithheld returns every withheld notice recorded for room.
func (s *Service) ListWithheld(ctx context.Context, room domain.RoomID) ([]domain.RoomKeyWithheldInfo, error) {
	var out []domain.RoomKeyWithheldInfo
	err := s.each(ctx, roomPrefix(withheldPrefix, room), func(raw []byte) error {
		var info domain.RoomKeyWithheldInfo
		if err := json.Unmarshal(raw, &info); err != nil {
			return err
		}
		out = append(out, info)
		return nil
	})
	return out, err
}

func (s *Service) put(ctx context.Context, op, name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return types.SerializationError(op, "encode record", err)
	}
	return s.store.Put(ctx, name, raw)
}

// each calls fn with the value of every entry under prefix, in name order.
func (s *Service) each(ctx context.Context, prefix string, fn func(raw []byte) error) error {
	names, err := s.store.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, name := range names {
		raw, ok, err := s.store.Get(ctx, name)
		if err != nil {
			return err
		}
		if !ok {
			// deleted since List
			continue
		}
		if err := fn(raw); err != nil {
			return types.SerializationError("roomkeys", "decode "+name, err)
		}
	}
	return nil
}

// Compile-time assertion that Service implements domain.RoomKeyStore.
var _ domain.RoomKeyStore = (*Service)(nil)
