package roomkeys_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptostore/internal/domain"
	"cryptostore/internal/domain/types"
	"cryptostore/internal/services/roomkeys"
	"cryptostore/internal/store"
)

const room = domain.RoomID("!room:example.org")

func newService(t *testing.T) (*roomkeys.Service, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	t.Cleanup(func() { _ = s.Close() })
	return roomkeys.New(s), s
}

func TestReceived(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	sender := domain.Curve25519PublicKey{1, 2, 3}

	// session ids are base64 and may contain '/'
	for _, sid := range []string{"b/session+2", "a-session"} {
		info := types.NewRoomKeyInfo(types.AlgorithmMegolmV1, room, sender, sid)
		require.NoError(t, svc.RecordReceived(ctx, info))
	}
	require.NoError(t, svc.RecordReceived(ctx,
		types.NewRoomKeyInfo(types.AlgorithmMegolmV1, "!other:example.org", sender, "c")))

	got, err := svc.Received(ctx, room)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a-session", got[0].SessionID())
	assert.Equal(t, "b/session+2", got[1].SessionID())
	assert.Equal(t, sender, got[1].SenderKey())
	assert.Equal(t, room, got[1].RoomID())

	none, err := svc.Received(ctx, "!empty:example.org")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecordReceived_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	err := svc.RecordReceived(ctx, types.NewRoomKeyInfo(types.AlgorithmMegolmV1, "", domain.Curve25519PublicKey{}, "s"))
	assert.True(t, types.IsValidation(err))
	err = svc.RecordReceived(ctx, types.NewRoomKeyInfo(types.AlgorithmMegolmV1, room, domain.Curve25519PublicKey{}, ""))
	assert.True(t, types.IsValidation(err))
	err = svc.RecordReceived(ctx, types.NewRoomKeyInfo("m.unknown", room, domain.Curve25519PublicKey{}, "s"))
	assert.True(t, types.IsValidation(err))
}

func TestWithheld(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	first := types.NewRoomKeyWithheldInfo("@bob:example.org", types.AlgorithmMegolmV1, types.WithheldUnverified, room, "s1")
	second := types.NewRoomKeyWithheldInfo("@bob:example.org", types.AlgorithmMegolmV1, "org.example.custom", room, "s2")
	require.NoError(t, svc.RecordWithheld(ctx, first))
	require.NoError(t, svc.RecordWithheld(ctx, second))

	got, ok, err := svc.Withheld(ctx, room, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, got)

	_, ok, err = svc.Withheld(ctx, room, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := svc.ListWithheld(ctx, room)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, types.WithheldCode("org.example.custom"), all[1].WithheldCode())

	// a newer notice replaces the old one
	replaced := types.NewRoomKeyWithheldInfo("@bob:example.org", types.AlgorithmMegolmV1, types.WithheldBlacklisted, room, "s1")
	require.NoError(t, svc.RecordWithheld(ctx, replaced))
	got, _, err = svc.Withheld(ctx, room, "s1")
	require.NoError(t, err)
	assert.Equal(t, types.WithheldBlacklisted, got.WithheldCode())

	err = svc.RecordWithheld(ctx, types.NewRoomKeyWithheldInfo("@bob:example.org", types.AlgorithmMegolmV1, "", room, "s3"))
	assert.True(t, types.IsValidation(err))
}

func TestCorruptRecord(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "withheld/%21room:example.org/bad", []byte("{not json")))
	_, err := svc.ListWithheld(ctx, room)
	assert.True(t, types.IsSerialization(err), "got %v", err)
}
