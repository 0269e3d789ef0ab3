package types_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptostore/internal/domain/types"
)

func TestRoomKeyInfo_JSON(t *testing.T) {
	var sender types.Curve25519PublicKey
	sender[0] = 9
	info := types.NewRoomKeyInfo(types.AlgorithmMegolmV1, "!room:example.org", sender, "session1")

	b, err := json.Marshal(info)
	require.NoError(t, err)
	assert.JSONEq(t, `{"algorithm":"m.megolm.v1.aes-sha2","room_id":"!room:example.org",`+
		`"sender_key":"`+sender.ToBase64()+`","session_id":"session1"}`, string(b))

	var got types.RoomKeyInfo
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, info, got)
	assert.Equal(t, types.RoomID("!room:example.org"), got.RoomID())
	assert.Equal(t, sender, got.SenderKey())
}

func TestRoomKeyWithheldInfo_Accessors(t *testing.T) {
	info := types.NewRoomKeyWithheldInfo("@bob:example.org", types.AlgorithmMegolmV1,
		types.WithheldUnverified, "!room:example.org", "session1")

	assert.Equal(t, types.UserID("@bob:example.org"), info.Sender())
	assert.Equal(t, types.WithheldCode("m.unverified"), info.WithheldCode())
	assert.Equal(t, "session1", info.SessionID())

	b, err := json.Marshal(info)
	require.NoError(t, err)
	var got types.RoomKeyWithheldInfo
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, info, got)
}

func TestCurve25519PublicKey_Parse(t *testing.T) {
	_, err := types.ParseCurve25519PublicKey("c2hvcnQ")
	assert.Error(t, err)

	var k types.Curve25519PublicKey
	k[31] = 1
	got, err := types.ParseCurve25519PublicKey(k.ToBase64())
	require.NoError(t, err)
	assert.Equal(t, k, got)
}

func TestCrossSigningKeyExport(t *testing.T) {
	e := types.NewCrossSigningKeyExport("MASTER", "", "USER")
	m, ok := e.MasterKey()
	assert.True(t, ok)
	assert.Equal(t, "MASTER", m)
	_, ok = e.SelfSigningKey()
	assert.False(t, ok)
	assert.False(t, e.Empty())
	assert.True(t, types.NewCrossSigningKeyExport("", "", "").Empty())
}
