package secrets_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptostore/internal/crypto"
	"cryptostore/internal/domain/types"
	"cryptostore/internal/secrets"
)

type observed struct {
	master, self, user          string
	hasMaster, hasSelf, hasUser bool
	backup                      secrets.BackupSecrets
	hasBackup                   bool
}

func observe(b *secrets.Bundle) observed {
	var o observed
	o.master, o.hasMaster = b.MasterKey()
	o.self, o.hasSelf = b.SelfSigningKey()
	o.user, o.hasUser = b.UserSigningKey()
	o.backup, o.hasBackup = b.Backup()
	return o
}

func TestBundle_RoundTripAllCombinations(t *testing.T) {
	backups := []*secrets.BackupSecrets{
		nil,
		{Algorithm: secrets.BackupAlgorithmMegolmV1, Key: "BACKUPKEY", BackupVersion: "v3"},
	}
	for mask := 0; mask < 8; mask++ {
		cs := secrets.CrossSigningSecrets{}
		if mask&1 != 0 {
			cs.MasterKey = "MASTERSEED"
		}
		if mask&2 != 0 {
			cs.SelfSigningKey = "SELFSEED"
		}
		if mask&4 != 0 {
			cs.UserSigningKey = "USERSEED"
		}
		for i, backup := range backups {
			t.Run(fmt.Sprintf("cs=%03b/backup=%d", mask, i), func(t *testing.T) {
				b := secrets.NewBundle(cs, backup)

				v, err := b.ToTransport()
				require.NoError(t, err)
				got, err := secrets.FromTransport(v)
				require.NoError(t, err)
				assert.Equal(t, observe(b), observe(got))

				raw, err := json.Marshal(b)
				require.NoError(t, err)
				var decoded secrets.Bundle
				require.NoError(t, json.Unmarshal(raw, &decoded))
				assert.Equal(t, observe(b), observe(&decoded))
			})
		}
	}
}

func TestBundle_MasterSeedScenario(t *testing.T) {
	b := secrets.NewBundle(
		secrets.CrossSigningSecrets{MasterKey: "MASTERSEED"},
		&secrets.BackupSecrets{Algorithm: secrets.BackupAlgorithmMegolmV1, Key: "BACKUPKEY", BackupVersion: "v3"},
	)
	v, err := b.ToTransport()
	require.NoError(t, err)
	got, err := secrets.FromTransport(v)
	require.NoError(t, err)

	master, ok := got.MasterKey()
	assert.True(t, ok)
	assert.Equal(t, "MASTERSEED", master)
	_, ok = got.SelfSigningKey()
	assert.False(t, ok)
	_, ok = got.UserSigningKey()
	assert.False(t, ok)

	bb, ok := got.BackupBundle()
	require.True(t, ok)
	assert.Equal(t, "v3", bb.BackupVersion)
	assert.Equal(t, "BACKUPKEY", bb.Key)
}

func TestBundle_UnknownBackupTag(t *testing.T) {
	v := secrets.TransportValue{
		"cross_signing": map[string]any{"master_key": "MASTERSEED"},
		"backup": map[string]any{
			"type":           "m.megolm_backup.v2.something-new",
			"key":            "BACKUPKEY",
			"backup_version": "v4",
		},
	}
	_, err := secrets.FromTransport(v)
	require.Error(t, err)
	assert.True(t, types.IsSerialization(err), "got %v", err)

	// built locally, the variant is carried but never extracted
	b := secrets.NewBundle(secrets.CrossSigningSecrets{MasterKey: "MASTERSEED"},
		&secrets.BackupSecrets{Algorithm: "m.megolm_backup.v2.something-new", Key: "BACKUPKEY", BackupVersion: "v4"})
	_, ok := b.BackupBundle()
	assert.False(t, ok)
	raw, ok := b.Backup()
	require.True(t, ok)
	assert.Equal(t, "m.megolm_backup.v2.something-new", raw.Algorithm)

	out, err := b.ToTransport()
	require.NoError(t, err)
	assert.Equal(t, "m.megolm_backup.v2.something-new", out["backup"].(map[string]any)["type"])
}

func TestFromTransport_Malformed(t *testing.T) {
	cases := map[string]secrets.TransportValue{
		"nil":                nil,
		"missing cross sign": {},
		"cross sign not obj": {"cross_signing": "MASTERSEED"},
		"unknown top field":  {"cross_signing": map[string]any{}, "extra": 1},
		"unknown seed field": {"cross_signing": map[string]any{"root_key": "x"}},
		"seed not string":    {"cross_signing": map[string]any{"master_key": 42}},
		"backup not object":  {"cross_signing": map[string]any{}, "backup": "BACKUPKEY"},
		"backup without tag": {"cross_signing": map[string]any{}, "backup": map[string]any{"key": "K", "backup_version": "1"}},
		"backup tag not str": {"cross_signing": map[string]any{}, "backup": map[string]any{"type": 1}},
		"unknown backup tag": {"cross_signing": map[string]any{}, "backup": map[string]any{
			"type": "org.example.future", "key": "K", "backup_version": "1",
		}},
		"known tag no key": {"cross_signing": map[string]any{}, "backup": map[string]any{
			"type": secrets.BackupAlgorithmMegolmV1, "backup_version": "1",
		}},
		"known tag extra field": {"cross_signing": map[string]any{}, "backup": map[string]any{
			"type": secrets.BackupAlgorithmMegolmV1, "key": "K", "backup_version": "1", "mac": "x",
		}},
	}
	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := secrets.FromTransport(v)
			require.Error(t, err)
			assert.True(t, types.IsSerialization(err), "got %v", err)
		})
	}
}

func TestFromTransport_AcceptsStringMaps(t *testing.T) {
	b, err := secrets.FromTransport(secrets.TransportValue{
		"cross_signing": map[string]string{"self_signing_key": "SELFSEED"},
		"backup":        nil,
	})
	require.NoError(t, err)
	s, ok := b.SelfSigningKey()
	assert.True(t, ok)
	assert.Equal(t, "SELFSEED", s)
	_, ok = b.Backup()
	assert.False(t, ok)
}

func TestUnmarshalJSON_Invalid(t *testing.T) {
	var b secrets.Bundle
	err := json.Unmarshal([]byte(`{"cross_signing": [1, 2]}`), &b)
	assert.True(t, types.IsSerialization(err), "got %v", err)

	err = b.UnmarshalJSON([]byte(`not json`))
	assert.True(t, types.IsSerialization(err), "got %v", err)
}

func TestBundle_Destroy(t *testing.T) {
	b := secrets.NewBundle(
		secrets.CrossSigningSecrets{MasterKey: "MASTERSEED", UserSigningKey: "USERSEED"},
		&secrets.BackupSecrets{Algorithm: secrets.BackupAlgorithmMegolmV1, Key: "BACKUPKEY", BackupVersion: "v3"},
	)
	master, _ := b.MasterKey()
	assert.False(t, b.Empty())

	b.Destroy()
	assert.True(t, b.Empty())
	_, ok := b.MasterKey()
	assert.False(t, ok)
	_, ok = b.BackupBundle()
	assert.False(t, ok)

	// copies handed out earlier are independent
	assert.Equal(t, "MASTERSEED", master)

	b.Destroy()
}

func TestBundle_StringHidesSecrets(t *testing.T) {
	b := secrets.NewBundle(secrets.CrossSigningSecrets{MasterKey: "MASTERSEED"}, nil)
	s := b.String()
	assert.NotContains(t, s, "MASTERSEED")
	assert.Contains(t, s, "master:true")
	assert.NotContains(t, fmt.Sprint(b), "MASTERSEED")
}

func TestBackupSecretsBundle_PublicKey(t *testing.T) {
	priv, err := crypto.GenerateBackupKey()
	require.NoError(t, err)
	want, err := crypto.BackupPublicKey(priv)
	require.NoError(t, err)

	bb := secrets.BackupSecretsBundle{Key: crypto.EncodeBase64(priv), BackupVersion: "1"}
	pub, err := bb.PublicKey()
	require.NoError(t, err)
	assert.Equal(t, types.Curve25519PublicKey(want), pub)

	_, err = secrets.BackupSecretsBundle{Key: "BACKUPKEY"}.PublicKey()
	assert.Error(t, err)
	_, err = secrets.BackupSecretsBundle{Key: "!!"}.DecryptionKey()
	assert.Error(t, err)
}
