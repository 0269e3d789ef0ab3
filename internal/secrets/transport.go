package secrets

import (
	"encoding/json"
	"fmt"

	"cryptostore/internal/domain/types"
	"cryptostore/internal/util/memzero"
)

// TransportValue is the language-agnostic form of a bundle: a JSON-shaped map.
//
//	{
//	  "cross_signing": {"master_key": "...", "self_signing_key": "...", "user_signing_key": "..."},
//	  "backup": {"type": "m.megolm_backup.v1.curve25519-aes-sha2", "key": "...", "backup_version": "..."}
//	}
//
// Absent seeds and an absent backup are omitted.
type TransportValue = map[string]any

const (
	fieldCrossSigning   = "cross_signing"
	fieldBackup         = "backup"
	fieldMasterKey      = "master_key"
	fieldSelfSigningKey = "self_signing_key"
	fieldUserSigningKey = "user_signing_key"
	fieldType           = "type"
	fieldKey            = "key"
	fieldBackupVersion  = "backup_version"
)

// ToTransport serializes the bundle. The returned value holds string copies
// of the secrets.
func (b *Bundle) ToTransport() (TransportValue, error) {
	cs := map[string]any{}
	for field, v := range map[string][]byte{
		fieldMasterKey:      b.masterKey,
		fieldSelfSigningKey: b.selfSigningKey,
		fieldUserSigningKey: b.userSigningKey,
	} {
		if v != nil {
			cs[field] = string(v)
		}
	}
	out := TransportValue{fieldCrossSigning: cs}

	if b.backup != nil {
		if b.backup.algorithm == "" {
			return nil, types.SerializationError("secrets.ToTransport", "backup secrets have no algorithm tag", nil)
		}
		out[fieldBackup] = map[string]any{
			fieldType:          b.backup.algorithm,
			fieldKey:           string(b.backup.key),
			fieldBackupVersion: string(b.backup.version),
		}
	}
	return out, nil
}

// FromTransport decodes a bundle. It fails with a serialization error when v
// does not have the expected shape: unknown fields, non-string seeds, or a
// backup object whose type tag is missing or not recognized.
func FromTransport(v TransportValue) (*Bundle, error) {
	const op = "secrets.FromTransport"

	if v == nil {
		return nil, types.SerializationError(op, "empty transport value", nil)
	}
	if err := onlyFields(v, fieldCrossSigning, fieldBackup); err != nil {
		return nil, types.SerializationError(op, "bundle", err)
	}

	rawCS, ok := v[fieldCrossSigning]
	if !ok {
		return nil, types.SerializationError(op, "missing field "+fieldCrossSigning, nil)
	}
	cs, ok := asObject(rawCS)
	if !ok {
		return nil, types.SerializationError(op, fieldCrossSigning+" is not an object", nil)
	}
	if err := onlyFields(cs, fieldMasterKey, fieldSelfSigningKey, fieldUserSigningKey); err != nil {
		return nil, types.SerializationError(op, fieldCrossSigning, err)
	}

	b := &Bundle{}
	var err error
	if b.masterKey, err = optionalString(cs, fieldMasterKey); err != nil {
		return nil, types.SerializationError(op, fieldCrossSigning, err)
	}
	if b.selfSigningKey, err = optionalString(cs, fieldSelfSigningKey); err != nil {
		b.Destroy()
		return nil, types.SerializationError(op, fieldCrossSigning, err)
	}
	if b.userSigningKey, err = optionalString(cs, fieldUserSigningKey); err != nil {
		b.Destroy()
		return nil, types.SerializationError(op, fieldCrossSigning, err)
	}

	rawBackup, ok := v[fieldBackup]
	if !ok || rawBackup == nil {
		return b, nil
	}
	if b.backup, err = decodeBackup(rawBackup); err != nil {
		b.Destroy()
		return nil, types.SerializationError(op, fieldBackup, err)
	}
	return b, nil
}

func decodeBackup(raw any) (*backupSecrets, error) {
	obj, ok := asObject(raw)
	if !ok {
		return nil, fmt.Errorf("not an object")
	}
	tag, ok := obj[fieldType].(string)
	if !ok || tag == "" {
		return nil, fmt.Errorf("missing variant tag %q", fieldType)
	}
	if tag != BackupAlgorithmMegolmV1 {
		return nil, fmt.Errorf("unknown variant tag %q", tag)
	}
	if err := onlyFields(obj, fieldType, fieldKey, fieldBackupVersion); err != nil {
		return nil, err
	}

	key, err := optionalString(obj, fieldKey)
	if err != nil {
		return nil, err
	}
	version, err := optionalString(obj, fieldBackupVersion)
	if err != nil {
		memzero.Zero(key)
		return nil, err
	}
	if key == nil || version == nil {
		memzero.Zero(key)
		memzero.Zero(version)
		return nil, fmt.Errorf("%s backup needs %q and %q", tag, fieldKey, fieldBackupVersion)
	}
	return &backupSecrets{algorithm: tag, key: key, version: version}, nil
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

func onlyFields(m map[string]any, allowed ...string) error {
	for k := range m {
		known := false
		for _, a := range allowed {
			if k == a {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown field %q", k)
		}
	}
	return nil
}

// optionalString returns nil for a missing or null field.
func optionalString(m map[string]any, field string) ([]byte, error) {
	raw, ok := m[field]
	if !ok || raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("field %q is not a string", field)
	}
	return []byte(s), nil
}

// MarshalJSON encodes the transport form.
func (b *Bundle) MarshalJSON() ([]byte, error) {
	v, err := b.ToTransport()
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, types.SerializationError("secrets.MarshalJSON", "", err)
	}
	return out, nil
}

// UnmarshalJSON decodes the transport form into b, replacing its contents.
func (b *Bundle) UnmarshalJSON(data []byte) error {
	var v TransportValue
	if err := json.Unmarshal(data, &v); err != nil {
		return types.SerializationError("secrets.UnmarshalJSON", "", err)
	}
	nb, err := FromTransport(v)
	if err != nil {
		return err
	}
	b.Destroy()
	*b = *nb
	return nil
}
