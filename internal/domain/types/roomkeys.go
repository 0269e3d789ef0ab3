package types

import "encoding/json"

// RoomKeyInfo describes a room key that has been received or imported.
// It is a read-only projection; construct it with NewRoomKeyInfo.
type RoomKeyInfo struct {
	algorithm EncryptionAlgorithm
	roomID    RoomID
	senderKey Curve25519PublicKey
	sessionID string
}

// NewRoomKeyInfo returns the info for one received room key.
func NewRoomKeyInfo(
	algorithm EncryptionAlgorithm,
	roomID RoomID,
	senderKey Curve25519PublicKey,
	sessionID string,
) RoomKeyInfo {
	return RoomKeyInfo{algorithm: algorithm, roomID: roomID, senderKey: senderKey, sessionID: sessionID}
}

// Algorithm is the encryption algorithm the key is used for, one of the
// megolm algorithms.
func (i RoomKeyInfo) Algorithm() EncryptionAlgorithm { return i.algorithm }

// RoomID is the room where the key is used.
func (i RoomKeyInfo) RoomID() RoomID { return i.roomID }

// SenderKey is the Curve25519 key of the device that originally created the
// session.
func (i RoomKeyInfo) SenderKey() Curve25519PublicKey { return i.senderKey }

// SessionID is the session the key belongs to.
func (i RoomKeyInfo) SessionID() string { return i.sessionID }

type roomKeyInfoJSON struct {
	Algorithm EncryptionAlgorithm `json:"algorithm"`
	RoomID    RoomID              `json:"room_id"`
	SenderKey Curve25519PublicKey `json:"sender_key"`
	SessionID string              `json:"session_id"`
}

// MarshalJSON implements json.Marshaler.
func (i RoomKeyInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(roomKeyInfoJSON{i.algorithm, i.roomID, i.senderKey, i.sessionID})
}

// UnmarshalJSON implements json.Unmarshaler.
func (i *RoomKeyInfo) UnmarshalJSON(b []byte) error {
	var w roomKeyInfoJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*i = NewRoomKeyInfo(w.Algorithm, w.RoomID, w.SenderKey, w.SessionID)
	return nil
}

// RoomKeyWithheldInfo records a received withheld notice: the sender will
// not share the key of this session, and says why.
type RoomKeyWithheldInfo struct {
	sender       UserID
	algorithm    EncryptionAlgorithm
	withheldCode WithheldCode
	roomID       RoomID
	sessionID    string
}

// NewRoomKeyWithheldInfo returns the info for one withheld notice.
func NewRoomKeyWithheldInfo(
	sender UserID,
	algorithm EncryptionAlgorithm,
	code WithheldCode,
	roomID RoomID,
	sessionID string,
) RoomKeyWithheldInfo {
	return RoomKeyWithheldInfo{
		sender:       sender,
		algorithm:    algorithm,
		withheldCode: code,
		roomID:       roomID,
		sessionID:    sessionID,
	}
}

// Sender is the user that sent the withheld notice.
func (i RoomKeyWithheldInfo) Sender() UserID { return i.sender }

// Algorithm is the encryption algorithm of the withheld session.
func (i RoomKeyWithheldInfo) Algorithm() EncryptionAlgorithm { return i.algorithm }

// WithheldCode is the reason code, such as m.unverified.
func (i RoomKeyWithheldInfo) WithheldCode() WithheldCode { return i.withheldCode }

// RoomID is the room of the withheld session.
func (i RoomKeyWithheldInfo) RoomID() RoomID { return i.roomID }

// SessionID is the withheld session.
func (i RoomKeyWithheldInfo) SessionID() string { return i.sessionID }

type roomKeyWithheldInfoJSON struct {
	Sender       UserID              `json:"sender"`
	Algorithm    EncryptionAlgorithm `json:"algorithm"`
	WithheldCode WithheldCode        `json:"code"`
	RoomID       RoomID              `json:"room_id"`
	SessionID    string              `json:"session_id"`
}

// MarshalJSON implements json.Marshaler.
func (i RoomKeyWithheldInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(roomKeyWithheldInfoJSON{i.sender, i.algorithm, i.withheldCode, i.roomID, i.sessionID})
}

// UnmarshalJSON implements json.Unmarshaler.
func (i *RoomKeyWithheldInfo) UnmarshalJSON(b []byte) error {
	var w roomKeyWithheldInfoJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*i = NewRoomKeyWithheldInfo(w.Sender, w.Algorithm, w.WithheldCode, w.RoomID, w.SessionID)
	return nil
}
