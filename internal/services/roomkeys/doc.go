// Package roomkeys keeps the informational room key records: which room keys
// were received for which session, and which sessions were withheld from us
// and why.
//
// Records are stored as JSON under the "room_keys/" and "withheld/" entries
// of any domain.CryptoStore. They are projections for display only; the keys
// themselves are never stored here.
package roomkeys
