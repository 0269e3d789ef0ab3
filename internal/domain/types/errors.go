package types

import (
	"errors"
	"strings"
)

// ErrorKind classifies failures so callers can tell bad input from an
// unavailable store.
type ErrorKind int

const (
	// KindConfiguration: an inconsistent combination of arguments or settings.
	KindConfiguration ErrorKind = iota + 1
	// KindValidation: a malformed input value.
	KindValidation
	// KindStoreOpen: the persistence engine could not open, create or decrypt
	// the store.
	KindStoreOpen
	// KindSerialization: a transport encode/decode failure.
	KindSerialization
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration error"
	case KindValidation:
		return "validation error"
	case KindStoreOpen:
		return "store open error"
	case KindSerialization:
		return "serialization error"
	}
	return "error"
}

// OpenFailure refines KindStoreOpen where the backend can tell the cases
// apart.
type OpenFailure int

const (
	ReasonUnknown OpenFailure = iota
	// ReasonWrongCredentials: wrong passphrase or key, or a credential of the
	// wrong type for this store.
	ReasonWrongCredentials
	// ReasonCorrupted: the store exists but its contents are unreadable.
	ReasonCorrupted
	// ReasonUnavailable: I/O failure, the store could not be reached.
	ReasonUnavailable
)

func (r OpenFailure) String() string {
	switch r {
	case ReasonWrongCredentials:
		return "wrong credentials"
	case ReasonCorrupted:
		return "corrupted store"
	case ReasonUnavailable:
		return "storage unavailable"
	}
	return ""
}

// Error is the typed error returned by the store and secrets packages.
type Error struct {
	Kind   ErrorKind
	Reason OpenFailure // only meaningful for KindStoreOpen
	Op     string      // operation, e.g. "store.Open"
	Msg    string
	Err    error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrValidation    = &Error{Kind: KindValidation}
	ErrStoreOpen     = &Error{Kind: KindStoreOpen}
	ErrSerialization = &Error{Kind: KindSerialization}

	// ErrWrongCredentials matches store open failures caused by a wrong
	// passphrase or key.
	ErrWrongCredentials = &Error{Kind: KindStoreOpen, Reason: ReasonWrongCredentials}
)

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Reason != ReasonUnknown {
		b.WriteString(" (")
		b.WriteString(e.Reason.String())
		b.WriteString(")")
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind and, when the target sets one, by reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == ReasonUnknown || t.Reason == e.Reason
}

// ConfigurationError reports an inconsistent argument combination.
func ConfigurationError(op, msg string) error {
	return &Error{Kind: KindConfiguration, Op: op, Msg: msg}
}

// ValidationError reports a malformed input value.
func ValidationError(op, msg string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg, Err: err}
}

// StoreOpenError reports a persistence engine failure.
func StoreOpenError(op string, reason OpenFailure, err error) error {
	return &Error{Kind: KindStoreOpen, Reason: reason, Op: op, Err: err}
}

// SerializationError reports a transport encode/decode failure.
func SerializationError(op, msg string, err error) error {
	return &Error{Kind: KindSerialization, Op: op, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or 0 if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// ReasonOf returns the open failure reason of err, if any.
func ReasonOf(err error) OpenFailure {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ReasonUnknown
}

func IsConfiguration(err error) bool { return KindOf(err) == KindConfiguration }
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsStoreOpen(err error) bool { return KindOf(err) == KindStoreOpen }
func IsSerialization(err error) bool { return KindOf(err) == KindSerialization }
