package types

// CrossSigningKeyExport holds the private cross-signing seeds, each unpadded
// base64 and each optional. Unlike a secrets bundle it carries no backup
// secrets.
type CrossSigningKeyExport struct {
	masterKey      *string
	selfSigningKey *string
	userSigningKey *string
}

// NewCrossSigningKeyExport copies the given seeds. Empty strings are absent.
func NewCrossSigningKeyExport(master, selfSigning, userSigning string) CrossSigningKeyExport {
	return CrossSigningKeyExport{
		masterKey:      optional(master),
		selfSigningKey: optional(selfSigning),
		userSigningKey: optional(userSigning),
	}
}

// MasterKey returns the master key seed, if present.
func (e CrossSigningKeyExport) MasterKey() (string, bool) { return deref(e.masterKey) }

// SelfSigningKey returns the self-signing key seed, if present.
func (e CrossSigningKeyExport) SelfSigningKey() (string, bool) { return deref(e.selfSigningKey) }

// UserSigningKey returns the user-signing key seed, if present.
func (e CrossSigningKeyExport) UserSigningKey() (string, bool) { return deref(e.userSigningKey) }

// Empty reports whether no seed is present.
func (e CrossSigningKeyExport) Empty() bool {
	return e.masterKey == nil && e.selfSigningKey == nil && e.userSigningKey == nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	return *p, true
}
