package resource

// KeyKind distinguishes public encryption keys from private signing keys.
type KeyKind string

const (
	KeyPublic  KeyKind = "public"
	KeyPrivate KeyKind = "private"
)

// KeyLink asks the key-linking component to expose GPG key material inside a
// profile directory under a scoped name.
type KeyLink struct {
	KeyID string
	Scope string
	Kind  KeyKind
	State State
}

// ScopedName namespaces the key id by the owning profile, so identical key
// ids used by different profiles never collide.
func (k KeyLink) ScopedName() string {
	return k.Scope + "/" + k.KeyID
}
