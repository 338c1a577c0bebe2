package ir

import "fmt"

// Namespace scopes a profile to a context. The set is closed.
type Namespace uint8

const (
	NamespaceProfessional Namespace = iota
	NamespacePersonal
	NamespaceGaming
	NamespaceDegen
)

var namespaceNames = [...]string{
	NamespaceProfessional: "professional",
	NamespacePersonal:     "personal",
	NamespaceGaming:       "gaming",
	NamespaceDegen:        "degen",
}

// Namespaces returns every supported namespace in tag order.
func Namespaces() []Namespace {
	out := make([]Namespace, len(namespaceNames))
	for i := range namespaceNames {
		out[i] = Namespace(i)
	}
	return out
}

// Valid reports whether n is a member of the enumeration.
func (n Namespace) Valid() bool {
	return int(n) < len(namespaceNames)
}

func (n Namespace) String() string {
	if !n.Valid() {
		return fmt.Sprintf("namespace(%d)", uint8(n))
	}
	return namespaceNames[n]
}

// Seed returns the bytes used for address derivation.
func (n Namespace) Seed() []byte {
	return []byte(n.String())
}

// ParseNamespace maps a lowercase name to its Namespace.
// Unknown names fail with ErrCodeInvalidNamespace.
func ParseNamespace(s string) (Namespace, error) {
	for i, name := range namespaceNames {
		if name == s {
			return Namespace(i), nil
		}
	}
	return 0, NewError(ErrCodeInvalidNamespace, fmt.Sprintf("unknown namespace %q", s))
}

// MarshalText implements encoding.TextMarshaler.
func (n Namespace) MarshalText() ([]byte, error) {
	if !n.Valid() {
		return nil, NewError(ErrCodeInvalidNamespace, fmt.Sprintf("unknown namespace tag %d", uint8(n)))
	}
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Namespace) UnmarshalText(text []byte) error {
	parsed, err := ParseNamespace(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
