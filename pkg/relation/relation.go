// Package relation models typed relationship edges between contact
// documents and their frontmatter encoding.
package relation

import "strings"

// FieldPrefix is the frontmatter base key that carries relationship edges.
const FieldPrefix = "RELATED"

// TargetKind classifies how a relationship target is addressed.
type TargetKind int

const (
	// KindName targets a contact by its literal display name.
	KindName TargetKind = iota
	// KindUUID targets a contact by a urn:uuid reference.
	KindUUID
	// KindUID targets a contact by a non-UUID external identifier.
	KindUID
)

func (k TargetKind) String() string {
	switch k {
	case KindUUID:
		return "uuid"
	case KindUID:
		return "uid"
	}
	return "name"
}

// Target is the addressed end of a relationship edge.
type Target struct {
	Kind  TargetKind
	Value string
}

// Name returns a name target.
func Name(name string) Target {
	return Target{Kind: KindName, Value: strings.TrimSpace(name)}
}

// UUID returns a urn:uuid target for a bare uuid value.
func UUID(id string) Target {
	return Target{Kind: KindUUID, Value: strings.TrimSpace(id)}
}

// UID returns an external-identifier target.
func UID(id string) Target {
	return Target{Kind: KindUID, Value: strings.TrimSpace(id)}
}

// ParseTarget classifies a raw frontmatter value. ok is false for blank or
// null-like values ("", whitespace, "null", "undefined"), which are never
// admitted into a Set.
func ParseTarget(raw string) (Target, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return Target{}, false
	}
	switch strings.ToLower(v) {
	case "null", "undefined":
		return Target{}, false
	}

	switch {
	case strings.HasPrefix(v, "urn:uuid:"):
		return UUID(v[len("urn:uuid:"):]), true
	case strings.HasPrefix(v, "uid:"):
		return UID(v[len("uid:"):]), true
	case strings.HasPrefix(v, "name:"):
		return Name(v[len("name:"):]), true
	}
	return Name(v), true
}

// String renders the frontmatter encoding of the target.
func (t Target) String() string {
	switch t.Kind {
	case KindUUID:
		return "urn:uuid:" + t.Value
	case KindUID:
		return "uid:" + t.Value
	}
	return t.Value
}

// Equal compares two targets. Name and identifier comparisons are
// case-insensitive.
func (t Target) Equal(o Target) bool {
	if t.Kind != o.Kind {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(t.Value), strings.TrimSpace(o.Value))
}

// NormalizeType lowercases and hyphenates a relationship type
// ("Parent In Law" -> "parent-in-law").
func NormalizeType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "-")
}

// Entry is a typed, directed edge from one contact document to a target.
// Entries are value objects: equality is (type, target) after normalization.
type Entry struct {
	Type   string
	Target Target
}

// Equal reports whether two entries denote the same edge.
func (e Entry) Equal(o Entry) bool {
	return e.Type == o.Type && e.Target.Equal(o.Target)
}
