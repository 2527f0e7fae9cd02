// Package gender maps canonical relationship types to gendered display
// terms and back, and infers a contact's gender from a gendered term.
package gender

import "strings"

// Gender is a contact's recorded gender. Anything the vault cannot
// classify is Unknown; Unknown is never an error.
type Gender int

const (
	Unknown Gender = iota
	Male
	Female
)

// String returns the frontmatter encoding ("M", "F", empty for Unknown).
func (g Gender) String() string {
	switch g {
	case Male:
		return "M"
	case Female:
		return "F"
	}
	return ""
}

// Parse decodes a frontmatter GENDER value.
func Parse(s string) Gender {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M", "MALE":
		return Male
	case "F", "FEMALE":
		return Female
	}
	return Unknown
}

// terms holds the gendered vocabulary for one canonical type.
type terms struct {
	male   string
	female string
}

// vocabulary covers the relationship types that have gender-specific
// vocabulary. Types not listed here always render as their canonical form.
var vocabulary = map[string]terms{
	"parent":      {"father", "mother"},
	"child":       {"son", "daughter"},
	"sibling":     {"brother", "sister"},
	"spouse":      {"husband", "wife"},
	"grandparent": {"grandfather", "grandmother"},
	"grandchild":  {"grandson", "granddaughter"},
	"auncle":      {"uncle", "aunt"},
	"nibling":     {"nephew", "niece"},
}

var (
	canonical = map[string]string{} // gendered term -> canonical type
	inferred  = map[string]Gender{} // gendered term -> gender
)

func init() {
	for typ, t := range vocabulary {
		canonical[t.male] = typ
		canonical[t.female] = typ
		inferred[t.male] = Male
		inferred[t.female] = Female
	}
}

// Types returns the canonical types that carry gendered vocabulary.
func Types() []string {
	out := make([]string, 0, len(vocabulary))
	for typ := range vocabulary {
		out = append(out, typ)
	}
	return out
}

// TermFor returns the gendered display term for a canonical type when one
// exists and the gender is known, otherwise the canonical type itself.
func TermFor(typ string, g Gender) string {
	typ = normalize(typ)
	t, ok := vocabulary[typ]
	if !ok {
		return typ
	}
	switch g {
	case Male:
		return t.male
	case Female:
		return t.female
	}
	return typ
}

// Canonicalize strips gender from a display term, returning the canonical
// relationship type. Terms without gendered vocabulary pass through
// normalized (lowercased, hyphenated).
func Canonicalize(term string) string {
	term = normalize(term)
	if typ, ok := canonical[term]; ok {
		return typ
	}
	return term
}

// Infer returns the gender implied by a display term, or Unknown when the
// term carries no gender. An inference is a proposal, not an authoritative
// fact; callers must never overwrite an already-known gender with it.
func Infer(term string) Gender {
	return inferred[normalize(term)]
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "-")
}
