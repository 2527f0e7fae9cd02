package vcf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/rolo/pkg/contact"
	"github.com/aretw0/rolo/pkg/core"
	"github.com/aretw0/rolo/pkg/key"
	"github.com/aretw0/rolo/pkg/relation"
)

// Component orders of the structured properties, matching the subkeys the
// key codec produces for them.
var (
	adrSubkeys = []string{"PO", "EXT", "STREET", "LOCALITY", "REGION", "POSTAL", "COUNTRY"}
	nSubkeys   = []string{"FAMILY", "GIVEN", "ADDITIONAL", "PREFIX", "SUFFIX"}
)

// FromDocument maps a contact document's metadata block onto an
// interchange record. The UID and REV fields are mandatory; a contact
// that has not been through the uid curator cannot be exported.
//
// Frontmatter key families map as follows:
//
//	RELATED[n:type]        -> RELATED;TYPE=type with urn:uuid / text value
//	ADR[n:sel].SUB         -> ADR;TYPE=sel with the structured 7-slot value
//	N.SUB                  -> the structured N value
//	FIELD[n:sel] (scalar)  -> FIELD;TYPE=sel
//	FIELD (scalar)         -> FIELD verbatim
//
// Non-scalar metadata values are skipped; they have no wire form.
func FromDocument(doc core.Document) (Record, error) {
	c := contact.New(doc)
	if c.UID() == "" {
		return Record{}, fmt.Errorf("contact %s has no UID", doc.ID)
	}
	if c.Rev() == "" {
		return Record{}, fmt.Errorf("contact %s has no REV", doc.ID)
	}

	rec := Record{}

	type structured struct {
		base     string
		selector string
		index    int
		parts    map[string]string
	}
	groups := make(map[string]*structured)

	type scalar struct {
		parsed key.Parsed
		index  int
		value  string
	}
	var scalars []scalar

	for raw, val := range doc.Metadata {
		parsed := key.Parse(raw)
		if parsed.Key == relation.FieldPrefix {
			continue // handled below, in set order
		}
		text, ok := scalarValue(val)
		if !ok {
			continue
		}

		index := 0
		if parsed.Index != "" {
			index, _ = strconv.Atoi(parsed.Index)
		}

		if parsed.Subkey != "" {
			id := parsed.Key + "\x00" + parsed.Selector + "\x00" + parsed.Index
			g, ok := groups[id]
			if !ok {
				g = &structured{base: parsed.Key, selector: parsed.Selector, index: index, parts: map[string]string{}}
				groups[id] = g
			}
			g.parts[strings.ToUpper(parsed.Subkey)] = text
			continue
		}

		scalars = append(scalars, scalar{parsed: parsed, index: index, value: text})
	}

	// Scalar fields, FN first, the rest ordered by key then index.
	sort.Slice(scalars, func(i, j int) bool {
		a, b := scalars[i], scalars[j]
		if (a.parsed.Key == contact.FieldName) != (b.parsed.Key == contact.FieldName) {
			return a.parsed.Key == contact.FieldName
		}
		if a.parsed.Key != b.parsed.Key {
			return a.parsed.Key < b.parsed.Key
		}
		return a.index < b.index
	})
	for _, s := range scalars {
		f := Field{Name: strings.ToUpper(s.parsed.Key), Value: Escape(s.value)}
		if s.parsed.Selector != "" {
			f.Params = []Param{{Name: "TYPE", Value: s.parsed.Selector}}
		}
		rec.Fields = append(rec.Fields, f)
	}

	// Structured fields in deterministic order.
	ordered := make([]*structured, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.base != b.base {
			return a.base < b.base
		}
		if a.selector != b.selector {
			return a.selector < b.selector
		}
		return a.index < b.index
	})
	for _, g := range ordered {
		f := Field{Name: strings.ToUpper(g.base), Value: composeComponents(g.base, g.parts)}
		if g.selector != "" {
			f.Params = []Param{{Name: "TYPE", Value: g.selector}}
		}
		rec.Fields = append(rec.Fields, f)
	}

	// Relationship edges, in set order.
	for _, entry := range relation.FromMetadata(doc.Metadata).Entries() {
		value := Escape(entry.Target.Value)
		if entry.Target.Kind == relation.KindUUID {
			value = "urn:uuid:" + entry.Target.Value
		}
		rec.Fields = append(rec.Fields, Field{
			Name:   relation.FieldPrefix,
			Params: []Param{{Name: "TYPE", Value: entry.Type}},
			Value:  value,
		})
	}

	return rec, nil
}

// ToDocument maps an interchange record back onto a metadata block. The
// document ID is left empty; callers derive it from the display name.
func ToDocument(rec Record) core.Document {
	md := make(core.Metadata)
	counts := make(map[string]int)
	set := relation.NewSet()

	for _, f := range rec.Fields {
		name := strings.ToUpper(f.Name)
		switch name {
		case relation.FieldPrefix:
			typ := relation.NormalizeType(f.Param("TYPE"))
			if typ == "" {
				typ = "related"
			}
			if target, ok := relation.ParseTarget(Unescape(f.Value)); ok {
				set.Add(typ, target)
			}
		case "ADR":
			decomposeComponents(md, counts, name, f.Param("TYPE"), f.Value, adrSubkeys)
		case "N":
			decomposeComponents(md, counts, name, "", f.Value, nSubkeys)
		default:
			writeScalar(md, counts, name, f.Param("TYPE"), Unescape(f.Value))
		}
	}

	for k, v := range set.Fields() {
		md[k] = v
	}

	return core.Document{Metadata: md}
}

// indexedKey renders BASE[sel], BASE[n:sel] or the flat BASE for the n-th
// occurrence of a field family.
func indexedKey(base, selector string, n int) string {
	switch {
	case selector == "" && n == 0:
		return base
	case selector == "":
		// Repeated untyped fields have no stable slot in the bracket
		// scheme; keep the first occurrence only.
		return ""
	case n == 0:
		return base + "[" + selector + "]"
	default:
		return fmt.Sprintf("%s[%d:%s]", base, n, selector)
	}
}

func writeScalar(md core.Metadata, counts map[string]int, base, selector, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	family := base + "\x00" + selector
	k := indexedKey(base, selector, counts[family])
	counts[family]++
	if k == "" {
		return
	}
	md[k] = value
}

func decomposeComponents(md core.Metadata, counts map[string]int, base, selector, value string, subkeys []string) {
	family := base + "\x00" + selector
	n := counts[family]
	counts[family]++

	prefix := base
	if selector != "" {
		if n == 0 {
			prefix = base + "[" + selector + "]"
		} else {
			prefix = fmt.Sprintf("%s[%d:%s]", base, n, selector)
		}
	} else if n > 0 {
		return
	}

	for i, comp := range SplitComponents(value) {
		if i >= len(subkeys) {
			break
		}
		text := Unescape(comp)
		if strings.TrimSpace(text) == "" {
			continue
		}
		md[prefix+"."+subkeys[i]] = text
	}
}

// composeComponents renders the structured wire value from subkey parts.
func composeComponents(base string, parts map[string]string) string {
	subkeys := nSubkeys
	if strings.EqualFold(base, "ADR") {
		subkeys = adrSubkeys
	}

	comps := make([]string, len(subkeys))
	last := -1
	for i, sub := range subkeys {
		if v, ok := parts[sub]; ok {
			comps[i] = Escape(v)
			last = i
		}
	}
	return strings.Join(comps[:last+1], ";")
}

func scalarValue(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, val != ""
	case bool, int, int64, uint64, float64:
		return fmt.Sprintf("%v", val), true
	}
	return "", false
}
