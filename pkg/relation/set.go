package relation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/rolo/pkg/core"
	"github.com/aretw0/rolo/pkg/key"
)

// Set is an ordered, deduplicated collection of relationship entries.
// No two entries share the same (type, target) after normalization, and
// blank or null-like targets are never admitted. Insertion order is
// preserved so frontmatter round-trips cleanly.
type Set struct {
	entries []Entry
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{}
}

// FromMetadata builds a Set from a document's frontmatter. Every key in the
// RELATED family is run through the key codec; keys that fail to parse and
// blank or null-like values are silently dropped, never errored. Entries
// are admitted ordered by type and then by bracket index, which preserves
// the within-type order the fields were emitted with.
func FromMetadata(md core.Metadata) *Set {
	type row struct {
		typ   string
		index int
		entry Entry
	}
	var rows []row

	for raw, val := range md {
		parsed := key.Parse(raw)
		if parsed.Key != FieldPrefix || parsed.Subkey != "" || !parsed.HasSelector() {
			continue
		}
		typ := NormalizeType(parsed.Selector)
		if typ == "" {
			continue
		}

		target, ok := ParseTarget(stringify(val))
		if !ok {
			continue
		}

		index := 0
		if parsed.Index != "" {
			n, err := strconv.Atoi(parsed.Index)
			if err != nil {
				continue
			}
			index = n
		}

		rows = append(rows, row{typ: typ, index: index, entry: Entry{Type: typ, Target: target}})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].typ != rows[j].typ {
			return rows[i].typ < rows[j].typ
		}
		return rows[i].index < rows[j].index
	})

	s := NewSet()
	for _, r := range rows {
		s.AddEntry(r.entry)
	}
	return s
}

// stringify coerces a frontmatter value to its textual form. Non-scalar
// values come back empty and are filtered out downstream.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool, int, int64, uint64, float64:
		return fmt.Sprintf("%v", val)
	}
	return ""
}

// Add normalizes and appends a (type, target) pair. It is a no-op when an
// equal entry already exists or the pair is not admissible, and reports
// whether the set grew.
func (s *Set) Add(typ string, target Target) bool {
	return s.AddEntry(Entry{Type: NormalizeType(typ), Target: target})
}

// AddEntry appends an entry under the same rules as Add.
func (s *Set) AddEntry(e Entry) bool {
	e.Type = NormalizeType(e.Type)
	if e.Type == "" || strings.TrimSpace(e.Target.Value) == "" {
		return false
	}
	if _, ok := ParseTarget(e.Target.String()); !ok {
		return false
	}
	if s.Contains(e) {
		return false
	}
	s.entries = append(s.entries, e)
	return true
}

// Remove deletes the entry equal to e, reporting whether it was present.
func (s *Set) Remove(e Entry) bool {
	for i, cur := range s.entries {
		if cur.Equal(e) {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether an equal entry exists.
func (s *Set) Contains(e Entry) bool {
	for _, cur := range s.entries {
		if cur.Equal(e) {
			return true
		}
	}
	return false
}

// Entries returns a copy of the entries in insertion order.
func (s *Set) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Size returns the number of entries.
func (s *Set) Size() int {
	return len(s.entries)
}

// Equal reports whether both sets hold the same entries with the same
// order within each type. Order across types is not significant.
func (s *Set) Equal(o *Set) bool {
	if s.Size() != o.Size() {
		return false
	}
	mine := s.byType()
	theirs := o.byType()
	if len(mine) != len(theirs) {
		return false
	}
	for typ, seq := range mine {
		other, ok := theirs[typ]
		if !ok || len(other) != len(seq) {
			return false
		}
		for i := range seq {
			if !seq[i].Equal(other[i]) {
				return false
			}
		}
	}
	return true
}

func (s *Set) byType() map[string][]Entry {
	out := make(map[string][]Entry)
	for _, e := range s.entries {
		out[e.Type] = append(out[e.Type], e)
	}
	return out
}

// Fields emits the indexed frontmatter scheme: the first entry of each type
// gets the bare key RELATED[type], subsequent entries of the same type get
// RELATED[n:type] for n = 1, 2, 3, ... in first-seen order. n numbers
// entries within a type, not globally. Re-parsing the output with
// FromMetadata reproduces the same logical set.
func (s *Set) Fields() map[string]string {
	out := make(map[string]string, len(s.entries))
	seen := make(map[string]int)
	for _, e := range s.entries {
		n := seen[e.Type]
		seen[e.Type] = n + 1

		k := FieldPrefix + "[" + e.Type + "]"
		if n > 0 {
			k = fmt.Sprintf("%s[%d:%s]", FieldPrefix, n, e.Type)
		}
		out[k] = e.Target.String()
	}
	return out
}
