// Package key parses the structured frontmatter key grammar used for
// relationship and other indexed fields.
//
// Recognized forms:
//
//	BASE
//	BASE.SUB
//	BASE[selector]
//	BASE[index:selector]
//	BASE[selector].SUB
//	BASE[index:selector].SUB
//
// Anything else is returned as-is under Key. Absence of structure is a
// valid, non-error result.
package key

import "strings"

// Parsed is the generic decomposition of a structured frontmatter key.
type Parsed struct {
	Key      string
	Index    string
	Selector string
	Subkey   string
}

// HasSelector reports whether a non-empty bracketed selector was present.
// A bracket with an empty body ("BASE[]") does not count.
func (p Parsed) HasSelector() bool {
	return p.Selector != "" || p.Index != ""
}

// Parse decomposes a raw frontmatter key. It never fails: unparseable
// input degrades to Parsed{Key: raw}.
func Parse(raw string) Parsed {
	open := strings.IndexByte(raw, '[')
	if open < 0 {
		// Flat form: KEY or KEY.SUB
		if dot := strings.IndexByte(raw, '.'); dot > 0 && dot < len(raw)-1 {
			return Parsed{Key: raw[:dot], Subkey: raw[dot+1:]}
		}
		return Parsed{Key: raw}
	}

	end := strings.IndexByte(raw[open:], ']')
	if open == 0 || end < 0 {
		return Parsed{Key: raw}
	}
	end += open

	p := Parsed{Key: raw[:open]}

	switch rest := raw[end+1:]; {
	case rest == "":
	case strings.HasPrefix(rest, ".") && len(rest) > 1:
		p.Subkey = rest[1:]
	default:
		// Trailing garbage after the bracket; treat the whole key as opaque.
		return Parsed{Key: raw}
	}

	body := raw[open+1 : end]
	if colon := strings.IndexByte(body, ':'); colon > 0 && isDigits(body[:colon]) {
		p.Index = body[:colon]
		p.Selector = body[colon+1:]
	} else {
		p.Selector = body
	}

	return p
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
