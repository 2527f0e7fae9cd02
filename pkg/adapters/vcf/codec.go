// Package vcf implements the vCard 4.0 text codec used at the interchange
// boundary, plus the mapping between vault documents and records.
//
// Only the wire rules the vault relies on are implemented: record framing,
// property parameters, RFC 6350 line folding and value escaping.
package vcf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	beginLine = "BEGIN:VCARD"
	endLine   = "END:VCARD"
	version   = "VERSION:4.0"

	// foldWidth is the maximum content-line length before folding.
	foldWidth = 75
)

// Param is one property parameter (e.g. TYPE=home).
type Param struct {
	Name  string
	Value string
}

// Field is one content line: NAME;PARAM=X:VALUE.
type Field struct {
	Name   string
	Params []Param
	Value  string
}

// Param returns the value of the named parameter, empty when absent.
func (f Field) Param(name string) string {
	for _, p := range f.Params {
		if strings.EqualFold(p.Name, name) {
			return p.Value
		}
	}
	return ""
}

// Record is one BEGIN/END delimited vCard.
type Record struct {
	Fields []Field
}

// Get returns the first field with the given name.
func (r Record) Get(name string) (Field, bool) {
	for _, f := range r.Fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return Field{}, false
}

// Values returns every field with the given name, in record order.
func (r Record) Values(name string) []Field {
	var out []Field
	for _, f := range r.Fields {
		if strings.EqualFold(f.Name, name) {
			out = append(out, f)
		}
	}
	return out
}

// Parse reads zero or more records from a stream. Lines outside a
// BEGIN/END pair and VERSION lines are skipped; a truncated final record
// is an error.
func Parse(r io.Reader) ([]Record, error) {
	lines, err := unfold(r)
	if err != nil {
		return nil, err
	}

	var records []Record
	var current *Record

	for _, line := range lines {
		switch {
		case strings.EqualFold(line, beginLine):
			if current != nil {
				return nil, fmt.Errorf("nested %s", beginLine)
			}
			current = &Record{}
		case strings.EqualFold(line, endLine):
			if current == nil {
				return nil, fmt.Errorf("%s without %s", endLine, beginLine)
			}
			records = append(records, *current)
			current = nil
		default:
			if current == nil {
				continue
			}
			field, err := parseField(line)
			if err != nil {
				// Parse degradation: a malformed line is dropped, not fatal.
				continue
			}
			if strings.EqualFold(field.Name, "VERSION") {
				continue
			}
			current.Fields = append(current.Fields, field)
		}
	}

	if current != nil {
		return nil, fmt.Errorf("record not terminated with %s", endLine)
	}
	return records, nil
}

// unfold reads physical lines and joins folded continuations (lines
// starting with space or tab).
func unfold(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') && len(lines) > 0 {
			lines[len(lines)-1] += line[1:]
			continue
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// parseField splits NAME;PARAMS:VALUE at the first colon outside a quoted
// parameter value.
func parseField(line string) (Field, error) {
	colon := -1
	quoted := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			quoted = !quoted
		case ':':
			if !quoted {
				colon = i
			}
		}
		if colon >= 0 {
			break
		}
	}
	if colon <= 0 {
		return Field{}, fmt.Errorf("no property name in %q", line)
	}

	head := line[:colon]
	parts := strings.Split(head, ";")

	// Values stay wire-encoded; the mapping layer unescapes per component
	// so structured fields keep their ';' separators intact.
	f := Field{
		Name:  strings.ToUpper(strings.TrimSpace(parts[0])),
		Value: line[colon+1:],
	}
	if f.Name == "" {
		return Field{}, fmt.Errorf("empty property name in %q", line)
	}

	for _, raw := range parts[1:] {
		eq := strings.IndexByte(raw, '=')
		if eq <= 0 {
			continue
		}
		f.Params = append(f.Params, Param{
			Name:  strings.ToUpper(strings.TrimSpace(raw[:eq])),
			Value: strings.Trim(raw[eq+1:], `"`),
		})
	}
	return f, nil
}

// Serialize writes records with CRLF line endings, VERSION stamping and
// folding at the standard width.
func Serialize(records []Record, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		writeLine(bw, beginLine)
		writeLine(bw, version)
		for _, f := range rec.Fields {
			var sb strings.Builder
			sb.WriteString(f.Name)
			for _, p := range f.Params {
				sb.WriteByte(';')
				sb.WriteString(p.Name)
				sb.WriteByte('=')
				sb.WriteString(p.Value)
			}
			sb.WriteByte(':')
			sb.WriteString(f.Value)
			writeLine(bw, sb.String())
		}
		writeLine(bw, endLine)
	}
	return bw.Flush()
}

// writeLine folds long content lines: continuations are indented with a
// single space. The fold backs off to a rune boundary so a multi-byte
// sequence is never split across lines.
func writeLine(w *bufio.Writer, line string) {
	for len(line) > foldWidth {
		cut := foldWidth
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		w.WriteString(line[:cut])
		w.WriteString("\r\n")
		line = " " + line[cut:]
	}
	w.WriteString(line)
	w.WriteString("\r\n")
}

// Escape encodes one text value or compound component: backslash,
// newline, semicolon and comma are backslash-escaped.
func Escape(v string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		"\n", `\n`,
		";", `\;`,
		",", `\,`,
	)
	return r.Replace(v)
}

// Unescape decodes one text value or compound component.
func Unescape(v string) string {
	var sb strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] != '\\' || i == len(v)-1 {
			sb.WriteByte(v[i])
			continue
		}
		i++
		switch v[i] {
		case 'n', 'N':
			sb.WriteByte('\n')
		default:
			sb.WriteByte(v[i])
		}
	}
	return sb.String()
}

// SplitComponents splits a compound value on unescaped semicolons. The
// components come back still escaped.
func SplitComponents(v string) []string {
	var out []string
	start := 0
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case '\\':
			i++
		case ';':
			out = append(out, v[start:i])
			start = i + 1
		}
	}
	return append(out, v[start:])
}
