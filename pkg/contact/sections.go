package contact

import (
	"regexp"
	"strings"
)

// Headings of the structured body sections.
const (
	HeadingContact = "## Contact"
	HeadingRelated = "## Related"
)

// ListItem is one line of the body relationship list: "- term [[Name]]".
type ListItem struct {
	Term string
	Name string
}

// section is a run of body lines under one level-2 heading. The preamble
// (text before the first heading) has an empty heading.
type section struct {
	heading string
	lines   []string
}

// Body is the parsed, order-preserving view of a document's free text.
// Unrecognized sections and lines are preserved verbatim; only the
// Contact/Related ordering and the trailing tag block are normalized on
// render.
type Body struct {
	sections []section
	tags     []string
}

// Wikilink item ("- wife [[Jane Doe]]", optional display alias after |)
// and plain-text fallback ("- wife Jane Doe").
var (
	linkItemRe  = regexp.MustCompile(`^-\s+([^\[\]]+?)\s+\[\[([^\]|]+)(?:\|[^\]]*)?\]\]\s*$`)
	plainItemRe = regexp.MustCompile(`^-\s+(\S+)\s+(.+?)\s*$`)
)

// ParseBody splits content into sections delimited by level-2 headings and
// extracts the trailing tag block. It never fails.
func ParseBody(content string) *Body {
	b := &Body{}
	cur := section{}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "## ") {
			b.sections = append(b.sections, cur)
			cur = section{heading: strings.TrimSpace(line)}
			continue
		}
		cur.lines = append(cur.lines, line)
	}
	b.sections = append(b.sections, cur)

	b.extractTags()
	return b
}

// extractTags pulls contiguous tag-only lines off the end of the last
// section so they can be re-emitted after everything else.
func (b *Body) extractTags() {
	last := &b.sections[len(b.sections)-1]

	end := len(last.lines)
	for end > 0 && strings.TrimSpace(last.lines[end-1]) == "" {
		end--
	}
	start := end
	for start > 0 && isTagLine(last.lines[start-1]) {
		start--
	}
	if start == end {
		last.lines = last.lines[:end]
		return
	}

	b.tags = append(b.tags, last.lines[start:end]...)
	last.lines = last.lines[:start]
}

func isTagLine(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !strings.HasPrefix(f, "#") || len(f) < 2 {
			return false
		}
	}
	return true
}

func (b *Body) find(heading string) *section {
	for i := range b.sections {
		if strings.EqualFold(b.sections[i].heading, heading) {
			return &b.sections[i]
		}
	}
	return nil
}

// HasRelated reports whether the relationship-list section exists. The
// sync engine treats a missing section as "no information", never as an
// instruction to delete.
func (b *Body) HasRelated() bool {
	return b.find(HeadingRelated) != nil
}

// RelatedItems parses the relationship list. Lines that are not list items
// are ignored, not errored.
func (b *Body) RelatedItems() []ListItem {
	sec := b.find(HeadingRelated)
	if sec == nil {
		return nil
	}

	var items []ListItem
	for _, line := range sec.lines {
		if m := linkItemRe.FindStringSubmatch(line); m != nil {
			items = append(items, ListItem{Term: strings.TrimSpace(m[1]), Name: strings.TrimSpace(m[2])})
			continue
		}
		if m := plainItemRe.FindStringSubmatch(line); m != nil {
			items = append(items, ListItem{Term: strings.TrimSpace(m[1]), Name: strings.TrimSpace(m[2])})
		}
	}
	return items
}

// SetRelated replaces the relationship list, creating the section when it
// does not exist yet. Names are rendered as wikilinks.
func (b *Body) SetRelated(items []ListItem) {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, "- "+it.Term+" [["+it.Name+"]]")
	}

	if sec := b.find(HeadingRelated); sec != nil {
		sec.lines = lines
		return
	}
	b.sections = append(b.sections, section{heading: HeadingRelated, lines: lines})
}

// normalize enforces the structural invariant: the Contact section, when
// present, precedes the Related section. Other sections keep their
// relative order.
func (b *Body) normalize() {
	ci, ri := -1, -1
	for i := range b.sections {
		switch {
		case strings.EqualFold(b.sections[i].heading, HeadingContact):
			ci = i
		case strings.EqualFold(b.sections[i].heading, HeadingRelated):
			ri = i
		}
	}
	if ci >= 0 && ri >= 0 && ri < ci {
		b.sections[ci], b.sections[ri] = b.sections[ri], b.sections[ci]
	}
}

// Render serializes the body: preamble first, sections separated by blank
// lines, the tag block at the very end. Rendering is a projection —
// re-parsing the output and rendering again yields identical text.
func (b *Body) Render() string {
	b.normalize()

	var parts []string
	for _, sec := range b.sections {
		text := renderSection(sec)
		if text != "" {
			parts = append(parts, text)
		}
	}
	if len(b.tags) > 0 {
		parts = append(parts, strings.Join(b.tags, "\n"))
	}

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}

func renderSection(sec section) string {
	lines := sec.lines
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	if sec.heading == "" {
		return strings.Join(lines, "\n")
	}
	if len(lines) == 0 {
		return sec.heading
	}
	return sec.heading + "\n" + strings.Join(lines, "\n")
}
