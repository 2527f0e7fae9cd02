// Package contact provides the contact-level view over a core.Document:
// identity fields, revision stamps and the structured body sections.
package contact

import (
	"path"
	"strings"
	"time"

	"github.com/aretw0/rolo/pkg/core"
	"github.com/aretw0/rolo/pkg/gender"
	"github.com/aretw0/rolo/pkg/key"
	"github.com/aretw0/rolo/pkg/relation"
)

// Frontmatter field names shared with the vCard mapping.
const (
	FieldUID    = "UID"
	FieldName   = "FN"
	FieldGender = "GENDER"
	FieldRev    = "REV"
)

// StampLayout is the lexically-sortable UTC layout used for revision
// stamps, matching the vCard REV shape. Stamps are compared for equality
// and ordering only, never parsed for calendar meaning.
const StampLayout = "20060102T150405Z"

// Stamp renders a revision stamp for the given instant.
func Stamp(t time.Time) string {
	return t.UTC().Format(StampLayout)
}

// Contact wraps a core.Document with typed access to the recognized
// metadata fields. Unrecognized keys are left untouched and survive
// write-back verbatim.
type Contact struct {
	Doc core.Document
}

// New wraps a document. The metadata map is materialized so accessors can
// write without nil checks.
func New(doc core.Document) *Contact {
	if doc.Metadata == nil {
		doc.Metadata = make(core.Metadata)
	}
	return &Contact{Doc: doc}
}

// ID returns the document identifier (path without extension).
func (c *Contact) ID() string {
	return c.Doc.ID
}

func (c *Contact) field(name string) string {
	if v, ok := c.Doc.Metadata[name].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// UID returns the unique identifier, usually a urn:uuid value. Empty when
// the contact has not been through the uid curator yet.
func (c *Contact) UID() string {
	return c.field(FieldUID)
}

// SetUID records the unique identifier.
func (c *Contact) SetUID(uid string) {
	c.Doc.Metadata[FieldUID] = uid
}

// Name returns the display name (FN field), falling back to the file name.
func (c *Contact) Name() string {
	if fn := c.field(FieldName); fn != "" {
		return fn
	}
	return path.Base(c.Doc.ID)
}

// Gender returns the recorded gender, Unknown when absent or unparseable.
func (c *Contact) Gender() gender.Gender {
	return gender.Parse(c.field(FieldGender))
}

// SetGender records the gender. Unknown clears the field.
func (c *Contact) SetGender(g gender.Gender) {
	if g == gender.Unknown {
		delete(c.Doc.Metadata, FieldGender)
		return
	}
	c.Doc.Metadata[FieldGender] = g.String()
}

// Rev returns the current revision stamp, empty when never stamped.
func (c *Contact) Rev() string {
	return c.field(FieldRev)
}

// Touch regenerates the revision stamp. Callers invoke it only when a
// write actually changed reconciled data; an unchanged pass must leave the
// stamp alone.
func (c *Contact) Touch() {
	c.TouchAt(time.Now())
}

// TouchAt stamps the contact with the given instant.
func (c *Contact) TouchAt(t time.Time) {
	c.Doc.Metadata[FieldRev] = Stamp(t)
}

// Relationships derives the relationship set from the metadata block.
// The set is a recomputed view, not persisted state.
func (c *Contact) Relationships() *relation.Set {
	return relation.FromMetadata(c.Doc.Metadata)
}

// SetRelationships replaces every RELATED key in the metadata block with
// the indexed encoding of the given set.
func (c *Contact) SetRelationships(s *relation.Set) {
	for raw := range c.Doc.Metadata {
		if key.Parse(raw).Key == relation.FieldPrefix {
			delete(c.Doc.Metadata, raw)
		}
	}
	for k, v := range s.Fields() {
		c.Doc.Metadata[k] = v
	}
}

// Body parses the free-form text into its structured section view.
func (c *Contact) Body() *Body {
	return ParseBody(c.Doc.Content)
}
