// Package core defines the domain model and ports of the contacts vault.
package core

// Metadata represents the frontmatter key/value pairs of a contact document.
type Metadata map[string]any

// Clone returns a shallow copy of the metadata map.
// Values are shared; contact metadata only stores scalars.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Document is the central entity of the domain.
// It represents one contact file: a metadata block (frontmatter) plus
// free-form body text, identified by an ID (path without extension).
// It is agnostic to the storage backend.
type Document struct {
	ID       string
	Content  string
	Metadata Metadata
}

// Clone returns an independent copy of the document.
func (d Document) Clone() Document {
	return Document{
		ID:       d.ID,
		Content:  d.Content,
		Metadata: d.Metadata.Clone(),
	}
}

// EventType represents the type of change in the vault.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change in the vault.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}
