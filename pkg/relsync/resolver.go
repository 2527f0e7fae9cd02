package relsync

import (
	"context"
	"strings"

	"github.com/aretw0/rolo/pkg/contact"
	"github.com/aretw0/rolo/pkg/core"
	"github.com/aretw0/rolo/pkg/relation"
)

// Resolver resolves relationship targets to vault contacts by exact
// display name or by UID. It is a snapshot: build one per reconciliation
// pass so side effects from other documents are absorbed on the next pass.
type Resolver struct {
	contacts []*contact.Contact
	byID     map[string]*contact.Contact
	byName   map[string]*contact.Contact
	byUID    map[string]*contact.Contact
}

// NewResolver indexes the given contacts. On collisions the first contact
// wins; later files with a duplicate name are still reachable by UID.
func NewResolver(contacts []*contact.Contact) *Resolver {
	r := &Resolver{
		contacts: contacts,
		byID:     make(map[string]*contact.Contact, len(contacts)),
		byName:   make(map[string]*contact.Contact, len(contacts)),
		byUID:    make(map[string]*contact.Contact, len(contacts)),
	}
	for _, c := range contacts {
		if id := c.ID(); id != "" {
			if _, ok := r.byID[id]; !ok {
				r.byID[id] = c
			}
		}
		name := foldName(c.Name())
		if name != "" {
			if _, ok := r.byName[name]; !ok {
				r.byName[name] = c
			}
		}
		if uid := bareUID(c.UID()); uid != "" {
			if _, ok := r.byUID[uid]; !ok {
				r.byUID[uid] = c
			}
		}
	}
	return r
}

// LoadResolver builds a resolver over the whole vault.
func LoadResolver(ctx context.Context, repo core.Repository) (*Resolver, error) {
	docs, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	contacts := make([]*contact.Contact, 0, len(docs))
	for _, doc := range docs {
		contacts = append(contacts, contact.New(doc))
	}
	return NewResolver(contacts), nil
}

// Contacts returns the indexed snapshot.
func (r *Resolver) Contacts() []*contact.Contact {
	return r.contacts
}

// ByID looks a contact up by document ID. The returned contact is the
// snapshot's own copy: mutations through it are visible to every caller
// holding the same resolver.
func (r *Resolver) ByID(id string) (*contact.Contact, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// ByName looks a contact up by exact display name (case-insensitive).
func (r *Resolver) ByName(name string) (*contact.Contact, bool) {
	c, ok := r.byName[foldName(name)]
	return c, ok
}

// ByUID looks a contact up by UID, accepting both bare values and
// urn:uuid / uid prefixed forms.
func (r *Resolver) ByUID(uid string) (*contact.Contact, bool) {
	c, ok := r.byUID[bareUID(uid)]
	return c, ok
}

// Resolve maps a relationship target to a contact, when one matches.
func (r *Resolver) Resolve(t relation.Target) (*contact.Contact, bool) {
	switch t.Kind {
	case relation.KindUUID, relation.KindUID:
		return r.ByUID(t.Value)
	}
	return r.ByName(t.Value)
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func bareUID(uid string) string {
	uid = strings.TrimSpace(uid)
	uid = strings.TrimPrefix(uid, "urn:uuid:")
	uid = strings.TrimPrefix(uid, "uid:")
	return strings.ToLower(uid)
}
