// Package relsync reconciles a contact's body relationship list with its
// frontmatter RELATED keys, in both directions.
//
// The two directions share the same invariants but are separate entry
// points, not one automaton. The body list is the most recently
// user-touched surface: when the two disagree about a pair after a full
// pass, the body list's version prevails and the metadata is rewritten to
// match.
package relsync

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/aretw0/rolo/pkg/contact"
	"github.com/aretw0/rolo/pkg/core"
	"github.com/aretw0/rolo/pkg/gender"
	"github.com/aretw0/rolo/pkg/relation"
)

// Result reports the outcome of one sync direction over one document.
// Entry points never fail hard: problems are collected as error strings so
// batch callers can keep going past individual documents.
type Result struct {
	OK      bool
	Changed bool
	Errors  []string
	Pending []PendingUpdate
}

func (r *Result) fail(format string, args ...any) {
	r.OK = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// PendingUpdate is a queued cross-document effect: a gender inferred for
// another contact. It is applied through the normal per-document write
// path, never as a direct mutation from inside another document's pass,
// and it never overwrites an already-known gender.
type PendingUpdate struct {
	ID     string
	Gender gender.Gender
}

// Engine performs the bidirectional reconciliation. All persistence goes
// through the repository port.
type Engine struct {
	repo core.Repository
	log  *slog.Logger
}

// NewEngine creates an engine. A nil logger is tolerated.
func NewEngine(repo core.Repository, log *slog.Logger) *Engine {
	return &Engine{repo: repo, log: log}
}

// ListToMetadata reconciles the body relationship list into the metadata
// block. Body items are canonicalized and resolved against the vault;
// unresolved names are kept as name-only targets. When the list section
// exists it is authoritative: a previously-synced pair that no longer
// appears anywhere in it is an explicit deletion. A missing section is
// "no information" and leaves the metadata untouched.
func (e *Engine) ListToMetadata(ctx context.Context, c *contact.Contact, res *Resolver) Result {
	result := Result{OK: true}

	body := c.Body()
	existing := c.Relationships()

	if !body.HasRelated() {
		return result
	}

	merged := relation.NewSet()
	proposed := make(map[string]gender.Gender)

	for _, item := range body.RelatedItems() {
		typ := gender.Canonicalize(item.Term)

		// Names are usually literal, but a previously-rendered placeholder
		// ("urn:uuid:...") is classified back into an identifier target.
		target, ok := relation.ParseTarget(item.Name)
		if !ok {
			continue
		}

		if other, resolved := res.Resolve(target); resolved {
			target = targetFor(other)
			if g := gender.Infer(item.Term); g != gender.Unknown && other.Gender() == gender.Unknown {
				if _, seen := proposed[other.ID()]; !seen {
					proposed[other.ID()] = g
				}
			}
		}

		merged.Add(typ, target)
	}

	// Keep existing entries that still appear in the list under a different
	// encoding (the body's encoding wins); drop the ones that no longer
	// appear at all.
	for _, old := range existing.Entries() {
		if !e.covered(old, merged, res) {
			if e.log != nil {
				e.log.Debug("relationship removed from body list",
					"contact", c.ID(), "type", old.Type, "target", old.Target.String())
			}
		}
	}

	for id, g := range proposed {
		result.Pending = append(result.Pending, PendingUpdate{ID: id, Gender: g})
	}
	sort.Slice(result.Pending, func(i, j int) bool { return result.Pending[i].ID < result.Pending[j].ID })

	if existing.Equal(merged) {
		return result
	}

	c.SetRelationships(merged)
	c.Touch()
	if err := e.repo.Save(ctx, c.Doc); err != nil {
		result.fail("save %s: %v", c.ID(), err)
		return result
	}
	result.Changed = true
	return result
}

// covered reports whether an existing metadata entry still appears in the
// merged body set: either as an equal pair, or as a pair whose target
// resolves to the same contact.
func (e *Engine) covered(old relation.Entry, merged *relation.Set, res *Resolver) bool {
	if merged.Contains(old) {
		return true
	}
	oldTarget, oldOK := res.Resolve(old.Target)
	if !oldOK {
		return false
	}
	for _, cur := range merged.Entries() {
		if cur.Type != old.Type {
			continue
		}
		if other, ok := res.Resolve(cur.Target); ok && other.ID() == oldTarget.ID() {
			return true
		}
	}
	return false
}

// MetadataToList renders the metadata relationship set back into the body
// list, using the target's known gender for display terms and preserving
// all surrounding body content. It also enforces the structural invariant
// that a Contact section precedes the Related section and both precede
// the trailing tag block. An unchanged body leaves the revision stamp
// untouched.
func (e *Engine) MetadataToList(ctx context.Context, c *contact.Contact, res *Resolver) Result {
	result := Result{OK: true}

	set := c.Relationships()
	body := c.Body()

	if set.Size() == 0 && !body.HasRelated() {
		return result
	}

	items := make([]contact.ListItem, 0, set.Size())
	for _, entry := range set.Entries() {
		name := entry.Target.Value
		g := gender.Unknown

		if other, ok := res.Resolve(entry.Target); ok {
			name = other.Name()
			g = other.Gender()
		} else if entry.Target.Kind != relation.KindName {
			// Resolution miss on an identifier reference: keep the raw
			// reference as a placeholder rather than dropping the edge.
			name = entry.Target.String()
		}

		items = append(items, contact.ListItem{Term: gender.TermFor(entry.Type, g), Name: name})
	}

	body.SetRelated(items)
	rendered := body.Render()
	if rendered == c.Doc.Content {
		return result
	}

	c.Doc.Content = rendered
	c.Touch()
	if err := e.repo.Save(ctx, c.Doc); err != nil {
		result.fail("save %s: %v", c.ID(), err)
		return result
	}
	result.Changed = true
	return result
}

// ApplyPending applies queued gender updates through the normal
// per-document write path. A target whose gender is already known is left
// alone: inference proposes, it never forces.
//
// When the resolver holds the target, the update mutates the resolver's
// own in-memory copy before saving. Callers sharing that copy (a pass
// over a working set) then see the new gender and cannot save a stale
// document over it later in the same pass.
func (e *Engine) ApplyPending(ctx context.Context, updates []PendingUpdate, res *Resolver) (int, []string) {
	applied := 0
	var errs []string

	for _, u := range updates {
		var target *contact.Contact
		if res != nil {
			target, _ = res.ByID(u.ID)
		}
		if target == nil {
			doc, err := e.repo.Get(ctx, u.ID)
			if err != nil {
				errs = append(errs, fmt.Sprintf("get %s: %v", u.ID, err))
				continue
			}
			target = contact.New(doc)
		}
		if target.Gender() != gender.Unknown {
			continue
		}

		target.SetGender(u.Gender)
		target.Touch()
		if err := e.repo.Save(ctx, target.Doc); err != nil {
			errs = append(errs, fmt.Sprintf("save %s: %v", u.ID, err))
			continue
		}
		if e.log != nil {
			e.log.Debug("inferred gender applied", "contact", u.ID, "gender", u.Gender.String())
		}
		applied++
	}
	return applied, errs
}

// targetFor encodes a reference to a resolved contact: urn:uuid when the
// UID is a UUID, an external-id reference for other UIDs, the display name
// when the contact has no UID yet.
func targetFor(other *contact.Contact) relation.Target {
	id := other.UID()
	if id == "" {
		return relation.Name(other.Name())
	}
	if bare := bareUID(id); uuid.Validate(bare) == nil {
		return relation.UUID(bare)
	}
	return relation.UID(bareUID(id))
}
