package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/introspection"

	"github.com/aretw0/rolo/pkg/adapters/vcf"
	"github.com/aretw0/rolo/pkg/contact"
	"github.com/aretw0/rolo/pkg/core"
	"github.com/aretw0/rolo/pkg/curator"
	"github.com/aretw0/rolo/pkg/relsync"
)

// Service is the application facade over the contacts vault. It bundles
// the storage adapter with the relationship sync engine and the curation
// driver, so callers deal with contacts rather than raw documents.
type Service struct {
	repo          core.Repository
	registry      *curator.Registry
	engine        *relsync.Engine
	driver        *curator.Driver
	logger        *slog.Logger
	vcfDir        string
	maxIterations int
}

// ListContacts returns every contact in the vault.
func (s *Service) ListContacts(ctx context.Context) ([]*contact.Contact, error) {
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	contacts := make([]*contact.Contact, 0, len(docs))
	for _, doc := range docs {
		contacts = append(contacts, contact.New(doc))
	}
	return contacts, nil
}

// GetContact retrieves a single contact by ID.
func (s *Service) GetContact(ctx context.Context, id string) (*contact.Contact, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return contact.New(doc), nil
}

// SaveContact persists a contact.
func (s *Service) SaveContact(ctx context.Context, c *contact.Contact) error {
	return s.repo.Save(ctx, c.Doc)
}

// DeleteContact removes a contact by ID. Relationship entries in other
// contacts that point at the removed one are left in place; the curator
// surfaces them as unresolved references instead of cascading deletes.
func (s *Service) DeleteContact(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Curate runs the full curation pipeline until the vault converges or
// the iteration cap is hit.
func (s *Service) Curate(ctx context.Context) (*curator.Outcome, error) {
	return s.driver.ReconcileAll(ctx, s.maxIterations)
}

// Registry exposes the rule registry so callers can toggle rules before
// curating.
func (s *Service) Registry() *curator.Registry {
	return s.registry
}

// Watch observes the vault for changes matching the given pattern. The
// repository must support watching.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	watchable, ok := s.repo.(core.Watchable)
	if !ok {
		return nil, fmt.Errorf("repository does not support watching")
	}
	return watchable.Watch(ctx, pattern)
}

// Reconcile detects changes made while no watcher was running.
func (s *Service) Reconcile(ctx context.Context) ([]core.Event, error) {
	reconcilable, ok := s.repo.(core.Reconcilable)
	if !ok {
		return nil, fmt.Errorf("repository does not support reconciliation")
	}
	return reconcilable.Reconcile(ctx)
}

// ImportVCF reads interchange records from r and saves each as a contact
// document. Existing documents with the same ID are overwritten. Returns
// the number of contacts imported.
func (s *Service) ImportVCF(ctx context.Context, r io.Reader) (int, error) {
	records, err := vcf.Parse(r)
	if err != nil {
		return 0, fmt.Errorf("failed to parse vcf: %w", err)
	}

	imported := 0
	for _, rec := range records {
		doc := vcf.ToDocument(rec)
		c := contact.New(doc)

		id := importID(c)
		if id == "" {
			if s.logger != nil {
				s.logger.Warn("skipping record without name or uid")
			}
			continue
		}
		c.Doc.ID = id
		if c.Rev() == "" {
			// Cards without a revision get stamped now so they stay
			// exportable without a curation pass.
			c.Touch()
		}

		if err := s.repo.Save(ctx, c.Doc); err != nil {
			return imported, fmt.Errorf("failed to save imported contact %s: %w", id, err)
		}
		imported++
	}

	return imported, nil
}

// ExportVCF writes every contact carrying a UID and REV to w as
// interchange records. Contacts missing either are skipped with a
// warning; run Curate first to assign them. Returns the number of
// contacts exported.
func (s *Service) ExportVCF(ctx context.Context, w io.Writer) (int, error) {
	contacts, err := s.ListContacts(ctx)
	if err != nil {
		return 0, err
	}

	var records []vcf.Record
	for _, c := range contacts {
		rec, err := vcf.FromDocument(c.Doc)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("skipping contact during export", "id", c.ID(), "error", err)
			}
			continue
		}
		records = append(records, rec)
	}

	if err := vcf.Serialize(records, w); err != nil {
		return 0, err
	}
	return len(records), nil
}

// importID derives a document ID for an imported record: the slugged
// display name, falling back to the bare UID.
func importID(c *contact.Contact) string {
	if s := slug(c.Name()); s != "" {
		return s
	}
	if uid := c.UID(); uid != "" {
		return slug(strings.TrimPrefix(strings.ToLower(uid), "urn:uuid:"))
	}
	return ""
}

func slug(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// ServiceState exposes internal state for observability.
type ServiceState struct {
	MaxIterations int    `json:"max_iterations"`
	VCFDir        string `json:"vcf_dir,omitempty"`
	Repository    any    `json:"repository,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	state := ServiceState{
		MaxIterations: s.maxIterations,
		VCFDir:        s.vcfDir,
	}
	if in, ok := s.repo.(introspection.Introspectable); ok {
		state.Repository = in.State()
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
