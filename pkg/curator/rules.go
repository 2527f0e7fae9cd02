package curator

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/aretw0/rolo/pkg/adapters/vcf"
	"github.com/aretw0/rolo/pkg/contact"
	"github.com/aretw0/rolo/pkg/core"
	"github.com/aretw0/rolo/pkg/relsync"
)

// Names of the standard rules.
const (
	RuleUID             = "uid"
	RuleRelatedMetadata = "related-metadata"
	RuleRelatedList     = "related-list"
	RuleVCardWriteback  = "vcard-writeback"
)

// NewUIDRule assigns a urn:uuid identifier to contacts that have none.
// Other rules and the vCard mapping rely on the UID being present.
func NewUIDRule(repo core.Repository) *Rule {
	return &Rule{
		Name:  RuleUID,
		Phase: PhaseImmediate,
		Process: func(ctx context.Context, c *contact.Contact, _ *relsync.Resolver) (*Change, error) {
			if c.UID() != "" {
				return nil, nil
			}
			c.SetUID("urn:uuid:" + uuid.NewString())
			c.Touch()
			if err := repo.Save(ctx, c.Doc); err != nil {
				return nil, fmt.Errorf("save %s: %w", c.ID(), err)
			}
			return &Change{ID: c.ID(), Rule: RuleUID, Detail: "assigned uid"}, nil
		},
	}
}

// NewRelatedMetadataRule syncs the body relationship list into the
// metadata block and applies any queued gender inferences through the
// per-document write path.
func NewRelatedMetadataRule(engine *relsync.Engine) *Rule {
	return &Rule{
		Name:  RuleRelatedMetadata,
		Phase: PhaseImmediate,
		Process: func(ctx context.Context, c *contact.Contact, res *relsync.Resolver) (*Change, error) {
			result := engine.ListToMetadata(ctx, c, res)
			applied, errs := engine.ApplyPending(ctx, result.Pending, res)
			result.Errors = append(result.Errors, errs...)

			if !result.OK || len(result.Errors) > 0 {
				return nil, fmt.Errorf("list sync %s: %s", c.ID(), strings.Join(result.Errors, "; "))
			}
			if !result.Changed && applied == 0 {
				return nil, nil
			}
			detail := "metadata updated"
			if applied > 0 {
				detail = fmt.Sprintf("metadata updated, %d gender inference(s)", applied)
			}
			return &Change{ID: c.ID(), Rule: RuleRelatedMetadata, Detail: detail}, nil
		},
	}
}

// NewRelatedListRule renders the metadata relationship set back into the
// body list.
func NewRelatedListRule(engine *relsync.Engine) *Rule {
	return &Rule{
		Name:  RuleRelatedList,
		Phase: PhaseImprovement,
		Process: func(ctx context.Context, c *contact.Contact, res *relsync.Resolver) (*Change, error) {
			result := engine.MetadataToList(ctx, c, res)
			if !result.OK {
				return nil, fmt.Errorf("list render %s: %s", c.ID(), strings.Join(result.Errors, "; "))
			}
			if !result.Changed {
				return nil, nil
			}
			return &Change{ID: c.ID(), Rule: RuleRelatedList, Detail: "body list rendered"}, nil
		},
	}
}

// NewVCardWritebackRule exports a contact to an interchange record file in
// dir. Registered as the driver's finisher: it runs outside the
// convergence loop so its file writes cannot fight convergence. The file
// is only rewritten when its content differs.
func NewVCardWritebackRule(dir string) *Rule {
	return &Rule{
		Name:  RuleVCardWriteback,
		Phase: PhaseDeferred,
		Process: func(ctx context.Context, c *contact.Contact, _ *relsync.Resolver) (*Change, error) {
			record, err := vcf.FromDocument(c.Doc)
			if err != nil {
				return nil, fmt.Errorf("export %s: %w", c.ID(), err)
			}

			var buf bytes.Buffer
			if err := vcf.Serialize([]vcf.Record{record}, &buf); err != nil {
				return nil, fmt.Errorf("serialize %s: %w", c.ID(), err)
			}

			target := filepath.Join(dir, recordFileName(c))
			if existing, err := os.ReadFile(target); err == nil && bytes.Equal(existing, buf.Bytes()) {
				return nil, nil
			}

			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create export dir: %w", err)
			}
			if err := os.WriteFile(target, buf.Bytes(), 0644); err != nil {
				return nil, fmt.Errorf("write %s: %w", target, err)
			}
			return &Change{ID: c.ID(), Rule: RuleVCardWriteback, Detail: target}, nil
		},
	}
}

func recordFileName(c *contact.Contact) string {
	name := strings.TrimSpace(c.Name())
	if name == "" {
		name = filepath.Base(c.ID())
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '-'
		}
		return r
	}, name)
	return name + ".vcf"
}

// RegisterStandardRules wires the default rule set into a registry and
// returns the finisher name, or an error if a name collides.
func RegisterStandardRules(reg *Registry, repo core.Repository, engine *relsync.Engine, vcfDir string) (string, error) {
	rules := []*Rule{
		NewUIDRule(repo),
		NewRelatedMetadataRule(engine),
		NewRelatedListRule(engine),
	}
	finisher := ""
	if vcfDir != "" {
		rules = append(rules, NewVCardWritebackRule(vcfDir))
		finisher = RuleVCardWriteback
	}
	for _, rule := range rules {
		if err := reg.Register(rule); err != nil {
			return "", err
		}
	}
	return finisher, nil
}
