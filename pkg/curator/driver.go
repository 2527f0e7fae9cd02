package curator

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/aretw0/rolo/pkg/contact"
	"github.com/aretw0/rolo/pkg/core"
	"github.com/aretw0/rolo/pkg/relsync"
)

// DefaultMaxIterations bounds the convergence loop when the caller does
// not choose a cap.
const DefaultMaxIterations = 10

// Outcome summarizes one ReconcileAll run. Hitting the iteration cap with
// changes still occurring is a recorded condition, not an error.
type Outcome struct {
	Iterations int
	Converged  bool
	Changes    []Change
}

// Driver runs registered rules over the vault until no document's revision
// stamp changes. Cross-document effects are absorbed by re-snapshotting
// stamps each iteration instead of locking.
type Driver struct {
	repo     core.Repository
	registry *Registry
	log      *slog.Logger
	finisher string
}

// NewDriver creates a driver over a repository and a rule registry.
func NewDriver(repo core.Repository, registry *Registry, log *slog.Logger) *Driver {
	return &Driver{repo: repo, registry: registry, log: log}
}

// SetFinisher designates a rule that is excluded from the convergence loop
// (so it cannot fight the loop's own convergence) and instead runs exactly
// once, across the entire document set, after the loop terminates.
func (d *Driver) SetFinisher(name string) {
	d.finisher = name
}

// RunPhase invokes every enabled rule of the phase on each contact, in
// document order, collecting the applied changes. Individual rule
// failures are isolated and logged; they never abort the phase.
func (d *Driver) RunPhase(ctx context.Context, contacts []*contact.Contact, res *relsync.Resolver, phase Phase) []Change {
	var changes []Change
	for _, c := range contacts {
		for _, rule := range d.registry.ForPhase(phase) {
			if rule.Name == d.finisher {
				continue
			}
			if ch := d.invoke(ctx, rule, c, res); ch != nil {
				changes = append(changes, *ch)
			}
		}
	}
	return changes
}

// invoke guards a single rule application: an error or panic is logged
// with document context and skips only this document/rule pair.
func (d *Driver) invoke(ctx context.Context, rule *Rule, c *contact.Contact, res *relsync.Resolver) (ch *Change) {
	defer func() {
		if r := recover(); r != nil {
			var stack string
			if d.log != nil && d.log.Enabled(ctx, slog.LevelDebug) {
				stack = string(debug.Stack())
			}
			if d.log != nil {
				if stack != "" {
					d.log.Error("rule panic", "rule", rule.Name, "contact", c.ID(), "error", fmt.Sprint(r), "stack", stack)
				} else {
					d.log.Error("rule panic", "rule", rule.Name, "contact", c.ID(), "error", fmt.Sprint(r))
				}
			}
			ch = nil
		}
	}()

	result, err := rule.Process(ctx, c, res)
	if err != nil {
		if d.log != nil {
			d.log.Error("rule failed", "rule", rule.Name, "contact", c.ID(), "error", err)
		}
		return nil
	}
	return result
}

// ReconcileAll drives repeated reconciliation to a fixed point.
//
// Each iteration re-reads the vault into one resolver snapshot, snapshots
// every document's revision stamp, runs the three phases over the working
// set, then re-reads stamps: documents that changed form the next working
// set. The working set is always the resolver's own contacts, so a
// cross-document effect (an inferred gender applied through the resolver)
// lands on the same in-memory copy every later rule in the iteration
// sees; no rule can save a stale document over it. The loop stops when
// nothing changed (converged) or after maxIterations phase-triples. The
// designated finisher rule then runs once over the entire set.
func (d *Driver) ReconcileAll(ctx context.Context, maxIterations int) (*Outcome, error) {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	outcome := &Outcome{}

	// nil means the whole vault (first pass).
	var changedIDs map[string]bool

	for iter := 0; iter < maxIterations; iter++ {
		res, err := relsync.LoadResolver(ctx, d.repo)
		if err != nil {
			return nil, fmt.Errorf("load resolver: %w", err)
		}

		working := res.Contacts()
		if changedIDs != nil {
			var subset []*contact.Contact
			for _, c := range working {
				if changedIDs[c.ID()] {
					subset = append(subset, c)
				}
			}
			working = subset
		}

		stamps, err := d.snapshot(ctx)
		if err != nil {
			return nil, err
		}
		outcome.Iterations++

		for _, phase := range Phases {
			outcome.Changes = append(outcome.Changes, d.RunPhase(ctx, working, res, phase)...)
		}

		changed, err := d.changedSince(ctx, stamps)
		if err != nil {
			return nil, err
		}
		if len(changed) == 0 {
			outcome.Converged = true
			break
		}
		changedIDs = make(map[string]bool, len(changed))
		for _, id := range changed {
			changedIDs[id] = true
		}
	}

	if !outcome.Converged && d.log != nil {
		d.log.Warn("reconciliation stopped before convergence",
			"iterations", outcome.Iterations, "changes", len(outcome.Changes))
	}

	d.runFinisher(ctx, outcome)
	return outcome, nil
}

// snapshot records the revision stamp of every document in the vault, not
// just the working set, so side effects on other documents are detected.
func (d *Driver) snapshot(ctx context.Context) (map[string]string, error) {
	docs, err := d.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	stamps := make(map[string]string, len(docs))
	for _, doc := range docs {
		stamps[doc.ID] = contact.New(doc).Rev()
	}
	return stamps, nil
}

// changedSince re-reads the vault and returns the IDs of documents whose
// stamp differs from the snapshot (including documents created since).
func (d *Driver) changedSince(ctx context.Context, stamps map[string]string) ([]string, error) {
	docs, err := d.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect changes: %w", err)
	}

	var changed []string
	for _, doc := range docs {
		prev, known := stamps[doc.ID]
		if !known || contact.New(doc).Rev() != prev {
			changed = append(changed, doc.ID)
		}
	}
	return changed, nil
}

// runFinisher executes the designated write-back rule once over the whole
// vault. A finisher the caller disabled is skipped entirely: the
// designation only moves the rule out of the convergence loop, it does
// not override the registry's enabled state.
func (d *Driver) runFinisher(ctx context.Context, outcome *Outcome) {
	if d.finisher == "" {
		return
	}
	rule, ok := d.registry.Get(d.finisher)
	if !ok || !d.registry.Enabled(d.finisher) {
		return
	}

	res, err := relsync.LoadResolver(ctx, d.repo)
	if err != nil {
		if d.log != nil {
			d.log.Error("finisher skipped", "rule", d.finisher, "error", err)
		}
		return
	}

	for _, c := range res.Contacts() {
		if ch := d.invoke(ctx, rule, c, res); ch != nil {
			outcome.Changes = append(outcome.Changes, *ch)
		}
	}
}
