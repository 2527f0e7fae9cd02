// Package curator hosts the rule registry and the convergence driver that
// repeatedly reconciles the whole contact set to a fixed point.
package curator

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/rolo/pkg/contact"
	"github.com/aretw0/rolo/pkg/relsync"
)

// Phase orders rule execution within one convergence iteration.
type Phase int

const (
	// PhaseImmediate rules run first: identity and metadata repairs.
	PhaseImmediate Phase = iota
	// PhaseImprovement rules refine derived surfaces (rendered lists).
	PhaseImprovement
	// PhaseDeferred rules run last; the write-back finisher lives here.
	PhaseDeferred
)

func (p Phase) String() string {
	switch p {
	case PhaseImmediate:
		return "immediate"
	case PhaseImprovement:
		return "improvement"
	case PhaseDeferred:
		return "deferred"
	}
	return "unknown"
}

// Phases lists the phases in execution order.
var Phases = []Phase{PhaseImmediate, PhaseImprovement, PhaseDeferred}

// Change records one applied transformation for reporting.
type Change struct {
	ID     string
	Rule   string
	Detail string
}

// Rule is a named, phase-tagged transformation over a single contact.
// Process returns nil when the rule has nothing to do for this document.
type Rule struct {
	Name    string
	Phase   Phase
	Process func(ctx context.Context, c *contact.Contact, res *relsync.Resolver) (*Change, error)
}

// Registry holds the configured rules. It is an explicit object handed to
// the driver at construction time, not ambient global state, so tests can
// build isolated instances.
type Registry struct {
	mu       sync.RWMutex
	rules    map[string]*Rule
	order    []string
	disabled map[string]bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rules:    make(map[string]*Rule),
		disabled: make(map[string]bool),
	}
}

// Register adds a rule. Names are unique.
func (r *Registry) Register(rule *Rule) error {
	if rule == nil || rule.Name == "" || rule.Process == nil {
		return fmt.Errorf("invalid rule")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[rule.Name]; exists {
		return fmt.Errorf("rule %q already registered", rule.Name)
	}
	r.rules[rule.Name] = rule
	r.order = append(r.order, rule.Name)
	return nil
}

// Get returns a rule by name.
func (r *Registry) Get(name string) (*Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[name]
	return rule, ok
}

// Enabled reports whether a rule is currently enabled.
func (r *Registry) Enabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rules[name]
	return ok && !r.disabled[name]
}

// SetEnabled flips a rule's enabled state and returns the previous state,
// so callers can restore it afterwards.
func (r *Registry) SetEnabled(name string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := !r.disabled[name]
	r.disabled[name] = !enabled
	return prev
}

// ForPhase returns the enabled rules of a phase in registration order.
func (r *Registry) ForPhase(p Phase) []*Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Rule
	for _, name := range r.order {
		rule := r.rules[name]
		if rule.Phase == p && !r.disabled[name] {
			out = append(out, rule)
		}
	}
	return out
}
