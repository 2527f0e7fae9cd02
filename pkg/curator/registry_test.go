package curator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rolo/pkg/contact"
	"github.com/aretw0/rolo/pkg/relsync"
)

func noopRule(name string, phase Phase) *Rule {
	return &Rule{
		Name:  name,
		Phase: phase,
		Process: func(ctx context.Context, c *contact.Contact, res *relsync.Resolver) (*Change, error) {
			return nil, nil
		},
	}
}

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(noopRule("a", PhaseImmediate)))
	assert.Error(t, reg.Register(noopRule("a", PhaseImmediate)), "duplicate names must be rejected")
	assert.Error(t, reg.Register(&Rule{Name: "b"}), "rule without Process must be rejected")
	assert.Error(t, reg.Register(nil))

	_, ok := reg.Get("a")
	assert.True(t, ok)
	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestRegistrySetEnabled(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(noopRule("a", PhaseImmediate)))

	assert.True(t, reg.Enabled("a"))

	prev := reg.SetEnabled("a", false)
	assert.True(t, prev, "previous state was enabled")
	assert.False(t, reg.Enabled("a"))

	prev = reg.SetEnabled("a", true)
	assert.False(t, prev, "previous state was disabled")
	assert.True(t, reg.Enabled("a"))
}

func TestRegistryForPhase(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(noopRule("second", PhaseImmediate)))
	require.NoError(t, reg.Register(noopRule("deferred", PhaseDeferred)))
	require.NoError(t, reg.Register(noopRule("first", PhaseImmediate)))

	names := func(rules []*Rule) []string {
		out := make([]string, 0, len(rules))
		for _, r := range rules {
			out = append(out, r.Name)
		}
		return out
	}

	assert.Equal(t, []string{"second", "first"}, names(reg.ForPhase(PhaseImmediate)),
		"registration order must be preserved")
	assert.Equal(t, []string{"deferred"}, names(reg.ForPhase(PhaseDeferred)))

	reg.SetEnabled("second", false)
	assert.Equal(t, []string{"first"}, names(reg.ForPhase(PhaseImmediate)),
		"disabled rules are filtered")
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "immediate", PhaseImmediate.String())
	assert.Equal(t, "improvement", PhaseImprovement.String())
	assert.Equal(t, "deferred", PhaseDeferred.String())
}
