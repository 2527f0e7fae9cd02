package curator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rolo/pkg/contact"
	"github.com/aretw0/rolo/pkg/core"
	"github.com/aretw0/rolo/pkg/relsync"
)

// memRepo is an in-memory core.Repository for driver tests.
type memRepo struct {
	docs map[string]core.Document
}

func newMemRepo(docs ...core.Document) *memRepo {
	r := &memRepo{docs: make(map[string]core.Document)}
	for _, d := range docs {
		r.docs[d.ID] = d.Clone()
	}
	return r
}

func (r *memRepo) Initialize(ctx context.Context) error { return nil }

func (r *memRepo) Save(ctx context.Context, doc core.Document) error {
	r.docs[doc.ID] = doc.Clone()
	return nil
}

func (r *memRepo) Get(ctx context.Context, id string) (core.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return core.Document{}, fmt.Errorf("%s: %w", id, core.ErrNotFound)
	}
	return doc.Clone(), nil
}

func (r *memRepo) List(ctx context.Context) ([]core.Document, error) {
	out := make([]core.Document, 0, len(r.docs))
	for _, d := range r.docs {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) Delete(ctx context.Context, id string) error {
	delete(r.docs, id)
	return nil
}

func standardDriver(t *testing.T, repo *memRepo) *Driver {
	t.Helper()
	reg := NewRegistry()
	engine := relsync.NewEngine(repo, nil)
	finisher, err := RegisterStandardRules(reg, repo, engine, "")
	require.NoError(t, err)
	driver := NewDriver(repo, reg, nil)
	driver.SetFinisher(finisher)
	return driver
}

func TestReconcileAllConverges(t *testing.T) {
	ctx := context.Background()

	repo := newMemRepo(
		core.Document{ID: "rosa-doe", Metadata: core.Metadata{"FN": "Rosa Doe"}},
		core.Document{
			ID:       "me",
			Metadata: core.Metadata{"FN": "Test Person"},
			Content:  "## Related\n\n- mother [[Rosa Doe]]\n",
		},
	)
	driver := standardDriver(t, repo)

	outcome, err := driver.ReconcileAll(ctx, 0)
	require.NoError(t, err)
	assert.True(t, outcome.Converged)
	assert.NotEmpty(t, outcome.Changes)
	assert.Less(t, outcome.Iterations, DefaultMaxIterations)

	// A converged vault reconciles to itself.
	again, err := driver.ReconcileAll(ctx, 0)
	require.NoError(t, err)
	assert.True(t, again.Converged)
	assert.Equal(t, 1, again.Iterations)
	assert.Empty(t, again.Changes)

	// Rosa picked up her uid and inferred gender along the way.
	doc, err := repo.Get(ctx, "rosa-doe")
	require.NoError(t, err)
	rosa := contact.New(doc)
	assert.NotEmpty(t, rosa.UID())
	assert.Equal(t, "F", rosa.Gender().String())
}

func TestInferredGenderSurvivesLaterSaves(t *testing.T) {
	ctx := context.Background()

	// "me" sorts before "rosa-doe", so the inference for Rosa is written
	// while Rosa's own uid pass is still ahead in the same iteration. That
	// later save must carry the inferred gender, not a stale copy.
	repo := newMemRepo(
		core.Document{
			ID:       "me",
			Metadata: core.Metadata{"FN": "Test Person"},
			Content:  "## Related\n\n- mother [[Rosa Doe]]\n",
		},
		core.Document{ID: "rosa-doe", Metadata: core.Metadata{"FN": "Rosa Doe"}},
	)
	driver := standardDriver(t, repo)

	outcome, err := driver.ReconcileAll(ctx, 0)
	require.NoError(t, err)
	require.True(t, outcome.Converged)

	doc, err := repo.Get(ctx, "rosa-doe")
	require.NoError(t, err)
	rosa := contact.New(doc)
	assert.NotEmpty(t, rosa.UID())
	assert.Equal(t, "F", rosa.Gender().String(), "uid save must not erase the inference")

	doc, err = repo.Get(ctx, "me")
	require.NoError(t, err)
	assert.True(t, strings.Contains(doc.Content, "- mother [[Rosa Doe]]"),
		"the gendered term survives convergence: %q", doc.Content)
}

func TestReconcileAllCapRecordedNotFatal(t *testing.T) {
	ctx := context.Background()

	repo := newMemRepo(core.Document{ID: "x", Metadata: core.Metadata{}})
	reg := NewRegistry()

	// A rule that never settles: every pass writes a new revision stamp.
	n := 0
	require.NoError(t, reg.Register(&Rule{
		Name:  "restless",
		Phase: PhaseImmediate,
		Process: func(ctx context.Context, c *contact.Contact, res *relsync.Resolver) (*Change, error) {
			n++
			c.Doc.Metadata["REV"] = fmt.Sprintf("%020d", n)
			if err := repo.Save(ctx, c.Doc); err != nil {
				return nil, err
			}
			return &Change{ID: c.ID(), Rule: "restless"}, nil
		},
	}))

	driver := NewDriver(repo, reg, nil)
	outcome, err := driver.ReconcileAll(ctx, 3)
	require.NoError(t, err, "hitting the cap is a condition, not an error")
	assert.False(t, outcome.Converged)
	assert.Equal(t, 3, outcome.Iterations)
	assert.Len(t, outcome.Changes, 3)
}

func TestRunPhaseIsolatesPanics(t *testing.T) {
	ctx := context.Background()

	repo := newMemRepo(
		core.Document{ID: "a", Metadata: core.Metadata{}},
		core.Document{ID: "b", Metadata: core.Metadata{}},
	)
	reg := NewRegistry()

	require.NoError(t, reg.Register(&Rule{
		Name:  "explosive",
		Phase: PhaseImmediate,
		Process: func(ctx context.Context, c *contact.Contact, res *relsync.Resolver) (*Change, error) {
			if c.ID() == "a" {
				panic("boom")
			}
			return &Change{ID: c.ID(), Rule: "explosive"}, nil
		},
	}))

	driver := NewDriver(repo, reg, nil)

	res, err := relsync.LoadResolver(ctx, repo)
	require.NoError(t, err)

	changes := driver.RunPhase(ctx, res.Contacts(), res, PhaseImmediate)
	require.Len(t, changes, 1, "the panicking document is skipped, the other survives")
	assert.Equal(t, "b", changes[0].ID)
}

func TestFinisherRunsOnceAfterLoop(t *testing.T) {
	ctx := context.Background()

	repo := newMemRepo(
		core.Document{ID: "a", Metadata: core.Metadata{}},
		core.Document{ID: "b", Metadata: core.Metadata{}},
	)
	reg := NewRegistry()

	calls := 0
	require.NoError(t, reg.Register(&Rule{
		Name:  "writeback",
		Phase: PhaseDeferred,
		Process: func(ctx context.Context, c *contact.Contact, res *relsync.Resolver) (*Change, error) {
			calls++
			return nil, nil
		},
	}))

	driver := NewDriver(repo, reg, nil)
	driver.SetFinisher("writeback")

	_, err := driver.ReconcileAll(ctx, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, calls, "finisher runs exactly once per document, outside the loop")
}

func TestDisabledFinisherIsSkipped(t *testing.T) {
	ctx := context.Background()

	repo := newMemRepo(core.Document{ID: "a", Metadata: core.Metadata{}})
	reg := NewRegistry()

	calls := 0
	require.NoError(t, reg.Register(&Rule{
		Name:  "writeback",
		Phase: PhaseDeferred,
		Process: func(ctx context.Context, c *contact.Contact, res *relsync.Resolver) (*Change, error) {
			calls++
			return nil, nil
		},
	}))
	reg.SetEnabled("writeback", false)

	driver := NewDriver(repo, reg, nil)
	driver.SetFinisher("writeback")

	_, err := driver.ReconcileAll(ctx, 0)
	require.NoError(t, err)

	assert.Zero(t, calls, "an explicitly disabled finisher does not run")
	assert.False(t, reg.Enabled("writeback"))
}
