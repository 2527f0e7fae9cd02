package platform

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rolo/pkg/contact"
	"github.com/aretw0/rolo/pkg/core"
	"github.com/aretw0/rolo/pkg/gender"
)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	svc, err := New(t.TempDir(), append([]Option{WithAutoInit(true)}, opts...)...)
	require.NoError(t, err)
	return svc
}

func save(t *testing.T, svc *Service, doc core.Document) {
	t.Helper()
	require.NoError(t, svc.SaveContact(context.Background(), contact.New(doc)))
}

func TestServiceCRUD(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	save(t, svc, core.Document{ID: "jane-doe", Metadata: core.Metadata{"FN": "Jane Doe"}})

	c, err := svc.GetContact(ctx, "jane-doe")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", c.Name())

	contacts, err := svc.ListContacts(ctx)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)

	require.NoError(t, svc.DeleteContact(ctx, "jane-doe"))
	_, err = svc.GetContact(ctx, "jane-doe")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestServiceReadOnly(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	rw, err := New(dir, WithAutoInit(true))
	require.NoError(t, err)
	save(t, rw, core.Document{ID: "jane", Metadata: core.Metadata{"FN": "Jane"}})

	ro, err := New(dir, WithReadOnly(true))
	require.NoError(t, err)

	err = ro.SaveContact(ctx, contact.New(core.Document{ID: "x"}))
	assert.True(t, errors.Is(err, core.ErrReadOnly))
}

func TestServiceCurate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	save(t, svc, core.Document{ID: "rosa-doe", Metadata: core.Metadata{"FN": "Rosa Doe"}})
	save(t, svc, core.Document{
		ID:       "me",
		Metadata: core.Metadata{"FN": "Test Person"},
		Content:  "## Related\n\n- mother [[Rosa Doe]]\n",
	})

	outcome, err := svc.Curate(ctx)
	require.NoError(t, err)
	assert.True(t, outcome.Converged)

	rosa, err := svc.GetContact(ctx, "rosa-doe")
	require.NoError(t, err)
	assert.NotEmpty(t, rosa.UID(), "curation assigns uids")
	assert.Equal(t, gender.Female, rosa.Gender(), "mother implies female")

	me, err := svc.GetContact(ctx, "me")
	require.NoError(t, err)
	rels := me.Relationships()
	require.Equal(t, 1, rels.Size())
	assert.Contains(t, me.Doc.Content, "- mother [[Rosa Doe]]")

	// Re-curating a settled vault changes nothing.
	again, err := svc.Curate(ctx)
	require.NoError(t, err)
	assert.True(t, again.Converged)
	assert.Empty(t, again.Changes)
}

func TestServiceCurateWritesVCF(t *testing.T) {
	ctx := context.Background()
	vcfDir := t.TempDir()
	svc := newTestService(t, WithVCFDir(vcfDir))

	save(t, svc, core.Document{ID: "jane-doe", Metadata: core.Metadata{"FN": "Jane Doe"}})

	_, err := svc.Curate(ctx)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(vcfDir, "Jane Doe.vcf"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "FN:Jane Doe")
	assert.Contains(t, string(data), "BEGIN:VCARD")
}

func TestServiceImportExport(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	card := "BEGIN:VCARD\r\n" +
		"VERSION:4.0\r\n" +
		"UID:urn:uuid:03a0e51f-d1aa-4385-8a53-e29025acd8af\r\n" +
		"FN:Jane Doe\r\n" +
		"END:VCARD\r\n"

	n, err := svc.ImportVCF(ctx, strings.NewReader(card))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	c, err := svc.GetContact(ctx, "jane-doe")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", c.Name())
	assert.NotEmpty(t, c.Rev(), "import stamps a revision so the card stays exportable")

	var buf bytes.Buffer
	n, err = svc.ExportVCF(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, buf.String(), "FN:Jane Doe")
}

func TestServiceExportSkipsContactsWithoutUID(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	save(t, svc, core.Document{ID: "draft", Metadata: core.Metadata{"FN": "Draft Person"}})

	var buf bytes.Buffer
	n, err := svc.ExportVCF(ctx, &buf)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImportID(t *testing.T) {
	tests := []struct {
		md   core.Metadata
		want string
	}{
		{core.Metadata{"FN": "Jane Doe"}, "jane-doe"},
		{core.Metadata{"FN": "  O'Brien, Pat  "}, "o-brien-pat"},
		{core.Metadata{"UID": "urn:uuid:ABC-123"}, "abc-123"},
		{core.Metadata{}, ""},
	}

	for _, tt := range tests {
		c := contact.New(core.Document{Metadata: tt.md})
		assert.Equal(t, tt.want, importID(c))
	}
}
