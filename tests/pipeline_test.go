package tests_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rolo"
	"github.com/aretw0/rolo/pkg/contact"
	"github.com/aretw0/rolo/pkg/core"
	"github.com/aretw0/rolo/pkg/gender"
)

// writeVault seeds a vault directory with raw Markdown files.
func writeVault(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func TestPipelineEndToEnd(t *testing.T) {
	ctx := context.Background()

	dir := writeVault(t, map[string]string{
		"rosa-doe.md": "---\nFN: Rosa Doe\n---\n",
		"john-doe.md": "---\nFN: John Doe\nGENDER: M\n---\n",
		"me.md": "---\nFN: Test Person\n---\n" +
			"Some notes about me.\n\n" +
			"## Related\n\n" +
			"- mother [[Rosa Doe]]\n" +
			"- father [[John Doe]]\n\n" +
			"#family\n",
	})

	svc, err := rolo.New(dir, rolo.WithAutoInit(true))
	require.NoError(t, err)

	outcome, err := svc.Curate(ctx)
	require.NoError(t, err)
	require.True(t, outcome.Converged, "vault must reach a fixed point")
	assert.NotEmpty(t, outcome.Changes)

	// Every contact picked up a uid.
	contacts, err := svc.ListContacts(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 3)
	for _, c := range contacts {
		assert.NotEmpty(t, c.UID(), "contact %s has no uid", c.ID())
	}

	// "mother" implied Rosa's gender; John's explicit gender is untouched.
	rosa, err := svc.GetContact(ctx, "rosa-doe")
	require.NoError(t, err)
	assert.Equal(t, gender.Female, rosa.Gender())
	john, err := svc.GetContact(ctx, "john-doe")
	require.NoError(t, err)
	assert.Equal(t, gender.Male, john.Gender())

	// The body list resolved both edges into uuid metadata references, and
	// the rendered list kept its gendered terms and the trailing tag block.
	me, err := svc.GetContact(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, 2, me.Relationships().Size())
	assert.Contains(t, me.Doc.Content, "- mother [[Rosa Doe]]")
	assert.Contains(t, me.Doc.Content, "- father [[John Doe]]")
	assert.Contains(t, me.Doc.Content, "Some notes about me.")
	assert.Contains(t, me.Doc.Content, "#family")

	// A second run over the settled vault is a no-op.
	again, err := svc.Curate(ctx)
	require.NoError(t, err)
	assert.True(t, again.Converged)
	assert.Empty(t, again.Changes)
}

func TestPipelineDeletionPropagation(t *testing.T) {
	ctx := context.Background()

	dir := writeVault(t, map[string]string{
		"me.md": "---\nFN: Test Person\n" +
			"\"RELATED[friend]\": Sam Smith\n" +
			"\"RELATED[1:friend]\": Alex Jones\n" +
			"---\n" +
			"## Related\n\n" +
			"- friend [[Sam Smith]]\n",
	})

	svc, err := rolo.New(dir, rolo.WithAutoInit(true))
	require.NoError(t, err)

	_, err = svc.Curate(ctx)
	require.NoError(t, err)

	me, err := svc.GetContact(ctx, "me")
	require.NoError(t, err)
	rels := me.Relationships()
	assert.Equal(t, 1, rels.Size(), "the edge missing from the body list is deleted")
	assert.NotContains(t, me.Doc.Content, "Alex Jones")
}

func TestPipelineVCFMirror(t *testing.T) {
	ctx := context.Background()

	dir := writeVault(t, map[string]string{
		"jane-doe.md": "---\nFN: Jane Doe\n---\n",
	})
	vcfDir := filepath.Join(dir, ".rolo", "vcf")

	svc, err := rolo.New(dir, rolo.WithAutoInit(true), rolo.WithVCFDir(vcfDir))
	require.NoError(t, err)

	_, err = svc.Curate(ctx)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(vcfDir, "Jane Doe.vcf"))
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "BEGIN:VCARD"))
	assert.Contains(t, text, "FN:Jane Doe")
	assert.Contains(t, text, "UID:urn:uuid:")
}

func TestPipelineImportThenCurate(t *testing.T) {
	ctx := context.Background()

	svc, err := rolo.New(t.TempDir(), rolo.WithAutoInit(true))
	require.NoError(t, err)

	card := "BEGIN:VCARD\r\n" +
		"VERSION:4.0\r\n" +
		"UID:urn:uuid:03a0e51f-d1aa-4385-8a53-e29025acd8af\r\n" +
		"FN:Rosa Doe\r\n" +
		"GENDER:F\r\n" +
		"END:VCARD\r\n"

	n, err := svc.ImportVCF(ctx, strings.NewReader(card))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// Reference the imported contact from a new document and reconcile.
	me := contact.New(core.Document{
		ID:       "me",
		Metadata: core.Metadata{"FN": "Test Person"},
		Content:  "## Related\n\n- parent [[Rosa Doe]]\n",
	})
	require.NoError(t, svc.SaveContact(ctx, me))

	_, err = svc.Curate(ctx)
	require.NoError(t, err)

	got, err := svc.GetContact(ctx, "me")
	require.NoError(t, err)
	assert.Contains(t, got.Doc.Content, "- mother [[Rosa Doe]]",
		"known gender renders the gendered term")
}
