package vcf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rolo/pkg/core"
)

const (
	janeUUID = "03a0e51f-d1aa-4385-8a53-e29025acd8af"
	rosaUUID = "5f0c6f02-33a4-4d2e-9e3f-2a27a4a2a001"
)

func TestFromDocumentRequiresIdentityFields(t *testing.T) {
	_, err := FromDocument(core.Document{ID: "x", Metadata: core.Metadata{"FN": "Jane"}})
	assert.Error(t, err, "no UID")

	_, err = FromDocument(core.Document{ID: "x", Metadata: core.Metadata{
		"FN":  "Jane",
		"UID": "urn:uuid:" + janeUUID,
	}})
	assert.Error(t, err, "no REV")
}

func TestFromDocumentShape(t *testing.T) {
	rec, err := FromDocument(core.Document{ID: "jane-doe", Metadata: core.Metadata{
		"UID":               "urn:uuid:" + janeUUID,
		"REV":               "20260101T000000Z",
		"FN":                "Jane Doe",
		"GENDER":            "F",
		"ADR[home].STREET":  "123 Main St",
		"ADR[home].COUNTRY": "USA",
		"RELATED[friend]":   "urn:uuid:" + rosaUUID,
		"RELATED[parent]":   "John Doe",
	}})
	require.NoError(t, err)

	require.NotEmpty(t, rec.Fields)
	assert.Equal(t, "FN", rec.Fields[0].Name, "FN leads the record")

	adr, ok := rec.Get("ADR")
	require.True(t, ok)
	assert.Equal(t, "home", adr.Param("TYPE"))
	assert.Equal(t, ";;123 Main St;;;;USA", adr.Value)

	rels := rec.Values("RELATED")
	require.Len(t, rels, 2)
	byType := map[string]string{}
	for _, f := range rels {
		byType[f.Param("TYPE")] = f.Value
	}
	assert.Equal(t, "urn:uuid:"+rosaUUID, byType["friend"])
	assert.Equal(t, "John Doe", byType["parent"], "name targets export as text values")
}

func TestFromDocumentEscapesText(t *testing.T) {
	rec, err := FromDocument(core.Document{ID: "x", Metadata: core.Metadata{
		"UID":  "urn:uuid:" + janeUUID,
		"REV":  "20260101T000000Z",
		"FN":   "Doe; Jane",
		"NOTE": "line one\nline two",
	}})
	require.NoError(t, err)

	fn, _ := rec.Get("FN")
	assert.Equal(t, `Doe\; Jane`, fn.Value)
	note, _ := rec.Get("NOTE")
	assert.Equal(t, `line one\nline two`, note.Value)
}

func TestToDocumentDecomposesStructured(t *testing.T) {
	doc := ToDocument(Record{Fields: []Field{
		{Name: "UID", Value: "urn:uuid:" + janeUUID},
		{Name: "FN", Value: "Jane Doe"},
		{Name: "N", Value: "Doe;Jane"},
		{Name: "ADR", Params: []Param{{Name: "TYPE", Value: "home"}}, Value: ";;123 Main St;Springfield"},
		{Name: "RELATED", Params: []Param{{Name: "TYPE", Value: "friend"}}, Value: "urn:uuid:" + rosaUUID},
	}})

	assert.Equal(t, "Jane Doe", doc.Metadata["FN"])
	assert.Equal(t, "Doe", doc.Metadata["N.FAMILY"])
	assert.Equal(t, "Jane", doc.Metadata["N.GIVEN"])
	assert.Equal(t, "123 Main St", doc.Metadata["ADR[home].STREET"])
	assert.Equal(t, "Springfield", doc.Metadata["ADR[home].LOCALITY"])
	assert.Equal(t, "urn:uuid:"+rosaUUID, doc.Metadata["RELATED[friend]"])
}

func TestToDocumentRepeatedUntypedKeepsFirst(t *testing.T) {
	doc := ToDocument(Record{Fields: []Field{
		{Name: "EMAIL", Value: "first@example.com"},
		{Name: "EMAIL", Value: "second@example.com"},
		{Name: "EMAIL", Params: []Param{{Name: "TYPE", Value: "work"}}, Value: "work@example.com"},
	}})

	assert.Equal(t, "first@example.com", doc.Metadata["EMAIL"])
	assert.Equal(t, "work@example.com", doc.Metadata["EMAIL[work]"])
	assert.Len(t, doc.Metadata, 2, "second untyped email has no stable slot")
}

func TestMappingRoundTrip(t *testing.T) {
	md := core.Metadata{
		"UID":                "urn:uuid:" + janeUUID,
		"FN":                 "Jane Doe",
		"GENDER":             "F",
		"REV":                "20260101T000000Z",
		"N.FAMILY":           "Doe",
		"N.GIVEN":            "Jane",
		"ADR[home].STREET":   "123 Main St",
		"ADR[home].LOCALITY": "Springfield",
		"RELATED[friend]":    "urn:uuid:" + rosaUUID,
		"RELATED[parent]":    "John Doe",
	}

	rec, err := FromDocument(core.Document{ID: "jane-doe", Metadata: md})
	require.NoError(t, err)

	back := ToDocument(rec)
	assert.Equal(t, md, back.Metadata)
}
