// Package rolo is a contacts vault engine: a personal contacts database
// stored as plain Markdown files with metadata frontmatter.
//
// Each contact is one Markdown document. Typed relationships between
// contacts live twice: as RELATED keys in the metadata block and as a
// human-readable list under a "## Related" heading in the body. The
// curation pipeline keeps the two representations consistent, assigns
// stable UIDs, infers gender from gendered relationship terms, and can
// mirror every contact to vCard interchange records.
//
// The usual entry point is New, which opens (or creates) a vault folder
// and returns a Service:
//
//	svc, err := rolo.New("./contacts", rolo.WithAutoInit(true))
//	if err != nil {
//		log.Fatal(err)
//	}
//	outcome, err := svc.Curate(ctx)
//
// Storage is pluggable via WithRepository; the default adapter keeps the
// vault on the local filesystem with an identity index under ".rolo".
package rolo
