package fs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/rolo/pkg/core"
)

// ParseDocument reads a Markdown stream with optional YAML frontmatter
// (delimited by ---) into a Document.
func ParseDocument(r io.Reader) (*core.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := &core.Document{Metadata: make(core.Metadata)}

	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		doc.Content = string(data)
		return doc, nil
	}

	rest := data[3:]
	parts := bytes.SplitN(rest, []byte("---"), 2)
	if len(parts) == 1 {
		return nil, errors.New("frontmatter started but no closing delimiter found")
	}

	if err := yaml.Unmarshal(parts[0], &doc.Metadata); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	if doc.Metadata == nil {
		doc.Metadata = make(core.Metadata)
	}

	doc.Content = strings.TrimPrefix(string(parts[1]), "\n")
	doc.Content = strings.TrimPrefix(doc.Content, "\r\n")

	return doc, nil
}

// SerializeDocument renders a Document back to Markdown with frontmatter.
func SerializeDocument(doc core.Document) ([]byte, error) {
	var buf bytes.Buffer
	if len(doc.Metadata) > 0 {
		buf.WriteString("---\n")
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(doc.Metadata); err != nil {
			return nil, err
		}
		encoder.Close()
		buf.WriteString("---\n")
	}
	buf.WriteString(doc.Content)
	return buf.Bytes(), nil
}
