// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sink renders canonical documents as Markdown and writes them
// under an output root.
package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lawbook/pkg/types"
)

// infoEnd separates the document header from its body.
const infoEnd = "<!-- INFO END -->"

// Sink writes documents below Root. Writes overwrite existing files.
type Sink struct {
	Root string
}

// New returns a Sink rooted at root.
func New(root string) *Sink {
	return &Sink{Root: root}
}

// Path returns the absolute location of a relative output path.
func (s *Sink) Path(rel string) string {
	return filepath.Join(s.Root, rel)
}

// Write renders doc and stores it at rel under the sink root, creating
// missing directories. The file is written to a temporary name and renamed
// so readers never observe a partial document.
func (s *Sink) Write(rel string, doc *types.CanonicalDocument) error {
	content, err := Render(doc)
	if err != nil {
		return err
	}

	dest := s.Path(rel)
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".lawbook-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.WriteString(content)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", rel, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions on %s: %w", rel, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// frontmatter is the YAML header of a rendered document.
type frontmatter struct {
	Title          string `yaml:"title"`
	types.Metadata `yaml:",inline"`
}

// Render produces the Markdown text for doc. Output depends only on doc,
// so rewriting an unchanged document yields identical bytes.
func Render(doc *types.CanonicalDocument) (string, error) {
	fm, err := yaml.Marshal(frontmatter{Title: doc.Title, Metadata: doc.Meta})
	if err != nil {
		return "", fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	if doc.Description != "" {
		b.WriteString(doc.Description)
		b.WriteString("\n\n")
	}
	b.WriteString(infoEnd)
	b.WriteString("\n")

	for _, sec := range doc.Sections {
		b.WriteString("\n")
		if sec.Heading != "" {
			if sec.Level > 0 {
				fmt.Fprintf(&b, "%s %s\n", strings.Repeat("#", sec.Level), sec.Heading)
			} else {
				b.WriteString(sec.Heading)
				b.WriteString("\n")
			}
			if sec.Body != "" {
				b.WriteString("\n")
			}
		}
		if sec.Body != "" {
			b.WriteString(strings.ReplaceAll(sec.Body, "\n", "\n\n"))
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}
