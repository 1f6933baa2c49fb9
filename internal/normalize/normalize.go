// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns raw extracted lines into a CanonicalDocument by
// segmenting them at structural lines.
package normalize

import (
	"errors"
	"strings"

	"github.com/pdiddy/lawbook/internal/classify"
	"github.com/pdiddy/lawbook/pkg/types"
)

// ErrNotDocument is returned when the input holds no usable structure or text.
var ErrNotDocument = errors.New("not a document")

// tocMarker opens a table of contents block.
const tocMarker = "目录"

// Normalize segments lines into sections. Empty lines are dropped, a new
// section starts at every line the classifier accepts, and any text before
// the first structural line becomes an untitled section. It returns
// ErrNotDocument when the title is empty or nothing remains to write.
func Normalize(meta types.Metadata, title, description string, lines []string, c *classify.Classifier) (*types.CanonicalDocument, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrNotDocument
	}

	body := stripTOC(cleanLines(lines), c)

	var sections []types.Section
	var cur types.Section
	var buf []string

	flush := func() {
		cur.Body = strings.Join(buf, "\n")
		if cur.Heading != "" || cur.Body != "" {
			sections = append(sections, cur)
		}
		cur = types.Section{}
		buf = buf[:0]
	}

	for _, line := range body {
		if rule, ok := c.Classify(line); ok {
			flush()
			cur = types.Section{Heading: line, Level: rule.Level}
			continue
		}
		buf = append(buf, line)
	}
	flush()

	if len(sections) == 0 {
		return nil, ErrNotDocument
	}

	return &types.CanonicalDocument{
		Title:       title,
		Description: strings.TrimSpace(description),
		Meta:        meta,
		Sections:    sections,
	}, nil
}

// cleanLines trims every line and drops the empty ones.
func cleanLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// stripTOC removes a table of contents: the marker line and every line up
// to the point where the first listed heading appears again in the body.
// A contents block that never closes is left untouched.
func stripTOC(lines []string, c *classify.Classifier) []string {
	start := -1
	for i, l := range lines {
		if strings.Join(strings.Fields(l), "") == tocMarker {
			start = i
			break
		}
	}
	if start < 0 || start+1 >= len(lines) {
		return lines
	}

	first := lines[start+1]
	if !c.IsStartLine(first) {
		return lines
	}
	for j := start + 2; j < len(lines); j++ {
		if lines[j] == first {
			out := make([]string, 0, len(lines)-(j-start))
			out = append(out, lines[:start]...)
			return append(out, lines[j:]...)
		}
	}
	return lines
}
