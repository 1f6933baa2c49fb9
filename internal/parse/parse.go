// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse extracts raw text lines from catalog source files. One
// Parser exists per source format; a Registry dispatches on the format tag
// and Select orders a document's files by format preference.
package parse

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/lawbook/pkg/types"
)

var (
	// ErrUnparseable wraps every failure to extract content from a file.
	ErrUnparseable = errors.New("unparseable source")

	// ErrFormatMismatch is returned when a file is handed to the parser of
	// another format.
	ErrFormatMismatch = errors.New("file format does not match parser")
)

// Parser extracts content from files of a single format.
type Parser interface {
	// Format returns the tag this parser handles.
	Format() types.FileFormat

	// Parse downloads and decodes file. The returned lines exclude the
	// title and description.
	Parse(ctx context.Context, detail *types.DocumentDetail, file types.SourceFile) (*types.ParsedContent, error)
}

// Fetcher downloads source files.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Registry maps format tags to parsers.
type Registry struct {
	parsers map[types.FileFormat]Parser
}

// NewRegistry indexes parsers by format. A later parser for the same format
// replaces an earlier one.
func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{parsers: make(map[types.FileFormat]Parser, len(parsers))}
	for _, p := range parsers {
		r.parsers[p.Format()] = p
	}
	return r
}

// Lookup returns the parser for format.
func (r *Registry) Lookup(format types.FileFormat) (Parser, bool) {
	p, ok := r.parsers[format]
	return p, ok
}

// Supported filters preference down to the formats that have a parser,
// keeping its order.
func (r *Registry) Supported(preference []types.FileFormat) []types.FileFormat {
	var out []types.FileFormat
	for _, f := range preference {
		if _, ok := r.parsers[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Select keeps the files whose format appears in preference and orders them
// by that preference, most preferred first. Files of equal format keep their
// original order. The input slice is not modified.
func Select(files []types.SourceFile, preference []types.FileFormat) []types.SourceFile {
	rank := make(map[types.FileFormat]int, len(preference))
	for i, f := range preference {
		if _, seen := rank[f]; !seen {
			rank[f] = i
		}
	}

	var out []types.SourceFile
	for _, f := range files {
		if _, ok := rank[f.Type]; ok {
			out = append(out, f)
		}
	}
	if len(out) > 1 {
		sort.SliceStable(out, func(i, j int) bool {
			return rank[out[i].Type] < rank[out[j].Type]
		})
	}
	return out
}

func checkFormat(p Parser, file types.SourceFile) error {
	if file.Type != p.Format() {
		return fmt.Errorf("%w: %s file given to %s parser", ErrFormatMismatch, file.Type, p.Format())
	}
	return nil
}

func unparseable(format types.FileFormat, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnparseable, format, err)
}

// splitContent trims and drops empty lines, removes a leading repeat of the
// title, and takes a parenthesized first line as the description.
func splitContent(title string, raw []string) (string, []string) {
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	if len(lines) > 0 && compact(lines[0]) == compact(title) {
		lines = lines[1:]
	}

	var desc string
	if len(lines) > 0 && isParenthesized(lines[0]) {
		desc = lines[0]
		lines = lines[1:]
	}
	return desc, lines
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func isParenthesized(s string) bool {
	return (strings.HasPrefix(s, "（") && strings.HasSuffix(s, "）")) ||
		(strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"))
}

func content(format types.FileFormat, title string, raw []string) (*types.ParsedContent, error) {
	desc, lines := splitContent(title, raw)
	if len(lines) == 0 && desc == "" {
		return nil, unparseable(format, errors.New("no text extracted"))
	}
	return &types.ParsedContent{Format: format, Description: desc, Lines: lines}, nil
}
