// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package layout maps document titles to relative output paths, grouping
// them into category folders.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/lawbook/pkg/types"
)

// DefaultPrefix is the national-name boilerplate stripped from titles.
const DefaultPrefix = "中华人民共和国"

// Extension is the suffix of every output file.
const Extension = ".md"

// unsafe replaces characters that would move a file out of its folder.
var unsafe = strings.NewReplacer("/", "_", "\\", "_", "\x00", "_")

// Resolver computes output paths. It is safe for concurrent use once built.
type Resolver struct {
	Prefix     string
	Categories []types.CategoryRule
}

// NewResolver returns a Resolver. An empty prefix uses DefaultPrefix.
func NewResolver(prefix string, categories []types.CategoryRule) *Resolver {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Resolver{Prefix: prefix, Categories: categories}
}

// StripTitle removes the boilerplate prefix wherever it occurs and
// normalizes the result to NFC.
func StripTitle(title, prefix string) string {
	if prefix != "" {
		title = strings.ReplaceAll(title, prefix, "")
	}
	return norm.NFC.String(strings.TrimSpace(title))
}

// Category returns the folder of the first rule matching the stripped
// title, or "" when no rule matches.
func (r *Resolver) Category(title string) string {
	title = StripTitle(title, r.Prefix)
	if title == "" {
		return ""
	}
	for _, c := range r.Categories {
		for _, t := range c.Titles {
			if strings.Contains(t, title) {
				return c.Category
			}
		}
	}
	return ""
}

// Resolve returns the relative output path for a title and optional
// publish date: "{category}/{title}({publish}).md".
func (r *Resolver) Resolve(title, publish string) string {
	stripped := StripTitle(title, r.Prefix)
	name := unsafe.Replace(stripped)
	if publish != "" {
		name = fmt.Sprintf("%s(%s)", name, publish)
	}
	name += Extension

	if cat := r.Category(title); cat != "" {
		return filepath.Join(filepath.FromSlash(cat), name)
	}
	return name
}

// categoriesFile is the on-disk layout of a standalone category file.
type categoriesFile struct {
	Categories []types.CategoryRule `yaml:"categories"`
}

// LoadCategories reads category rules from a YAML file. Both a top-level
// list and a document with a "categories" key are accepted.
func LoadCategories(path string) ([]types.CategoryRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading categories file: %w", err)
	}

	var list []types.CategoryRule
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var cf categoriesFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing categories file %s: %w", path, err)
	}
	return cf.Categories, nil
}
