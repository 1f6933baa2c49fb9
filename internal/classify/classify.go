// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify decides whether a line of statute text opens a new
// structural unit (part, chapter, section, article).
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/lawbook/pkg/types"
)

// Numerals used by Chinese statute headings, in both Han and Arabic form.
const numerals = `[一二三四五六七八九十百千零〇\d]+`

// Rule is one compiled structural pattern.
type Rule struct {
	Pattern *regexp.Regexp

	// Level is the Markdown heading depth for lines matching Pattern.
	// Zero marks an inline unit such as an article.
	Level int
}

// DefaultRules are the structural patterns for PRC statutes. Order matters:
// Classify reports the first rule that matches.
var DefaultRules = []types.LineRule{
	{Pattern: `^第` + numerals + `编`, Level: 2},
	{Pattern: `^第` + numerals + `分编`, Level: 2},
	{Pattern: `^第` + numerals + `章`, Level: 3},
	{Pattern: `^第` + numerals + `节`, Level: 4},
	{Pattern: `^第` + numerals + `条`, Level: 0},
}

// Classifier matches lines against an ordered rule set.
type Classifier struct {
	rules []Rule
}

// New compiles rules in order. An empty rule set falls back to DefaultRules.
func New(rules []types.LineRule) (*Classifier, error) {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	c := &Classifier{rules: make([]Rule, 0, len(rules))}
	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling line rule %q: %w", r.Pattern, err)
		}
		c.rules = append(c.rules, Rule{Pattern: re, Level: r.Level})
	}
	return c, nil
}

// Default returns a Classifier built from DefaultRules.
func Default() *Classifier {
	c, err := New(DefaultRules)
	if err != nil {
		panic(err)
	}
	return c
}

// IsStartLine reports whether line begins a new structural unit.
func (c *Classifier) IsStartLine(line string) bool {
	_, ok := c.Classify(line)
	return ok
}

// Classify returns the first rule matching the trimmed line.
func (c *Classifier) Classify(line string) (Rule, bool) {
	line = strings.TrimSpace(line)
	for _, r := range c.rules {
		if r.Pattern.MatchString(line) {
			return r, true
		}
	}
	return Rule{}, false
}
