// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"regexp"
	"strings"

	"github.com/pdiddy/lawbook/internal/layout"
)

// administrativeSuffix matches titles of decisions, replies and approvals,
// which are not statutes.
var administrativeSuffix = regexp.MustCompile(`的(决定|复函|批复|答复)$`)

// Filter decides which catalog entries are skipped before any detail fetch.
type Filter struct {
	Prefix    string
	SpecTitle string
}

// NewFilter returns a Filter. An empty prefix uses layout.DefaultPrefix.
func NewFilter(prefix, specTitle string) Filter {
	if prefix == "" {
		prefix = layout.DefaultPrefix
	}
	return Filter{Prefix: prefix, SpecTitle: strings.TrimSpace(specTitle)}
}

// Bypassed reports whether a document with title should be skipped. With a
// spec title set, only titles containing it pass, and they always pass: the
// administrative suffix rule is not applied to them, so an explicitly
// requested decision or reply is still exported.
func (f Filter) Bypassed(title string) bool {
	stripped := layout.StripTitle(title, f.Prefix)
	if f.SpecTitle != "" {
		return !strings.Contains(stripped, f.SpecTitle)
	}
	return administrativeSuffix.MatchString(stripped)
}

// Restricted reports whether the run stops after the first matching title.
func (f Filter) Restricted() bool {
	return f.SpecTitle != ""
}
