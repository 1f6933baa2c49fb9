// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"

	"github.com/pdiddy/lawbook/pkg/types"
)

// HTMLParser extracts text from HTML renditions. The page body is sanitized,
// converted to Markdown, and flattened back into plain lines.
type HTMLParser struct {
	fetcher Fetcher
	policy  *bluemonday.Policy
	conv    *converter.Converter
}

// NewHTMLParser returns a parser that downloads files through f.
func NewHTMLParser(f Fetcher) *HTMLParser {
	return &HTMLParser{
		fetcher: f,
		policy:  bluemonday.UGCPolicy(),
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Format returns types.FormatHTML.
func (p *HTMLParser) Format() types.FileFormat { return types.FormatHTML }

// Parse downloads file and extracts its lines.
func (p *HTMLParser) Parse(ctx context.Context, detail *types.DocumentDetail, file types.SourceFile) (*types.ParsedContent, error) {
	if err := checkFormat(p, file); err != nil {
		return nil, err
	}
	data, err := p.fetcher.Fetch(ctx, file.URL)
	if err != nil {
		return nil, unparseable(p.Format(), err)
	}
	return p.parseBytes(detail.Title, data)
}

func (p *HTMLParser) parseBytes(title string, data []byte) (*types.ParsedContent, error) {
	r, err := charset.NewReader(bytes.NewReader(data), "text/html")
	if err != nil {
		return nil, unparseable(p.Format(), fmt.Errorf("detecting charset: %w", err))
	}
	doc, err := html.Parse(r)
	if err != nil {
		return nil, unparseable(p.Format(), fmt.Errorf("parsing HTML: %w", err))
	}

	if title == "" {
		title = findTitle(doc)
	}

	root := findElement(doc, atom.Body)
	if root == nil {
		root = doc
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return nil, unparseable(p.Format(), fmt.Errorf("rendering body: %w", err))
	}

	md, err := p.conv.ConvertString(p.policy.Sanitize(buf.String()))
	if err != nil {
		return nil, unparseable(p.Format(), fmt.Errorf("converting to markdown: %w", err))
	}

	return content(p.Format(), title, markdownLines(md))
}

// findElement returns the first element of type a in document order.
func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func findTitle(doc *html.Node) string {
	t := findElement(doc, atom.Title)
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return strings.TrimSpace(t.FirstChild.Data)
}

var (
	mdEscape   = regexp.MustCompile(`\\([\\` + "`" + `*_{}\[\]()#+\-.!|>~])`)
	mdEmphasis = strings.NewReplacer("**", "", "__", "")
)

// markdownLines strips the Markdown markup the converter adds so that the
// normalizer sees the statute text as written.
func markdownLines(md string) []string {
	var lines []string
	for _, l := range strings.Split(md, "\n") {
		l = strings.TrimSpace(l)
		l = strings.TrimLeft(l, "#>")
		l = mdEmphasis.Replace(l)
		l = mdEscape.ReplaceAllString(l, "$1")
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
