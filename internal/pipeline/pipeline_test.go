// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/lawbook/internal/classify"
	"github.com/pdiddy/lawbook/internal/layout"
	"github.com/pdiddy/lawbook/internal/normalize"
	"github.com/pdiddy/lawbook/internal/parse"
	"github.com/pdiddy/lawbook/internal/sink"
	"github.com/pdiddy/lawbook/pkg/types"
)

type fakeCatalog struct {
	mu      sync.Mutex
	pages   map[int][]types.DocumentSummary
	details map[string]*types.DocumentDetail
	listed  []int
	fetched []string
}

func (c *fakeCatalog) ListPage(_ context.Context, page int) ([]types.DocumentSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listed = append(c.listed, page)
	return c.pages[page], nil
}

func (c *fakeCatalog) Detail(_ context.Context, id string) (*types.DocumentDetail, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetched = append(c.fetched, id)
	d, ok := c.details[id]
	if !ok {
		return nil, fmt.Errorf("no detail for %s", id)
	}
	return d, nil
}

// fakeParser returns canned lines keyed by file URL. URLs missing from the
// table fail as unparseable.
type fakeParser struct {
	format types.FileFormat
	lines  map[string][]string
}

func (p *fakeParser) Format() types.FileFormat { return p.format }

func (p *fakeParser) Parse(_ context.Context, _ *types.DocumentDetail, file types.SourceFile) (*types.ParsedContent, error) {
	lines, ok := p.lines[file.URL]
	if !ok {
		return nil, fmt.Errorf("%w: %s", parse.ErrUnparseable, file.URL)
	}
	return &types.ParsedContent{Format: p.format, Description: "（2020年5月28日通过）", Lines: lines}, nil
}

type failingSink struct{ writes int }

func (s *failingSink) Write(string, *types.CanonicalDocument) error {
	s.writes++
	return errors.New("disk full")
}

func (s *failingSink) Path(rel string) string { return rel }

type recorder struct{ paths []string }

func (r *recorder) RecordWrite(_ context.Context, path string, _ *types.CanonicalDocument) error {
	r.paths = append(r.paths, path)
	return errors.New("ledger locked")
}

var statuteLines = []string{"第一编 总则", "第一章 基本规定", "第一条 为了保护民事主体的合法权益，制定本法。"}

func newCatalog() *fakeCatalog {
	return &fakeCatalog{
		pages: map[int][]types.DocumentSummary{
			1: {
				{ID: "civil", Title: "中华人民共和国民法典", Publish: "2020-05-28 00:00:00"},
				{ID: "decision", Title: "全国人民代表大会常务委员会关于修改《中华人民共和国会计法》的决定", Publish: "2017-11-04 00:00:00"},
			},
			2: {
				{ID: "criminal", Title: "中华人民共和国刑法", Publish: "2020-12-26 00:00:00"},
				{ID: "empty", Title: "中华人民共和国空白法", Publish: "2021-01-01 00:00:00"},
			},
		},
		details: map[string]*types.DocumentDetail{
			"civil": {ID: "civil", Title: "中华人民共和国民法典", Body: []types.SourceFile{
				{Type: types.FormatPDF, URL: "civil.pdf"},
				{Type: types.FormatHTML, URL: "civil.html"},
			}},
			"criminal": {ID: "criminal", Title: "中华人民共和国刑法", Office: "全国人民代表大会", Body: []types.SourceFile{
				{Type: types.FormatHTML, URL: "criminal-broken.html"},
				{Type: "OFD", URL: "criminal.ofd"},
			}},
			"empty": {ID: "empty", Title: "中华人民共和国空白法", Body: []types.SourceFile{
				{Type: types.FormatHTML, URL: "empty.html"},
			}},
		},
	}
}

func newConfig(t *testing.T, cat Catalog, root string) Config {
	t.Helper()
	return Config{
		Catalog: cat,
		Parsers: parse.NewRegistry(
			&fakeParser{format: types.FormatHTML, lines: map[string][]string{
				"civil.html": statuteLines,
				"empty.html": {"   ", ""},
			}},
			&fakeParser{format: types.FormatPDF, lines: map[string][]string{}},
		),
		Preference: []types.FileFormat{types.FormatHTML, types.FormatWord, types.FormatPDF},
		Classifier: classify.Default(),
		Resolver: layout.NewResolver("", []types.CategoryRule{
			{Category: "民法典", Titles: []string{"民法典"}},
		}),
		Sink: sink.New(root),
	}
}

func outputFiles(t *testing.T, root string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestRun(t *testing.T) {
	root := t.TempDir()
	cat := newCatalog()
	var out bytes.Buffer
	cfg := newConfig(t, cat, root)
	cfg.Out = &out

	d, err := New(cfg)
	require.NoError(t, err)
	result, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Written)
	assert.Equal(t, 1, result.Bypassed)
	assert.Equal(t, 1, result.Skipped, "empty document")
	assert.Equal(t, 2, result.Failed, "civil PDF and criminal HTML")
	assert.Equal(t, []int{1, 2, 3}, cat.listed, "stops at the first empty page")
	assert.NotContains(t, cat.fetched, "decision", "bypassed entries are never fetched")

	files := outputFiles(t, root)
	require.Len(t, files, 1)
	doc, ok := files["民法典/民法典(2020-05-28).md"]
	require.True(t, ok, "got %v", files)
	assert.Contains(t, doc, "# 中华人民共和国民法典")
	assert.Contains(t, doc, "## 第一编 总则")
	assert.Contains(t, doc, "第一条 为了保护民事主体的合法权益，制定本法。")
	assert.Contains(t, out.String(), "Batch summary: 1 written, 1 bypassed, 1 skipped, 2 failed")
}

func TestRunTriesEverySelectedFile(t *testing.T) {
	root := t.TempDir()
	cat := &fakeCatalog{
		pages: map[int][]types.DocumentSummary{1: {{ID: "a", Title: "Act"}}},
		details: map[string]*types.DocumentDetail{"a": {ID: "a", Title: "Act", Body: []types.SourceFile{
			{Type: types.FormatPDF, URL: "a.pdf"},
			{Type: types.FormatHTML, URL: "a.html"},
		}}},
	}
	cfg := newConfig(t, cat, root)
	cfg.Classifier = mustClassifier(t)
	cfg.Parsers = parse.NewRegistry(
		&fakeParser{format: types.FormatHTML, lines: map[string][]string{"a.html": {"Article 1", "html text"}}},
		&fakeParser{format: types.FormatPDF, lines: map[string][]string{"a.pdf": {"Article 1", "pdf text"}}},
	)
	cfg.PageTo = 1

	d, err := New(cfg)
	require.NoError(t, err)
	result, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Written)
	require.Len(t, result.Records, 2)
	for _, rec := range result.Records {
		assert.Equal(t, "Act.md", rec.Path)
		assert.Equal(t, "Act", rec.Document.Title)
	}
	assert.Contains(t, outputFiles(t, root)["Act.md"], "pdf text", "later files in preference order overwrite earlier ones")
	assert.Equal(t, []int{1}, cat.listed)
}

func mustClassifier(t *testing.T) *classify.Classifier {
	t.Helper()
	c, err := classify.New([]types.LineRule{{Pattern: `^Article \d+`}})
	require.NoError(t, err)
	return c
}

func TestRunIsIdempotent(t *testing.T) {
	root := t.TempDir()

	run := func() map[string]string {
		d, err := New(newConfig(t, newCatalog(), root))
		require.NoError(t, err)
		_, err = d.Run(context.Background())
		require.NoError(t, err)
		return outputFiles(t, root)
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)

	var names []string
	for name := range second {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, n := range names {
		assert.False(t, strings.HasSuffix(n, ".tmp"), "temp file left behind: %s", n)
	}
}

func TestRunWriteFailureIsFatal(t *testing.T) {
	cat := newCatalog()
	cfg := newConfig(t, cat, t.TempDir())
	failing := &failingSink{}
	cfg.Sink = failing

	d, err := New(cfg)
	require.NoError(t, err)
	result, err := d.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, failing.writes)
	assert.Equal(t, 0, result.Written)
	assert.Equal(t, []int{1}, cat.listed, "no further pages after a write failure")
}

func TestRunSpecTitleReturnsEarly(t *testing.T) {
	root := t.TempDir()
	cat := newCatalog()
	cfg := newConfig(t, cat, root)
	cfg.Filter = NewFilter("", "民法典")

	d, err := New(cfg)
	require.NoError(t, err)
	result, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Written)
	assert.Equal(t, []string{"civil"}, cat.fetched)
	assert.Equal(t, []int{1}, cat.listed)
}

func TestRunCancelled(t *testing.T) {
	cat := newCatalog()
	d, err := New(newConfig(t, cat, t.TempDir()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, cat.fetched)
}

func TestRunRecordsAbsolutePaths(t *testing.T) {
	root := t.TempDir()
	cfg := newConfig(t, newCatalog(), root)
	rec := &recorder{}
	cfg.Recorder = rec

	d, err := New(cfg)
	require.NoError(t, err)
	_, err = d.Run(context.Background())
	require.NoError(t, err, "recorder errors are not fatal")

	require.Len(t, rec.paths, 1)
	assert.True(t, filepath.IsAbs(rec.paths[0]))
	assert.Equal(t, filepath.Join(root, "民法典", "民法典(2020-05-28).md"), rec.paths[0])
}

func TestNewRequiresComponents(t *testing.T) {
	cfg := newConfig(t, newCatalog(), t.TempDir())
	cfg.Sink = nil
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = newConfig(t, nil, t.TempDir())
	d, err := New(cfg)
	require.NoError(t, err)
	_, err = d.Run(context.Background())
	assert.Error(t, err, "Run needs a catalog")
}

func TestParseFile(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(t.TempDir(), "civil.txt")
	text := "\n中华人民共和国民法典\n（2020年5月28日通过）\n\n第一编 总则\n  第一条 内容。  \n"
	require.NoError(t, os.WriteFile(src, []byte(text), 0o644))

	d, err := New(newConfig(t, nil, root))
	require.NoError(t, err)
	rel, err := d.ParseFile(context.Background(), src, "2020-05-28")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("民法典", "民法典(2020-05-28).md"), rel)
	doc := outputFiles(t, root)["民法典/民法典(2020-05-28).md"]
	assert.Contains(t, doc, "（2020年5月28日通过）")
	assert.Contains(t, doc, "## 第一编 总则")
	assert.Contains(t, doc, "第一条 内容。")
}

func TestParseFileEmpty(t *testing.T) {
	src := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(src, []byte("  \n\n"), 0o644))

	d, err := New(newConfig(t, nil, t.TempDir()))
	require.NoError(t, err)
	_, err = d.ParseFile(context.Background(), src, "")
	assert.ErrorIs(t, err, normalize.ErrNotDocument)

	_, err = d.ParseFile(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), "")
	assert.Error(t, err)
}
