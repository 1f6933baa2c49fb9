// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/lawbook/internal/classify"
	"github.com/pdiddy/lawbook/pkg/types"
)

func articleClassifier(t *testing.T) *classify.Classifier {
	t.Helper()
	c, err := classify.New([]types.LineRule{{Pattern: `^Article \d+`, Level: 0}})
	require.NoError(t, err)
	return c
}

func TestNormalizeSegments(t *testing.T) {
	lines := []string{"Article 1", "text1", "Article 2", "text2a", "text2b"}

	doc, err := Normalize(types.Metadata{}, "Act", "", lines, articleClassifier(t))
	require.NoError(t, err)

	require.Len(t, doc.Sections, 2)
	assert.Equal(t, types.Section{Heading: "Article 1", Body: "text1"}, doc.Sections[0])
	assert.Equal(t, types.Section{Heading: "Article 2", Body: "text2a\ntext2b"}, doc.Sections[1])
}

func TestNormalizeIsPure(t *testing.T) {
	lines := []string{"序言", "第一章 总则", "第一条 内容。", "第二条 更多内容。"}
	meta := types.Metadata{ID: "abc", Publish: "2021-01-01"}

	a, err := Normalize(meta, "民法典", "（说明）", lines, classify.Default())
	require.NoError(t, err)
	b, err := Normalize(meta, "民法典", "（说明）", lines, classify.Default())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, []string{"序言", "第一章 总则", "第一条 内容。", "第二条 更多内容。"}, lines, "input must not be mutated")
}

func TestNormalizeRejectsEmptyInput(t *testing.T) {
	tests := []struct {
		name  string
		title string
		lines []string
	}{
		{"whitespace lines", "民法典", []string{"", "   ", "\t", "　"}},
		{"no lines", "民法典", nil},
		{"empty title", "  ", []string{"第一条 内容"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Normalize(types.Metadata{}, tt.title, "", tt.lines, classify.Default())
			assert.ErrorIs(t, err, ErrNotDocument)
			assert.Nil(t, doc)
		})
	}
}

func TestNormalizeFreeTextOnly(t *testing.T) {
	doc, err := Normalize(types.Metadata{}, "决定", "", []string{"  一段正文。 ", "", "第二段。"}, classify.Default())
	require.NoError(t, err)

	require.Len(t, doc.Sections, 1)
	assert.Empty(t, doc.Sections[0].Heading)
	assert.Equal(t, "一段正文。\n第二段。", doc.Sections[0].Body)
}

func TestNormalizeLevelsAndPreamble(t *testing.T) {
	lines := []string{
		"为了规范……，制定本法。",
		"第一编 总则",
		"第一章 基本规定",
		"第一条 为了保护民事主体的合法权益。",
		"民事主体在民事活动中的法律地位一律平等。",
	}
	doc, err := Normalize(types.Metadata{}, "民法典", "", lines, classify.Default())
	require.NoError(t, err)

	require.Len(t, doc.Sections, 4)
	assert.Equal(t, "", doc.Sections[0].Heading)
	assert.Equal(t, 2, doc.Sections[1].Level)
	assert.Equal(t, "", doc.Sections[1].Body)
	assert.Equal(t, 3, doc.Sections[2].Level)
	assert.Equal(t, 0, doc.Sections[3].Level)
	assert.Equal(t, "民事主体在民事活动中的法律地位一律平等。", doc.Sections[3].Body)
}

func TestNormalizeStripsTableOfContents(t *testing.T) {
	lines := []string{
		"目　　录",
		"第一章 总则",
		"第二章 附则",
		"第一章 总则",
		"第一条 内容。",
		"第二章 附则",
		"第二条 施行。",
	}
	doc, err := Normalize(types.Metadata{}, "某法", "", lines, classify.Default())
	require.NoError(t, err)

	headings := make([]string, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		headings = append(headings, s.Heading)
	}
	assert.Equal(t, []string{"第一章 总则", "第一条 内容。", "第二章 附则", "第二条 施行。"}, headings)
}

func TestNormalizeUnclosedTableOfContentsKept(t *testing.T) {
	lines := []string{"目录", "第一章 总则", "正文"}
	doc, err := Normalize(types.Metadata{}, "某法", "", lines, classify.Default())
	require.NoError(t, err)

	require.Len(t, doc.Sections, 2)
	assert.Equal(t, "目录", doc.Sections[0].Body)
	assert.Equal(t, "第一章 总则", doc.Sections[1].Heading)
}
