// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/lawbook/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.LedgerConfig{Path: filepath.Join(t.TempDir(), "index", "ledger.db")})
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	t.Cleanup(func() { s.Close() })
	return s
}

func doc(id, title string) *types.CanonicalDocument {
	return &types.CanonicalDocument{
		Title: title,
		Meta:  types.Metadata{ID: id, Publish: "2021-01-01", Format: types.FormatWord},
	}
}

func TestRecordWriteAndList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordWrite(ctx, "b.md", doc("2", "乙法")))
	require.NoError(t, s.RecordWrite(ctx, "a.md", doc("1", "甲法")))

	entries, err := s.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.md", entries[0].Path)
	assert.Equal(t, "甲法", entries[0].Title)
	assert.Equal(t, types.FormatWord, entries[0].Format)
	assert.Equal(t, "2021-01-01", entries[0].Publish)
	assert.Equal(t, 2026, entries[0].WrittenAt.Year())
}

func TestRecordWriteUpserts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordWrite(ctx, "a.md", doc("1", "旧标题")))
	require.NoError(t, s.RecordWrite(ctx, "a.md", doc("1", "新标题")))

	entries, err := s.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "新标题", entries[0].Title)
}

func TestRecordRemoval(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordWrite(ctx, "a.md", doc("1", "甲法")))
	require.NoError(t, s.RecordRemoval(ctx, "a.md", []string{"/repo/法律/a.md"}))

	visible, err := s.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := s.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Removed)

	n, err := s.Removals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Rewriting the document clears the flag.
	require.NoError(t, s.RecordWrite(ctx, "a.md", doc("1", "甲法")))
	visible, err = s.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, visible, 1)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(types.LedgerConfig{})
	assert.Error(t, err)
}
