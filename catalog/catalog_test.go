package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocab-match-server/deck"
	"vocab-match-server/deckerrors"
	"vocab-match-server/storage"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "animals.csv"), []byte("dog,Hund\ncat,Katze\nbird,Vogel\n"), 0o644))
	presets := []deck.ManifestEntry{
		{Name: "Animals", Path: "animals.csv", Description: "Basic animals"},
		{Name: "Missing", Path: "missing.csv"},
	}
	return New(dir, presets, storage.NewMemoryStore(10), 10)
}

func TestCatalog_ListPresets(t *testing.T) {
	c := newTestCatalog(t)

	entries, err := c.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{ID: "preset:animals.csv", Name: "Animals", Description: "Basic animals"},
		{ID: "preset:missing.csv", Name: "Missing"},
	}, entries)
}

func TestCatalog_PresetPairs(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	pairs, err := c.Pairs(ctx, "preset:animals.csv")
	require.NoError(t, err)
	assert.Len(t, pairs, 3)
	assert.Equal(t, deck.WordPair{ID: "pair-0", Source: "dog", Target: "Hund"}, pairs[0])

	name, err := c.DeckName(ctx, "preset:animals.csv")
	require.NoError(t, err)
	assert.Equal(t, "Animals", name)

	e, err := c.Get(ctx, "preset:animals.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, e.PairCount)
	assert.False(t, e.Uploaded)
}

func TestCatalog_UnknownIDs(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	for _, id := range []string{"", "animals.csv", "preset:../etc/passwd.csv", "upload:not-a-uuid", "upload:0b7d3f5e-1c2a-4b8e-9f6d-3a2c1b0e9d8f"} {
		_, err := c.Pairs(ctx, id)
		assert.ErrorIs(t, err, deckerrors.ErrDeckNotFound, id)
	}

	_, err := c.Pairs(ctx, "preset:missing.csv")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCatalog_Upload(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	e, report, err := c.Upload(ctx, "food.csv", strings.NewReader("Brot,bread\nKäse,cheese\nBrot,bread\n"))

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(e.ID, "upload:"))
	assert.Equal(t, "food.csv (Uploaded)", e.Name)
	assert.Equal(t, 2, e.PairCount)
	assert.Equal(t, 1, report.Duplicates)

	pairs, err := c.Pairs(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Käse", pairs[1].Source)

	name, err := c.DeckName(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "food.csv", name)

	got, err := c.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, got)

	entries, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, e, entries[0], "uploads are listed before presets")
}

func TestCatalog_UploadSameNameListedOnce(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	first, _, err := c.Upload(ctx, "food.csv", strings.NewReader("Brot,bread\n"))
	require.NoError(t, err)
	second, _, err := c.Upload(ctx, "food.csv (Uploaded)", strings.NewReader("Brot,bread\nMilch,milk\n"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	entries, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, 2, entries[0].PairCount)
}

func TestCatalog_UploadErrors(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	_, _, err := c.Upload(ctx, "notes.txt", strings.NewReader("a,b"))
	assert.ErrorIs(t, err, deckerrors.ErrUnsupportedFormat)

	_, report, err := c.Upload(ctx, "empty.csv", strings.NewReader("only\n,\n"))
	assert.ErrorIs(t, err, deckerrors.ErrNoPairs)
	assert.Equal(t, 1, report.Malformed)

	entries, err := c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "failed uploads are not listed")
}
