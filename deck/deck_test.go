package deck

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"vocab-match-server/deckerrors"
)

func TestShuffle_IsPermutation(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6, 7, 8}
	out := Shuffle(rand.New(rand.NewSource(42)), in)

	assert.ElementsMatch(t, in, out)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, in, "input must not be modified")
}

func TestShuffle_NilRandAndEmpty(t *testing.T) {
	assert.Empty(t, Shuffle[int](nil, nil))
	assert.ElementsMatch(t, []string{"a", "b"}, Shuffle(nil, []string{"a", "b"}))
}

func TestShuffle_CoversAllPositions(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	firsts := make(map[int]int)
	for i := 0; i < 600; i++ {
		firsts[Shuffle(r, []int{0, 1, 2})[0]]++
	}
	for v := 0; v < 3; v++ {
		assert.Greater(t, firsts[v], 100, "value %d should lead a reasonable share of permutations", v)
	}
}

func TestNormalizeRows(t *testing.T) {
	rows := [][]string{
		{" dog ", "Hund"},
		{"cat", "Katze"},
		{"DOG", "hund"}, // duplicate, case-insensitive
		{"bird", ""},    // incomplete
		{"", ""},        // blank, ignored silently
		{"lonely"},      // malformed
		{},              // empty, ignored silently
		{"house", "Haus", "extra"},
	}

	pairs, report := NormalizeRows(rows)

	require.Len(t, pairs, 3)
	assert.Equal(t, WordPair{ID: "pair-0", Source: "dog", Target: "Hund"}, pairs[0])
	assert.Equal(t, WordPair{ID: "pair-1", Source: "cat", Target: "Katze"}, pairs[1])
	assert.Equal(t, WordPair{ID: "pair-2", Source: "house", Target: "Haus"}, pairs[2])
	assert.Equal(t, IngestReport{Rows: 8, Accepted: 3, Duplicates: 1, Incomplete: 1, Malformed: 1}, report)
}

func TestParse_CSV(t *testing.T) {
	data := "\ufeffdog,Hund\ncat,Katze\n\"ice cream\",\"Eis, das\"\ndog,Hund\n"

	pairs, report, err := Parse("animals.CSV", strings.NewReader(data))

	require.NoError(t, err)
	require.Len(t, pairs, 3)
	assert.Equal(t, "dog", pairs[0].Source)
	assert.Equal(t, "Eis, das", pairs[2].Target)
	assert.Equal(t, 1, report.Duplicates)
}

func TestParse_XLSX(t *testing.T) {
	data := buildXLSX(t, [][]any{
		{"der Tisch", "table"},
		{"die Lampe", ""},
		{"das Buch", "book"},
	})

	pairs, report, err := Parse("furniture.xlsx", bytes.NewReader(data))

	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, "der Tisch", pairs[0].Source)
	assert.Equal(t, "book", pairs[1].Target)
	assert.Equal(t, 1, report.Incomplete)
}

func TestParse_XLSXSingleColumnIsMalformed(t *testing.T) {
	data := buildXLSX(t, [][]any{{"only"}, {"one column"}})

	_, report, err := Parse("single.xlsx", bytes.NewReader(data))

	assert.ErrorIs(t, err, deckerrors.ErrNoPairs)
	assert.Equal(t, 2, report.Malformed)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
		wantErr  error
	}{
		{"unsupported extension", "words.ods", "a,b", deckerrors.ErrUnsupportedFormat},
		{"empty csv", "empty.csv", "", deckerrors.ErrNoPairs},
		{"only incomplete rows", "partial.csv", "a,\n,b\n", deckerrors.ErrNoPairs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.filename, strings.NewReader(tt.data))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.filename)
		})
	}
}

func TestParse_UnsupportedListsFormats(t *testing.T) {
	_, _, err := Parse("notes.txt", strings.NewReader("a,b"))

	assert.ErrorIs(t, err, deckerrors.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "(expected .xlsx or .csv)")
}

func TestParse_CorruptXLSX(t *testing.T) {
	_, _, err := Parse("broken.xlsx", strings.NewReader("not a zip"))

	require.Error(t, err)
	assert.NotErrorIs(t, err, deckerrors.ErrNoPairs)
	assert.Contains(t, err.Error(), "reading broken.xlsx")
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file-manifest.json")
	content := `[
		{"name": "Animals", "path": "animals.csv", "description": "Basic animals"},
		{"name": "", "path": "nameless.csv"},
		{"name": "Food", "path": "food.xlsx"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	entries, err := LoadManifest(path)

	require.NoError(t, err)
	assert.Equal(t, []ManifestEntry{
		{Name: "Animals", Path: "animals.csv", Description: "Basic animals"},
		{Name: "Food", Path: "food.xlsx"},
	}, entries)
}

func TestLoadManifest_Errors(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = LoadManifest(path)
	assert.ErrorContains(t, err, "parsing manifest")
}

func buildXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}
