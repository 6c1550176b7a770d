package deck

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"vocab-match-server/deckerrors"
)

// IngestReport summarizes how the rows of a spreadsheet were handled.
type IngestReport struct {
	Rows       int `json:"rows"`
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
	Incomplete int `json:"incomplete"`
	Malformed  int `json:"malformed"`
}

// SupportedExtensions lists the upload formats Parse understands.
var SupportedExtensions = []string{".xlsx", ".csv"}

// Parse reads a two-column spreadsheet and returns its normalized, deduplicated pairs.
// The format is chosen from the filename extension.
func Parse(filename string, r io.Reader) ([]WordPair, IngestReport, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		rows, err = readXLSX(r)
	case ".csv":
		rows, err = readCSV(r)
	default:
		return nil, IngestReport{}, fmt.Errorf("%s: %w (expected %s)", filename, deckerrors.ErrUnsupportedFormat,
			strings.Join(SupportedExtensions, " or "))
	}
	if err != nil {
		return nil, IngestReport{}, fmt.Errorf("reading %s: %w", filename, err)
	}

	pairs, report := NormalizeRows(rows)
	slog.Info("deck parsed", "tag", "deck", "file", filename, "rows", report.Rows, "accepted", report.Accepted,
		"duplicates", report.Duplicates, "incomplete", report.Incomplete, "malformed", report.Malformed)
	if len(pairs) == 0 {
		return nil, report, fmt.Errorf("%s: %w", filename, deckerrors.ErrNoPairs)
	}
	return pairs, report, nil
}

// NormalizeRows turns raw rows into pairs. Column A is the source text, column B the target.
// Cells are trimmed; rows missing either value are skipped; duplicate combinations
// (case-insensitive) are dropped.
func NormalizeRows(rows [][]string) ([]WordPair, IngestReport) {
	report := IngestReport{Rows: len(rows)}
	seen := make(map[string]struct{}, len(rows))
	pairs := make([]WordPair, 0, len(rows))

	for i, row := range rows {
		rowNum := i + 1
		if len(row) < 2 {
			if hasContent(row) {
				report.Malformed++
				slog.Warn("skipping malformed row", "tag", "deck", "row", rowNum, "columns", len(row), "content", strings.Join(row, ", "))
			}
			continue
		}

		source := strings.TrimSpace(row[0])
		target := strings.TrimSpace(row[1])
		if source == "" || target == "" {
			if source != "" || target != "" {
				report.Incomplete++
				slog.Warn("skipping row with missing value", "tag", "deck", "row", rowNum, "colA", source, "colB", target)
			}
			continue
		}

		key := strings.ToLower(source) + "|" + strings.ToLower(target)
		if _, dup := seen[key]; dup {
			report.Duplicates++
			slog.Warn("skipping duplicate pair", "tag", "deck", "row", rowNum, "colA", source, "colB", target)
			continue
		}
		seen[key] = struct{}{}
		pairs = append(pairs, WordPair{
			ID:     fmt.Sprintf("pair-%d", len(pairs)),
			Source: source,
			Target: target,
		})
	}

	report.Accepted = len(pairs)
	return pairs, report
}

func hasContent(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return true
		}
	}
	return false
}

// readXLSX returns the rows of the first sheet, padded to the widest row so that
// trailing empty cells still count as columns.
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}
