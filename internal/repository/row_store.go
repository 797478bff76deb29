package repository

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrStoreAccess    = errors.New("row store unavailable")
	ErrRowNotFound    = errors.New("row not found")
	ErrColumnNotFound = errors.New("column not found")
	ErrMissingHeader  = errors.New("stage has no header row")
)

// Record is one data row of a stage. Ref is the 1-based row number in the
// stage; the header occupies row 1.
type Record struct {
	Ref    int
	Values map[string]string
}

// Store is a grid-shaped workbook addressed by stage (worksheet) name. Values
// are always strings; callers coerce. There are no transactions: one writer
// per platform stage per run is expected.
type Store interface {
	Header(ctx context.Context, stage string) ([]string, error)
	ReadAll(ctx context.Context, stage string) ([]Record, error)
	AppendRow(ctx context.Context, stage string, record map[string]string) error
	Overwrite(ctx context.Context, stage string, header []string, rows [][]string) error
	UpdateCell(ctx context.Context, stage string, rowRef int, column, value string) error
	FindRow(ctx context.Context, stage string, match string) (int, error)
}

type StoreOpener interface {
	Open(ctx context.Context, storeID string) (Store, error)
}

func recordsFromGrid(grid [][]string) ([]string, []Record) {
	if len(grid) == 0 {
		return nil, nil
	}

	header := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		header[i] = strings.TrimSpace(h)
	}

	records := make([]Record, 0, len(grid)-1)
	for i, row := range grid[1:] {
		values := make(map[string]string, len(header))
		for col, name := range header {
			if name == "" {
				continue
			}
			if col < len(row) {
				values[name] = row[col]
			} else {
				values[name] = ""
			}
		}
		records = append(records, Record{Ref: i + 2, Values: values})
	}
	return header, records
}

func normalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// columnIndex matches header names ignoring case and surrounding whitespace.
func columnIndex(header []string, column string) int {
	want := normalizeColumn(column)
	for i, h := range header {
		if normalizeColumn(h) == want {
			return i
		}
	}
	return -1
}

// orderByHeader lays record out in header order, matching names the same way
// columnIndex does.
func orderByHeader(header []string, record map[string]string) []string {
	byName := make(map[string]string, len(record))
	for k, v := range record {
		byName[normalizeColumn(k)] = v
	}
	row := make([]string, len(header))
	for i, h := range header {
		row[i] = byName[normalizeColumn(h)]
	}
	return row
}

func findInGrid(grid [][]string, match string) int {
	for i, row := range grid {
		for _, cell := range row {
			if cell == match {
				return i + 1
			}
		}
	}
	return 0
}

// columnLetter converts a 0-based column index to A1 notation.
func columnLetter(idx int) string {
	letters := ""
	for idx >= 0 {
		letters = string(rune('A'+idx%26)) + letters
		idx = idx/26 - 1
	}
	return letters
}
