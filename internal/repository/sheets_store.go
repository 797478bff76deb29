package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type sheetsOpener struct {
	srv *sheets.Service
}

// NewSheetsOpener authenticates against the Sheets API. credentials may be a
// path to a service-account file or the JSON document itself.
func NewSheetsOpener(ctx context.Context, credentials string, opts ...option.ClientOption) (StoreOpener, error) {
	if credentials != "" {
		if strings.HasPrefix(strings.TrimSpace(credentials), "{") {
			opts = append(opts, option.WithCredentialsJSON([]byte(credentials)))
		} else {
			opts = append(opts, option.WithCredentialsFile(credentials))
		}
	}
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsScope))

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: %v", ErrStoreAccess, err)
	}
	return &sheetsOpener{srv: srv}, nil
}

func (o *sheetsOpener) Open(ctx context.Context, storeID string) (Store, error) {
	if storeID == "" {
		return nil, fmt.Errorf("%w: empty spreadsheet id", ErrStoreAccess)
	}
	return &sheetsStore{srv: o.srv, spreadsheetID: storeID}, nil
}

type sheetsStore struct {
	srv           *sheets.Service
	spreadsheetID string
}

func sheetRange(stage, cells string) string {
	quoted := "'" + strings.ReplaceAll(stage, "'", "''") + "'"
	if cells == "" {
		return quoted
	}
	return quoted + "!" + cells
}

func (s *sheetsStore) grid(ctx context.Context, rng string) ([][]string, error) {
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: read %s: %v", ErrStoreAccess, rng, err)
	}

	grid := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		grid[i] = make([]string, len(row))
		for j, cell := range row {
			grid[i][j] = fmt.Sprint(cell)
		}
	}
	return grid, nil
}

func (s *sheetsStore) Header(ctx context.Context, stage string) ([]string, error) {
	grid, err := s.grid(ctx, sheetRange(stage, "1:1"))
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, nil
	}
	return grid[0], nil
}

func (s *sheetsStore) ReadAll(ctx context.Context, stage string) ([]Record, error) {
	grid, err := s.grid(ctx, sheetRange(stage, ""))
	if err != nil {
		return nil, err
	}
	_, records := recordsFromGrid(grid)
	return records, nil
}

func (s *sheetsStore) AppendRow(ctx context.Context, stage string, record map[string]string) error {
	header, err := s.Header(ctx, stage)
	if err != nil {
		return err
	}
	if len(header) == 0 {
		return fmt.Errorf("append to %q: %w", stage, ErrMissingHeader)
	}

	vr := &sheets.ValueRange{Values: [][]interface{}{toCells(orderByHeader(header, record))}}
	_, err = s.srv.Spreadsheets.Values.Append(s.spreadsheetID, sheetRange(stage, ""), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("%w: append to %s: %v", ErrStoreAccess, stage, err)
	}
	return nil
}

func (s *sheetsStore) Overwrite(ctx context.Context, stage string, header []string, rows [][]string) error {
	_, err := s.srv.Spreadsheets.Values.Clear(s.spreadsheetID, sheetRange(stage, ""), &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("%w: clear %s: %v", ErrStoreAccess, stage, err)
	}

	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, toCells(header))
	for _, row := range rows {
		values = append(values, toCells(row))
	}

	_, err = s.srv.Spreadsheets.Values.Update(s.spreadsheetID, sheetRange(stage, "A1"), &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("%w: write %s: %v", ErrStoreAccess, stage, err)
	}
	return nil
}

func (s *sheetsStore) UpdateCell(ctx context.Context, stage string, rowRef int, column, value string) error {
	header, err := s.Header(ctx, stage)
	if err != nil {
		return err
	}
	col := columnIndex(header, column)
	if col < 0 {
		return fmt.Errorf("update %q column %q: %w", stage, column, ErrColumnNotFound)
	}
	if rowRef < 2 {
		return fmt.Errorf("update %q row %d: %w", stage, rowRef, ErrRowNotFound)
	}

	cell := fmt.Sprintf("%s%d", columnLetter(col), rowRef)
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err = s.srv.Spreadsheets.Values.Update(s.spreadsheetID, sheetRange(stage, cell), vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("%w: update %s!%s: %v", ErrStoreAccess, stage, cell, err)
	}
	return nil
}

func (s *sheetsStore) FindRow(ctx context.Context, stage string, match string) (int, error) {
	grid, err := s.grid(ctx, sheetRange(stage, ""))
	if err != nil {
		return 0, err
	}
	if ref := findInGrid(grid, match); ref > 0 {
		return ref, nil
	}
	return 0, fmt.Errorf("find %q in %q: %w", match, stage, ErrRowNotFound)
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}
