package repository

import (
	"context"
	"fmt"
	"sync"
)

// MemoryOpener keeps workbooks in process. It backs local runs without a
// spreadsheet and the orchestration tests.
type MemoryOpener struct {
	mu     sync.Mutex
	stores map[string]*memoryStore
}

func NewMemoryOpener() *MemoryOpener {
	return &MemoryOpener{stores: make(map[string]*memoryStore)}
}

func (o *MemoryOpener) Open(ctx context.Context, storeID string) (Store, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, ok := o.stores[storeID]
	if !ok {
		s = &memoryStore{sheets: make(map[string][][]string)}
		o.stores[storeID] = s
	}
	return s, nil
}

// Seed replaces a stage's grid; the first row is the header.
func (o *MemoryOpener) Seed(storeID, stage string, grid [][]string) {
	s, _ := o.Open(context.Background(), storeID)
	ms := s.(*memoryStore)
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.sheets[stage] = copyGrid(grid)
}

// Grid returns a copy of a stage's cells.
func (o *MemoryOpener) Grid(storeID, stage string) [][]string {
	s, _ := o.Open(context.Background(), storeID)
	ms := s.(*memoryStore)
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return copyGrid(ms.sheets[stage])
}

type memoryStore struct {
	mu     sync.Mutex
	sheets map[string][][]string
}

func (s *memoryStore) Header(ctx context.Context, stage string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid := s.sheets[stage]
	if len(grid) == 0 {
		return nil, nil
	}
	return append([]string(nil), grid[0]...), nil
}

func (s *memoryStore) ReadAll(ctx context.Context, stage string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, records := recordsFromGrid(s.sheets[stage])
	return records, nil
}

func (s *memoryStore) AppendRow(ctx context.Context, stage string, record map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid := s.sheets[stage]
	if len(grid) == 0 {
		return fmt.Errorf("append to %q: %w", stage, ErrMissingHeader)
	}
	s.sheets[stage] = append(grid, orderByHeader(grid[0], record))
	return nil
}

func (s *memoryStore) Overwrite(ctx context.Context, stage string, header []string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid := make([][]string, 0, len(rows)+1)
	grid = append(grid, append([]string(nil), header...))
	s.sheets[stage] = append(grid, copyGrid(rows)...)
	return nil
}

func (s *memoryStore) UpdateCell(ctx context.Context, stage string, rowRef int, column, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid := s.sheets[stage]
	if len(grid) == 0 {
		return fmt.Errorf("update %q: %w", stage, ErrMissingHeader)
	}
	col := columnIndex(grid[0], column)
	if col < 0 {
		return fmt.Errorf("update %q column %q: %w", stage, column, ErrColumnNotFound)
	}
	if rowRef < 2 || rowRef > len(grid) {
		return fmt.Errorf("update %q row %d: %w", stage, rowRef, ErrRowNotFound)
	}

	row := grid[rowRef-1]
	for len(row) <= col {
		row = append(row, "")
	}
	row[col] = value
	grid[rowRef-1] = row
	return nil
}

func (s *memoryStore) FindRow(ctx context.Context, stage string, match string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref := findInGrid(s.sheets[stage], match); ref > 0 {
		return ref, nil
	}
	return 0, fmt.Errorf("find %q in %q: %w", match, stage, ErrRowNotFound)
}

func copyGrid(grid [][]string) [][]string {
	out := make([][]string, len(grid))
	for i, row := range grid {
		out[i] = append([]string(nil), row...)
	}
	return out
}
