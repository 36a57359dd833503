package sheet

import (
	"context"
	"sync"
)

type cellKey struct {
	row, col int
}

// MemoryCells is a map-backed Cells store, safe for concurrent use
type MemoryCells struct {
	mu     sync.RWMutex
	colors map[cellKey]string
	writes int
}

// NewMemoryCells returns an empty store
func NewMemoryCells() *MemoryCells {
	return &MemoryCells{colors: make(map[cellKey]string)}
}

// Colors implements Cells
func (m *MemoryCells) Colors(ctx context.Context, r Range) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([][]string, max(0, r.Rows))
	for y := range out {
		out[y] = make([]string, max(0, r.Cols))
		for x := range out[y] {
			out[y][x] = m.colors[cellKey{row: r.Row + y, col: r.Col + x}]
		}
	}
	return out, nil
}

// SetColors implements Cells
func (m *MemoryCells) SetColors(ctx context.Context, colors []CellColor) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range colors {
		m.colors[cellKey{row: c.Row, col: c.Col}] = c.Color
	}
	m.writes += len(colors)
	return nil
}

// Color returns the fill color of a single cell
func (m *MemoryCells) Color(row, col int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.colors[cellKey{row: row, col: col}]
}

// Writes returns how many cell colors have been written so far
func (m *MemoryCells) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
