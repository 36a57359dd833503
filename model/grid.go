package model

import (
	"crypto/md5"
	"fmt"
	"runtime"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/iso2022jp/game-of-life-addin/rules"
	"github.com/iso2022jp/game-of-life-addin/utils"
)

// ErrRaggedRows is returned when the rows of a state matrix differ in length
var ErrRaggedRows = errors.New("rows have different lengths")

// Grid is one generation of the board. A grid handed out by Advance is never
// mutated afterwards; Set is only meant for building a grid before it is shared.
type Grid struct {
	width  int
	height int
	cells  [][]rules.CellState
}

// bounds is the bounding box of living cells
type bounds struct {
	minX, maxX, minY, maxY int
}

// NewGrid creates a new all-dead grid with the specified dimensions
func NewGrid(width, height int) *Grid {
	g := &Grid{}
	g.Reset(width, height)
	return g
}

// FromStates builds a grid from rows of cell states, copying the input
func FromStates(states [][]rules.CellState) (*Grid, error) {
	height := len(states)
	width := 0
	if height > 0 {
		width = len(states[0])
	}
	g := NewGrid(width, height)
	for y, row := range states {
		if len(row) != width {
			return nil, errors.Wrapf(ErrRaggedRows, "[FromStates] row %d has %d cells, want %d", y, len(row), width)
		}
		copy(g.cells[y], row)
	}
	return g, nil
}

// Width returns the number of columns
func (g *Grid) Width() int {
	return g.width
}

// Height returns the number of rows
func (g *Grid) Height() int {
	return g.height
}

// IsEmpty reports whether the grid has no cells at all
func (g *Grid) IsEmpty() bool {
	return g.width == 0 || g.height == 0
}

// Reset resets the grid to new dimensions with every cell dead
func (g *Grid) Reset(width, height int) {
	width, height = max(0, width), max(0, height)
	g.width = width
	g.height = height

	if len(g.cells) != height {
		g.cells = make([][]rules.CellState, height)
	}
	for i := range g.cells {
		if len(g.cells[i]) != width {
			g.cells[i] = make([]rules.CellState, width)
		} else {
			clear(g.cells[i])
		}
	}
}

// Clear kills all cells
func (g *Grid) Clear() {
	for y := range g.height {
		clear(g.cells[y])
	}
}

// Set sets the state of a cell; out-of-range coordinates are ignored
func (g *Grid) Set(x, y int, state rules.CellState) {
	if x >= 0 && x < g.width && y >= 0 && y < g.height {
		g.cells[y][x] = state
	}
}

// Get returns the state of a cell; anything outside the grid is dead
func (g *Grid) Get(x, y int) rules.CellState {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return rules.Dead
	}
	return g.cells[y][x]
}

// Alive reports whether the cell at (x, y) is live
func (g *Grid) Alive(x, y int) bool {
	return g.Get(x, y).Alive()
}

// CountLiveNeighbors sums the Moore neighborhood of (x, y), treating cells past the edges as dead.
// The result is always within [0, 8].
func (g *Grid) CountLiveNeighbors(x, y int) int {
	count := 0

	minX := max(0, x-1)
	maxX := min(g.width-1, x+1)
	minY := max(0, y-1)
	maxY := min(g.height-1, y+1)

	for ny := minY; ny <= maxY; ny++ {
		for nx := minX; nx <= maxX; nx++ {
			if nx == x && ny == y {
				continue
			}
			if g.cells[ny][nx] == rules.Live {
				count++
			}
		}
	}

	return count
}

// activeBounds calculates the bounding box of living cells
func (g *Grid) activeBounds() (b bounds, ok bool) {
	for y := range g.height {
		for x := range g.width {
			if g.cells[y][x] != rules.Live {
				continue
			}
			if !ok {
				b = bounds{minX: x, maxX: x, minY: y, maxY: y}
				ok = true
				continue
			}
			b.minX = min(b.minX, x)
			b.maxX = max(b.maxX, x)
			b.minY = min(b.minY, y)
			b.maxY = max(b.maxY, y)
		}
	}
	return b, ok
}

// BoundingBoxSize returns the size of the active region
func (g *Grid) BoundingBoxSize() int {
	b, ok := g.activeBounds()
	if !ok {
		return 0
	}
	return (b.maxX - b.minX + 1) * (b.maxY - b.minY + 1)
}

// Advance returns the next generation. Every cell is computed from g only, so
// no cell observes a neighbor that has already been updated.
func (g *Grid) Advance() *Grid {
	return g.NextGenerationParallel(nil)
}

// NextGenerationParallel calculates the next generation using parallel processing
func (g *Grid) NextGenerationParallel(pool *GridPool) *Grid {
	next := newFrom(pool, g.width, g.height)
	if g.IsEmpty() {
		return next
	}

	var (
		eg            errgroup.Group
		numWorkers    = min(runtime.NumCPU(), g.height)
		rowsPerWorker = (g.height + numWorkers - 1) / numWorkers // Ceiling division
	)

	for i := range numWorkers {
		var (
			startRow = i * rowsPerWorker
			endRow   = min(startRow+rowsPerWorker, g.height)
		)
		if startRow >= g.height {
			break
		}

		// each worker owns a disjoint set of rows in next
		eg.Go(func() error {
			for y := startRow; y < endRow; y++ {
				for x := range g.width {
					next.cells[y][x] = rules.NextCellState(g.cells[y][x], g.CountLiveNeighbors(x, y))
				}
			}
			return nil
		})
	}

	// workers never fail
	if err := eg.Wait(); err != nil {
		log.Error().Err(err).Msg("parallel advance")
	}

	return next
}

// NextGenerationBounded calculates the next generation only in the active region
func (g *Grid) NextGenerationBounded(pool *GridPool) *Grid {
	next := newFrom(pool, g.width, g.height)

	b, ok := g.activeBounds()
	if !ok {
		return next
	}

	// Process only the active region + 1 margin
	minX := max(0, b.minX-1)
	maxX := min(g.width-1, b.maxX+1)
	minY := max(0, b.minY-1)
	maxY := min(g.height-1, b.maxY+1)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if rules.ApplyConwayRules(g.CountLiveNeighbors(x, y), g.cells[y][x].Alive()) {
				next.cells[y][x] = rules.Live
			}
		}
	}

	return next
}

// NextGeneration calculates the next generation based on configuration
func (g *Grid) NextGeneration(config utils.Config, pool *GridPool) *Grid {
	if config.UseBoundedGrid {
		return g.NextGenerationBounded(pool)
	}
	return g.NextGenerationParallel(pool)
}

func newFrom(pool *GridPool, width, height int) *Grid {
	if pool != nil {
		return pool.Get(width, height)
	}
	return NewGrid(width, height)
}

// CountLivingCells returns the total number of living cells
func (g *Grid) CountLivingCells() (count int) {
	for y := range g.height {
		for x := range g.width {
			if g.cells[y][x] == rules.Live {
				count++
			}
		}
	}
	return
}

// Hash returns an MD5 digest of the dimensions and cell states
func (g *Grid) Hash() string {
	h := md5.New()
	fmt.Fprintf(h, "%dx%d:", g.width, g.height)
	for y := range g.height {
		for x := range g.width {
			h.Write([]byte{byte(g.cells[y][x])})
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Equal reports whether both grids have the same dimensions and states
func (g *Grid) Equal(other *Grid) bool {
	if other == nil || g.width != other.width || g.height != other.height {
		return false
	}
	for y := range g.height {
		for x := range g.width {
			if g.cells[y][x] != other.cells[y][x] {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy of the grid
func (g *Grid) Clone() *Grid {
	c := NewGrid(g.width, g.height)
	for y := range g.height {
		copy(c.cells[y], g.cells[y])
	}
	return c
}

// States returns a copy of the cells as rows of states
func (g *Grid) States() [][]rules.CellState {
	return g.Clone().cells
}
