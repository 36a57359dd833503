// Package sheet maps a rectangular range of spreadsheet cell fill colors onto
// Game of Life grids and writes generation diffs back as colors.
package sheet

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/iso2022jp/game-of-life-addin/model"
	"github.com/iso2022jp/game-of-life-addin/rules"
)

// Source is where a session loads its first generation from and writes diffs to
type Source interface {
	Load(ctx context.Context) (*model.Grid, error)
	Write(ctx context.Context, changes []model.Change) error
}

// Cells is a store of cell fill colors addressed by sheet row and column
type Cells interface {
	// Colors returns r.Rows rows of r.Cols colors; unset cells are ""
	Colors(ctx context.Context, r Range) ([][]string, error)
	SetColors(ctx context.Context, colors []CellColor) error
}

// CellColor is the fill color of one sheet cell
type CellColor struct {
	Row   int
	Col   int
	Color string
}

// Palette maps exactly one color to each state. Colors other than Live read as dead.
type Palette struct {
	Live string
	Dead string
}

// DefaultPalette is black for live cells on white
func DefaultPalette() Palette {
	return Palette{Live: "#000000", Dead: "#FFFFFF"}
}

// StateOf converts a fill color to a cell state
func (p Palette) StateOf(color string) rules.CellState {
	if strings.EqualFold(strings.TrimSpace(color), p.Live) {
		return rules.Live
	}
	return rules.Dead
}

// ColorOf converts a cell state to its fill color
func (p Palette) ColorOf(state rules.CellState) string {
	if state == rules.Live {
		return p.Live
	}
	return p.Dead
}

// Range is a rectangle of cells with its top-left corner at (Row, Col)
type Range struct {
	Row  int `json:"row"`
	Col  int `json:"col"`
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// IsEmpty reports whether the range selects no cells
func (r Range) IsEmpty() bool {
	return r.Rows <= 0 || r.Cols <= 0
}

// Contains reports whether the sheet cell lies inside the range
func (r Range) Contains(row, col int) bool {
	return row >= r.Row && row < r.Row+r.Rows && col >= r.Col && col < r.Col+r.Cols
}

// Sheet binds a Range of a Cells store to a Palette
type Sheet struct {
	cells   Cells
	rng     Range
	palette Palette
}

// New returns a Source reading and writing rng of cells
func New(cells Cells, rng Range, palette Palette) *Sheet {
	return &Sheet{cells: cells, rng: rng, palette: palette}
}

// Range returns the selected range
func (s *Sheet) Range() Range {
	return s.rng
}

// Load reads the range colors into a grid. An empty range yields an empty grid.
func (s *Sheet) Load(ctx context.Context) (*model.Grid, error) {
	if s.rng.IsEmpty() {
		return model.NewGrid(0, 0), nil
	}

	colors, err := s.cells.Colors(ctx, s.rng)
	if err != nil {
		return nil, errors.Wrapf(err, "[Load] failed to read range %+v", s.rng)
	}

	states := make([][]rules.CellState, len(colors))
	for y, row := range colors {
		states[y] = make([]rules.CellState, len(row))
		for x, color := range row {
			states[y][x] = s.palette.StateOf(color)
		}
	}

	g, err := model.FromStates(states)
	if err != nil {
		return nil, errors.Wrapf(err, "[Load] malformed colors for range %+v", s.rng)
	}
	if g.Width() != s.rng.Cols || g.Height() != s.rng.Rows {
		return nil, errors.Errorf("[Load] store returned %dx%d cells for range %+v", g.Width(), g.Height(), s.rng)
	}
	return g, nil
}

// Write paints only the changed cells
func (s *Sheet) Write(ctx context.Context, changes []model.Change) error {
	if len(changes) == 0 {
		return nil
	}

	colors := make([]CellColor, 0, len(changes))
	for _, c := range changes {
		row, col := s.rng.Row+c.Y, s.rng.Col+c.X
		if !s.rng.Contains(row, col) {
			return errors.Errorf("[Write] change (%d,%d) falls outside range %+v", c.X, c.Y, s.rng)
		}
		colors = append(colors, CellColor{Row: row, Col: col, Color: s.palette.ColorOf(c.State)})
	}

	if err := s.cells.SetColors(ctx, colors); err != nil {
		return errors.Wrapf(err, "[Write] failed to write %d cells", len(colors))
	}
	return nil
}

// Paint writes every cell of g into the range, dead cells included
func (s *Sheet) Paint(ctx context.Context, g *model.Grid) error {
	if g.Width() != s.rng.Cols || g.Height() != s.rng.Rows {
		return errors.Wrapf(model.ErrDimensionMismatch, "[Paint] grid is %dx%d, range %+v", g.Width(), g.Height(), s.rng)
	}

	colors := make([]CellColor, 0, g.Width()*g.Height())
	for y := range g.Height() {
		for x := range g.Width() {
			colors = append(colors, CellColor{Row: s.rng.Row + y, Col: s.rng.Col + x, Color: s.palette.ColorOf(g.Get(x, y))})
		}
	}
	if len(colors) == 0 {
		return nil
	}

	if err := s.cells.SetColors(ctx, colors); err != nil {
		return errors.Wrapf(err, "[Paint] failed to write %d cells", len(colors))
	}
	return nil
}
