package model

import (
	"github.com/pkg/errors"

	"github.com/iso2022jp/game-of-life-addin/rules"
)

// ErrDimensionMismatch is returned when two generations do not share dimensions
var ErrDimensionMismatch = errors.New("grid dimensions differ")

// Change is a single cell whose state differs between two generations
type Change struct {
	X     int             `json:"x"`
	Y     int             `json:"y"`
	State rules.CellState `json:"state"`
}

// Diff lists the cells of next whose state differs from prev, in row-major order
func Diff(next, prev *Grid) ([]Change, error) {
	if next.width != prev.width || next.height != prev.height {
		return nil, errors.Wrapf(ErrDimensionMismatch, "[Diff] next is %dx%d, prev is %dx%d",
			next.width, next.height, prev.width, prev.height)
	}

	var changes []Change
	for y := range next.height {
		for x := range next.width {
			if s := next.cells[y][x]; s != prev.cells[y][x] {
				changes = append(changes, Change{X: x, Y: y, State: s})
			}
		}
	}
	return changes, nil
}

// Apply returns a copy of g with the changes applied
func (g *Grid) Apply(changes []Change) (*Grid, error) {
	out := g.Clone()
	for _, c := range changes {
		if c.X < 0 || c.X >= g.width || c.Y < 0 || c.Y >= g.height {
			return nil, errors.Errorf("[Apply] change (%d,%d) outside %dx%d grid", c.X, c.Y, g.width, g.height)
		}
		out.cells[c.Y][c.X] = c.State
	}
	return out, nil
}
