package model

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/iso2022jp/game-of-life-addin/rules"
)

// Pattern names accepted by Seed
const (
	PatternGlider  = "glider"
	PatternBlinker = "blinker"
	PatternBlock   = "block"
	PatternRandom  = "random"
	PatternMixed   = "mixed"
)

// ErrUnknownPattern is returned by Seed for names it does not know
var ErrUnknownPattern = errors.New("unknown pattern")

// AddGlider adds a glider pattern at the specified position
func (g *Grid) AddGlider(startX, startY int) {
	pattern := [][]bool{
		{false, true, false},
		{false, false, true},
		{true, true, true},
	}

	for y, row := range pattern {
		for x, cell := range row {
			g.Set(startX+x, startY+y, rules.FromBool(cell))
		}
	}
}

// AddBlinker adds a horizontal blinker oscillator
func (g *Grid) AddBlinker(startX, startY int) {
	g.Set(startX, startY, rules.Live)
	g.Set(startX+1, startY, rules.Live)
	g.Set(startX+2, startY, rules.Live)
}

// AddBlock adds a 2x2 still life
func (g *Grid) AddBlock(startX, startY int) {
	g.Set(startX, startY, rules.Live)
	g.Set(startX+1, startY, rules.Live)
	g.Set(startX, startY+1, rules.Live)
	g.Set(startX+1, startY+1, rules.Live)
}

// Randomize brings cells to life with the given probability. Live cells stay live.
func (g *Grid) Randomize(density float64, rng *rand.Rand) {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	for y := range g.height {
		for x := range g.width {
			if rng.Float64() < density {
				g.Set(x, y, rules.Live)
			}
		}
	}
}

// Seed builds a fresh grid holding the named pattern roughly centered
func Seed(name string, width, height int, density float64, rng *rand.Rand) (*Grid, error) {
	g := NewGrid(width, height)
	cx, cy := width/2, height/2

	switch name {
	case PatternGlider:
		g.AddGlider(cx-1, cy-1)
	case PatternBlinker:
		g.AddBlinker(cx-1, cy)
	case PatternBlock:
		g.AddBlock(cx-1, cy-1)
	case PatternRandom:
		g.Randomize(density, rng)
	case PatternMixed:
		g.addInterestingPatterns()
		g.Randomize(density, rng)
	default:
		return nil, errors.Wrapf(ErrUnknownPattern, "[Seed] %q", name)
	}
	return g, nil
}

// addInterestingPatterns scatters gliders and blinkers over boards large enough for them
func (g *Grid) addInterestingPatterns() {
	if g.width < 10 || g.height < 10 {
		return
	}

	g.AddGlider(5, 5)
	if g.width >= 20 && g.height >= 15 {
		g.AddGlider(g.width-8, 5)
	}

	g.AddBlinker(g.width/4, g.height/4)
	if g.width >= 30 {
		g.AddBlinker(3*g.width/4, 3*g.height/4)
	}
}
