package model

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"

	"github.com/iso2022jp/game-of-life-addin/rules"
)

func TestDiffIsMinimalAndReproducesAdvance(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		g := randomGrid(seed, 15, 12)
		next := g.Advance()

		changes, err := Diff(next, g)
		if err != nil {
			t.Fatalf("Diff: %v", err)
		}

		seen := map[[2]int]bool{}
		for _, c := range changes {
			if g.Get(c.X, c.Y) == c.State {
				t.Fatalf("seed %d: (%d,%d) listed but unchanged", seed, c.X, c.Y)
			}
			if next.Get(c.X, c.Y) != c.State {
				t.Fatalf("seed %d: (%d,%d) carries the wrong state", seed, c.X, c.Y)
			}
			seen[[2]int{c.X, c.Y}] = true
		}

		// every changed cell is listed
		for y := range g.Height() {
			for x := range g.Width() {
				if g.Get(x, y) != next.Get(x, y) && !seen[[2]int{x, y}] {
					t.Fatalf("seed %d: (%d,%d) changed but missing from diff", seed, x, y)
				}
			}
		}

		applied, err := g.Apply(changes)
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if !applied.Equal(next) {
			t.Fatalf("seed %d: applying the diff does not reproduce the next generation", seed)
		}
	}
}

func TestDiffRowMajorOrder(t *testing.T) {
	prev := NewGrid(3, 2)
	next := NewGrid(3, 2)
	next.Set(2, 0, rules.Live)
	next.Set(0, 1, rules.Live)
	next.Set(1, 0, rules.Live)

	changes, err := Diff(next, prev)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	want := []Change{
		{X: 1, Y: 0, State: rules.Live},
		{X: 2, Y: 0, State: rules.Live},
		{X: 0, Y: 1, State: rules.Live},
	}
	if len(changes) != len(want) {
		t.Fatalf("got %d changes, want %d", len(changes), len(want))
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Fatalf("change %d = %+v, want %+v", i, changes[i], want[i])
		}
	}
}

func TestDiffDimensionMismatch(t *testing.T) {
	_, err := Diff(NewGrid(3, 3), NewGrid(3, 4))
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("got %v, want ErrDimensionMismatch", err)
	}
}

func TestApplyOutOfRange(t *testing.T) {
	g := NewGrid(2, 2)
	if _, err := g.Apply([]Change{{X: 2, Y: 0, State: rules.Live}}); err == nil {
		t.Fatal("out-of-range change accepted")
	}
	if g.CountLivingCells() != 0 {
		t.Fatal("Apply mutated its receiver")
	}
}

func TestHistoryDetectsStillLifeAndOscillators(t *testing.T) {
	block := NewGrid(6, 6)
	block.AddBlock(2, 2)

	blinker := NewGrid(5, 5)
	blinker.AddBlinker(1, 2)

	glider := NewGrid(20, 20)
	glider.AddGlider(1, 1)

	tests := []struct {
		name string
		grid *Grid
		want bool
	}{
		{"block", block, true},
		{"blinker", blinker, true},
		{"glider", glider, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h History
			g := tt.grid
			for range 4 {
				h.Push(g)
				g = g.Advance()
			}
			if got := h.IsStagnant(g); got != tt.want {
				t.Fatalf("IsStagnant = %v, want %v", got, tt.want)
			}
			if h.Len() != 4 {
				t.Fatalf("Len = %d, want 4", h.Len())
			}
		})
	}
}

func TestHistoryBounded(t *testing.T) {
	var h History
	g := randomGrid(3, 8, 8)
	for range 3 * historySize {
		h.Push(g)
	}
	if h.Len() != historySize {
		t.Fatalf("Len = %d, want %d", h.Len(), historySize)
	}
	h.Reset()
	if h.Len() != 0 || h.IsStagnant(g) {
		t.Fatal("Reset kept history")
	}
}

func TestSeed(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for _, name := range []string{PatternGlider, PatternBlinker, PatternBlock, PatternRandom, PatternMixed} {
		g, err := Seed(name, 30, 20, 0.2, rng)
		if err != nil {
			t.Fatalf("Seed(%q): %v", name, err)
		}
		if g.Width() != 30 || g.Height() != 20 || g.CountLivingCells() == 0 {
			t.Fatalf("Seed(%q) produced %dx%d with %d live cells", name, g.Width(), g.Height(), g.CountLivingCells())
		}
	}

	block, _ := Seed(PatternBlock, 30, 20, 0, nil)
	if block.CountLivingCells() != 4 || !block.Advance().Equal(block) {
		t.Fatal("seeded block is not a still life")
	}

	if _, err := Seed("spaceship", 10, 10, 0, nil); !errors.Is(err, ErrUnknownPattern) {
		t.Fatalf("got %v, want ErrUnknownPattern", err)
	}
}
