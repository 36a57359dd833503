package model

import (
	"bytes"
	"math/rand"
	"runtime"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/iso2022jp/game-of-life-addin/rules"
	"github.com/iso2022jp/game-of-life-addin/utils"
)

// parse builds a grid from rows where '#' is live and anything else dead
func parse(t *testing.T, rows ...string) *Grid {
	t.Helper()
	states := make([][]rules.CellState, len(rows))
	for y, row := range rows {
		states[y] = make([]rules.CellState, len(row))
		for x, c := range row {
			if c == '#' {
				states[y][x] = rules.Live
			}
		}
	}
	g, err := FromStates(states)
	if err != nil {
		t.Fatalf("FromStates: %v", err)
	}
	return g
}

func randomGrid(seed int64, width, height int) *Grid {
	g := NewGrid(width, height)
	g.Randomize(0.35, rand.New(rand.NewSource(seed)))
	return g
}

// advancers covers every way the engine computes a generation
var advancers = map[string]func(*Grid) *Grid{
	"parallel":        func(g *Grid) *Grid { return g.Advance() },
	"bounded":         func(g *Grid) *Grid { return g.NextGenerationBounded(nil) },
	"parallel pooled": func(g *Grid) *Grid { return g.NextGenerationParallel(NewGridPool()) },
	"bounded pooled":  func(g *Grid) *Grid { return g.NextGeneration(utils.Config{UseBoundedGrid: true}, NewGridPool()) },
}

func TestFromStatesRagged(t *testing.T) {
	_, err := FromStates([][]rules.CellState{{rules.Live, rules.Dead}, {rules.Live}})
	if !errors.Is(err, ErrRaggedRows) {
		t.Fatalf("got %v, want ErrRaggedRows", err)
	}
}

func TestCountLiveNeighbors(t *testing.T) {
	g := parse(t,
		"###",
		"###",
		"###",
	)
	tests := []struct {
		x, y, want int
	}{
		{1, 1, 8},
		{0, 0, 3},
		{1, 0, 5},
		{2, 2, 3},
		{-1, -1, 1},
		{3, 1, 3},
		{5, 5, 0},
	}
	for _, tt := range tests {
		if got := g.CountLiveNeighbors(tt.x, tt.y); got != tt.want {
			t.Errorf("CountLiveNeighbors(%d,%d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestCountLiveNeighborsRange(t *testing.T) {
	g := randomGrid(1, 17, 11)
	for y := -1; y <= g.Height(); y++ {
		for x := -1; x <= g.Width(); x++ {
			if n := g.CountLiveNeighbors(x, y); n < 0 || n > 8 {
				t.Fatalf("(%d,%d) has %d neighbors", x, y, n)
			}
		}
	}
}

func TestAdvancePreservesDimensions(t *testing.T) {
	sizes := [][2]int{{0, 0}, {0, 4}, {4, 0}, {1, 1}, {1, 7}, {7, 1}, {13, 9}, {64, 3}}
	for name, advance := range advancers {
		for _, s := range sizes {
			g := randomGrid(int64(s[0]*100+s[1]), s[0], s[1])
			next := advance(g)
			if next.Width() != g.Width() || next.Height() != g.Height() {
				t.Fatalf("%s: %dx%d advanced to %dx%d", name, g.Width(), g.Height(), next.Width(), next.Height())
			}
		}
	}
}

func TestAdvanceDoesNotMutateInput(t *testing.T) {
	g := randomGrid(7, 20, 20)
	before := g.Clone()
	for name, advance := range advancers {
		advance(g)
		if !g.Equal(before) {
			t.Fatalf("%s mutated its input", name)
		}
	}
}

func TestAdvanceStrategiesAgree(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		g := randomGrid(seed, 31, 23)
		want := g.Advance()
		for name, advance := range advancers {
			if got := advance(g); !got.Equal(want) {
				t.Fatalf("seed %d: %s disagrees with Advance", seed, name)
			}
		}
	}
}

func TestNextGenerationParallelRowSplits(t *testing.T) {
	// fewer rows than workers, an uneven split and a tall board all join every worker
	for _, height := range []int{1, 2, runtime.NumCPU() + 1, 3*runtime.NumCPU() + 2} {
		g := randomGrid(int64(height), 9, height)
		if got, want := g.NextGenerationParallel(nil), g.NextGenerationBounded(nil); !got.Equal(want) {
			t.Fatalf("height %d: parallel advance disagrees with bounded", height)
		}
	}
}

func TestAdvanceAppliesRuleEverywhere(t *testing.T) {
	g := randomGrid(42, 25, 19)
	next := g.Advance()
	for y := range g.Height() {
		for x := range g.Width() {
			n := g.CountLiveNeighbors(x, y)
			want := rules.NextCellState(g.Get(x, y), n)
			if got := next.Get(x, y); got != want {
				t.Fatalf("(%d,%d) with %d neighbors: got %v, want %v", x, y, n, got, want)
			}
			if n == 3 && !next.Alive(x, y) {
				t.Fatalf("(%d,%d) has 3 neighbors but is dead", x, y)
			}
			if g.Alive(x, y) && (n < 2 || n > 3) && next.Alive(x, y) {
				t.Fatalf("(%d,%d) survived with %d neighbors", x, y, n)
			}
		}
	}
}

func TestBlockIsFixedPoint(t *testing.T) {
	g := parse(t,
		"....",
		".##.",
		".##.",
		"....",
	)
	for name, advance := range advancers {
		if next := advance(g); !next.Equal(g) {
			t.Fatalf("%s: block changed", name)
		}
	}
}

func TestBlinkerOscillation(t *testing.T) {
	horizontal := parse(t,
		".....",
		".....",
		".###.",
		".....",
		".....",
	)
	vertical := parse(t,
		".....",
		"..#..",
		"..#..",
		"..#..",
		".....",
	)

	for name, advance := range advancers {
		first := advance(horizontal)
		if !first.Equal(vertical) {
			t.Fatalf("%s: first generation is not vertical", name)
		}
		if second := advance(first); !second.Equal(horizontal) {
			t.Fatalf("%s: blinker period is not 2", name)
		}
	}
}

func TestEdgesAreDead(t *testing.T) {
	// a blinker against the top edge loses the half that would wrap
	g := parse(t,
		"###",
		"...",
		"...",
	)
	want := parse(t,
		".#.",
		".#.",
		"...",
	)
	if got := g.Advance(); !got.Equal(want) {
		t.Fatal("cells past the edge were not treated as dead")
	}
}

func TestAllDeadStaysDead(t *testing.T) {
	g := NewGrid(12, 8)
	for name, advance := range advancers {
		next := advance(g)
		if next.CountLivingCells() != 0 {
			t.Fatalf("%s: life appeared from nothing", name)
		}
		changes, err := Diff(next, g)
		if err != nil {
			t.Fatalf("Diff: %v", err)
		}
		if len(changes) != 0 {
			t.Fatalf("%s: %d changes on an empty board", name, len(changes))
		}
	}
}

func TestHashAndEqual(t *testing.T) {
	a := parse(t, "#..", ".#.")
	b := a.Clone()
	if a.Hash() != b.Hash() || !a.Equal(b) {
		t.Fatal("clone differs from original")
	}

	b.Set(2, 1, rules.Live)
	if a.Hash() == b.Hash() || a.Equal(b) {
		t.Fatal("different grids compare equal")
	}

	// same cells, different shape
	wide := parse(t, "#...#.")
	tall := parse(t, "#..", ".#.")
	if wide.Hash() == tall.Hash() {
		t.Fatal("hash ignores dimensions")
	}
	if a.Equal(nil) {
		t.Fatal("grid equals nil")
	}
}

func TestBoundingBoxSize(t *testing.T) {
	g := NewGrid(10, 10)
	if g.BoundingBoxSize() != 0 {
		t.Fatal("empty grid has a bounding box")
	}
	g.Set(2, 3, rules.Live)
	g.Set(5, 4, rules.Live)
	if got := g.BoundingBoxSize(); got != 8 {
		t.Fatalf("BoundingBoxSize = %d, want 8", got)
	}
}

func TestGridPoolReturnsClearedGrids(t *testing.T) {
	pool := NewGridPool()
	g := pool.Get(4, 4)
	g.AddBlock(1, 1)
	GridToPool(g, pool)
	GridToPool(nil, pool)
	GridToPool(g, nil)

	reused := pool.Get(6, 3)
	if reused.Width() != 6 || reused.Height() != 3 || reused.CountLivingCells() != 0 {
		t.Fatal("pooled grid was not reset")
	}
}

func TestTerminalRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := &TerminalRenderer{Out: &buf}
	if err := r.Display(parse(t, "#.", ".#")); err != nil {
		t.Fatalf("Display: %v", err)
	}
	want := gridPosBlock + gridPosEmpty + "\n" + gridPosEmpty + gridPosBlock + "\n"
	if buf.String() != want {
		t.Fatalf("rendered %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := r.Clear(); err != nil || !strings.HasPrefix(buf.String(), "\033[") {
		t.Fatalf("Clear wrote %q, err %v", buf.String(), err)
	}
}
