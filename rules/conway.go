package rules

// CellState is the binary state of a single cell
type CellState uint8

const (
	Dead CellState = 0
	Live CellState = 1
)

// MaxNeighbors is the size of a Moore neighborhood
const MaxNeighbors = 8

// conway is indexed by [current state][live neighbor count] (B3/S23)
var conway = [2][MaxNeighbors + 1]CellState{
	{Dead, Dead, Dead, Live, Dead, Dead, Dead, Dead, Dead},
	{Dead, Dead, Live, Live, Dead, Dead, Dead, Dead, Dead},
}

// String implements fmt.Stringer
func (s CellState) String() string {
	if s == Live {
		return "live"
	}
	return "dead"
}

// Alive reports whether the state is Live
func (s CellState) Alive() bool {
	return s == Live
}

// FromBool converts an alive flag into a CellState
func FromBool(alive bool) CellState {
	if alive {
		return Live
	}
	return Dead
}

// NextCellState looks up the next state of a cell from its current state and its live neighbor count.
// Counts outside [0, MaxNeighbors] and unknown states yield Dead.
func NextCellState(current CellState, liveNeighbors int) CellState {
	if current > Live || liveNeighbors < 0 || liveNeighbors > MaxNeighbors {
		return Dead
	}
	return conway[current][liveNeighbors]
}

/*
ApplyConwayRules applies Conway's Game of Life rules to determine the next state of a cell.

Conway's Game of Life rules: (alive && neighbors == 2) || neighbors == 3
*/
func ApplyConwayRules(neighbors int, alive bool) bool {
	return NextCellState(FromBool(alive), neighbors).Alive()
}
