package model

// historySize is how many recent generations are remembered for cycle detection
const historySize = 5

// History keeps the hashes of recent generations
type History struct {
	hashes []string
}

// Push adds a generation to history and maintains its size
func (h *History) Push(g *Grid) {
	h.hashes = append(h.hashes, g.Hash())
	if len(h.hashes) > historySize {
		h.hashes = h.hashes[1:]
	}
}

// Reset forgets every remembered generation
func (h *History) Reset() {
	h.hashes = nil
}

// Len returns the number of remembered generations
func (h *History) Len() int {
	return len(h.hashes)
}

// IsStagnant reports whether g repeats one of the last three remembered
// generations, i.e. the board is a still life or a period 2 or 3 oscillator
func (h *History) IsStagnant(g *Grid) bool {
	if len(h.hashes) < 3 {
		return false
	}

	current := g.Hash()
	for i := 1; i <= 3; i++ {
		if h.hashes[len(h.hashes)-i] == current {
			return true
		}
	}
	return false
}
