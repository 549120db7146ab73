// Package fog models the fog-of-war visibility grid laid over the map plane.
package fog

// The board spans MapLimit pixels per axis and each fog cell covers a
// GridSize pixel square; clients own the pixel↔cell conversion and the
// store only ever sees cell coordinates.
const (
	MapLimit = 8000
	GridSize = 70
)

// Rows and Cols are the grid dimensions, one cell per GridSize square with a
// partial cell at the edge rounded up.
const (
	Rows = (MapLimit + GridSize - 1) / GridSize
	Cols = Rows
)

// Grid is a Rows×Cols visibility matrix. A true cell is revealed to players.
type Grid [][]bool

// NewGrid returns a fully hidden grid.
func NewGrid() Grid {
	g := make(Grid, Rows)
	for y := range g {
		g[y] = make([]bool, Cols)
	}
	return g
}

// Valid reports whether a loaded grid can serve as the session's fog state.
// Height is strict; row width is left to clients, which tolerate short rows.
func Valid(g Grid) bool {
	return len(g) >= Rows
}

// Set marks a single cell and reports whether the write landed. Coordinates
// outside the grid are ignored so a stale client cannot corrupt the
// canonical state.
func (g Grid) Set(x, y int, visible bool) bool {
	if y < 0 || y >= len(g) {
		return false
	}
	row := g[y]
	if x < 0 || x >= len(row) {
		return false
	}
	row[x] = visible
	return true
}

// At reads a single cell. Out-of-range coordinates read as hidden.
func (g Grid) At(x, y int) bool {
	if y < 0 || y >= len(g) {
		return false
	}
	row := g[y]
	if x < 0 || x >= len(row) {
		return false
	}
	return row[x]
}

// Clone returns an independent copy of the grid.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	clone := make(Grid, len(g))
	for y, row := range g {
		clone[y] = make([]bool, len(row))
		copy(clone[y], row)
	}
	return clone
}
