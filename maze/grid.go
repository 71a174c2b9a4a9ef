package maze

import (
	"strings"
)

// Cell is the state of a single grid square.
type Cell uint8

const (
	Wall Cell = iota
	Passage
)

// Position addresses a grid cell by row and column.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Step returns the neighbouring position one cell away in direction d.
func (p Position) Step(d Direction) Position {
	dr, dc := d.Delta()
	return Position{Row: p.Row + dr, Col: p.Col + dc}
}

// Grid is an immutable rows x cols matrix of cells produced by Carve.
type Grid struct {
	rows  int
	cols  int
	cells []Cell
	start Position
	goal  Position
}

func newGrid(rows, cols int) *Grid {
	return &Grid{
		rows:  rows,
		cols:  cols,
		cells: make([]Cell, rows*cols),
		start: Position{Row: 1, Col: 1},
		goal:  Position{Row: rows - 2, Col: cols - 2},
	}
}

func (g *Grid) set(p Position, c Cell) {
	g.cells[p.Row*g.cols+p.Col] = c
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Start returns the cell every agent starts on.
func (g *Grid) Start() Position { return g.start }

// Goal returns the race goal. It is always a passage.
func (g *Grid) Goal() Position { return g.goal }

// InBounds reports whether p lies inside the grid.
func (g *Grid) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < g.rows && p.Col >= 0 && p.Col < g.cols
}

// At returns the cell at p. Positions outside the grid read as Wall.
func (g *Grid) At(p Position) Cell {
	if !g.InBounds(p) {
		return Wall
	}
	return g.cells[p.Row*g.cols+p.Col]
}

// IsPassage reports whether p is an in-bounds passage.
func (g *Grid) IsPassage(p Position) bool {
	return g.At(p) == Passage
}

// Passages returns every passage cell in row-major order.
func (g *Grid) Passages() []Position {
	out := make([]Position, 0, len(g.cells)/2)
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if g.cells[r*g.cols+c] == Passage {
				out = append(out, Position{Row: r, Col: c})
			}
		}
	}
	return out
}

// Equal reports whether both grids have the same dimensions and cells.
func (g *Grid) Equal(other *Grid) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.rows != other.rows || g.cols != other.cols {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// String renders walls as '#' and passages as '.', one line per row.
func (g *Grid) String() string {
	var b strings.Builder
	b.Grow(g.rows * (g.cols + 1))
	for r := 0; r < g.rows; r++ {
		if r > 0 {
			b.WriteByte('\n')
		}
		for c := 0; c < g.cols; c++ {
			if g.cells[r*g.cols+c] == Passage {
				b.WriteByte('.')
			} else {
				b.WriteByte('#')
			}
		}
	}
	return b.String()
}
