package maze

import (
	"errors"
	"fmt"
)

// Generation precondition errors.
var (
	ErrDimensionTooSmall = errors.New("maze dimension is smaller than 3")
	ErrEvenDimension     = errors.New("maze dimension must be odd")
	ErrDimensionTooLarge = errors.New("maze dimension is larger than 255")
	ErrNilSource         = errors.New("maze random source is nil")
)

const (
	minDimension = 3
	maxDimension = 255
)

// ValidateDimensions checks the generator preconditions. Callers with even
// dimensions must normalize them before asking for a maze.
func ValidateDimensions(rows, cols int) error {
	if rows < minDimension || cols < minDimension {
		return fmt.Errorf("%w: %dx%d", ErrDimensionTooSmall, rows, cols)
	}
	if rows > maxDimension || cols > maxDimension {
		return fmt.Errorf("%w: %dx%d", ErrDimensionTooLarge, rows, cols)
	}
	if rows%2 == 0 || cols%2 == 0 {
		return fmt.Errorf("%w: %dx%d", ErrEvenDimension, rows, cols)
	}
	return nil
}

// Generate carves a maze for seed using a fresh Mulberry32 stream. The same
// (rows, cols, seed) always yields an identical grid.
func Generate(rows, cols int, seed uint32) (*Grid, error) {
	return Carve(rows, cols, NewMulberry32(seed))
}

// Carve runs a randomized depth-first backtracker over the odd lattice of a
// rows x cols grid, drawing choices from src. The result is a perfect maze:
// every passage is reachable from the start and there are no cycles. The goal
// cell is forced open afterwards.
func Carve(rows, cols int, src Source) (*Grid, error) {
	if err := ValidateDimensions(rows, cols); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, ErrNilSource
	}

	g := newGrid(rows, cols)
	g.set(g.start, Passage)
	stack := []Position{g.start}
	neighbors := make([]Position, 0, 4)

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		neighbors = g.uncarvedNeighbors(cur, neighbors[:0])
		if len(neighbors) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		next := neighbors[int(src.Next()*float64(len(neighbors)))]
		g.set(Position{Row: (cur.Row + next.Row) / 2, Col: (cur.Col + next.Col) / 2}, Passage)
		g.set(next, Passage)
		stack = append(stack, next)
	}

	g.set(g.goal, Passage)
	return g, nil
}

// uncarvedNeighbors appends the lattice neighbours two steps away that are
// still walls, in N, S, W, E order. The order is part of the wire contract.
func (g *Grid) uncarvedNeighbors(p Position, out []Position) []Position {
	if p.Row > 1 && g.At(Position{Row: p.Row - 2, Col: p.Col}) == Wall {
		out = append(out, Position{Row: p.Row - 2, Col: p.Col})
	}
	if p.Row < g.rows-2 && g.At(Position{Row: p.Row + 2, Col: p.Col}) == Wall {
		out = append(out, Position{Row: p.Row + 2, Col: p.Col})
	}
	if p.Col > 1 && g.At(Position{Row: p.Row, Col: p.Col - 2}) == Wall {
		out = append(out, Position{Row: p.Row, Col: p.Col - 2})
	}
	if p.Col < g.cols-2 && g.At(Position{Row: p.Row, Col: p.Col + 2}) == Wall {
		out = append(out, Position{Row: p.Row, Col: p.Col + 2})
	}
	return out
}
