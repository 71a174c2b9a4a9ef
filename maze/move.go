package maze

import "strings"

// Direction is one of the four cardinal unit steps.
type Direction int

const (
	NoDirection Direction = iota
	North
	South
	West
	East
)

// Delta returns the (row, col) unit vector of d.
func (d Direction) Delta() (int, int) {
	switch d {
	case North:
		return -1, 0
	case South:
		return 1, 0
	case West:
		return 0, -1
	case East:
		return 0, 1
	}
	return 0, 0
}

// Valid reports whether d is a cardinal direction.
func (d Direction) Valid() bool {
	return d >= North && d <= East
}

func (d Direction) String() string {
	switch d {
	case North:
		return "up"
	case South:
		return "down"
	case West:
		return "left"
	case East:
		return "right"
	}
	return "none"
}

// ParseDirection maps input names to a direction. It accepts the wire names
// (up, down, left, right), compass letters and WASD / arrow key names.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "n", "north", "w", "arrowup":
		return North, true
	case "down", "s", "south", "arrowdown":
		return South, true
	case "left", "west", "a", "arrowleft":
		return West, true
	case "right", "e", "east", "d", "arrowright":
		return East, true
	}
	return NoDirection, false
}

// CanMove reports whether a single step from pos in direction d lands on an
// in-bounds passage. It has no side effects; the authority must run it again
// for every move a client requests.
func CanMove(g *Grid, pos Position, d Direction) bool {
	if g == nil || !d.Valid() {
		return false
	}
	return g.IsPassage(pos.Step(d))
}

// StepBetween returns the direction that takes from to to in exactly one
// cardinal step.
func StepBetween(from, to Position) (Direction, bool) {
	for _, d := range []Direction{North, South, West, East} {
		if from.Step(d) == to {
			return d, true
		}
	}
	return NoDirection, false
}
