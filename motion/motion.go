// Package motion animates agents between discrete grid cells. Render
// positions live in pixel space and never feed back into game logic.
package motion

import (
	"math"

	"github.com/beka-birhanu/vinom-race-server/maze"
)

// DefaultSpeed is the linear render speed in pixels per second.
const DefaultSpeed = 200.0

// Layout maps grid cells to pixel coordinates.
type Layout struct {
	CellSize float64
}

// Center returns the pixel centre of cell p.
func (l Layout) Center(p maze.Position) (float64, float64) {
	return float64(p.Col)*l.CellSize + l.CellSize/2, float64(p.Row)*l.CellSize + l.CellSize/2
}

// State is the continuous render state of one agent. It is a value: every
// transition returns a new State.
type State struct {
	X, Y             float64
	TargetX, TargetY float64
	Moving           bool
}

// Settled returns a state resting at (x, y).
func Settled(x, y float64) State {
	return State{X: x, Y: y, TargetX: x, TargetY: y}
}

// Toward keeps the current render position and aims at (x, y).
func (s State) Toward(x, y float64) State {
	if s.X == x && s.Y == y {
		return Settled(x, y)
	}
	s.TargetX, s.TargetY = x, y
	s.Moving = true
	return s
}

// Advance moves the state toward its target at constant speed for dt seconds.
// When the remaining distance fits in one step the state snaps to the target
// and stops; it never overshoots.
func (s State) Advance(dt, speed float64) State {
	if !s.Moving || dt <= 0 || speed <= 0 {
		return s
	}

	dx := s.TargetX - s.X
	dy := s.TargetY - s.Y
	dist := math.Hypot(dx, dy)
	step := speed * dt
	if step >= dist {
		return Settled(s.TargetX, s.TargetY)
	}

	s.X += dx / dist * step
	s.Y += dy / dist * step
	return s
}

// Remaining returns the distance left to the target.
func (s State) Remaining() float64 {
	return math.Hypot(s.TargetX-s.X, s.TargetY-s.Y)
}
