// Package race arbitrates goal arrival for one room.
package race

import "github.com/beka-birhanu/vinom-race-server/maze"

// Status is the race phase.
type Status int

const (
	InProgress Status = iota
	Won
)

func (s Status) String() string {
	if s == Won {
		return "won"
	}
	return "in_progress"
}

// State is a snapshot of the resolver.
type State struct {
	Status Status
	Winner string
	// Provisional marks a win observed locally that the authority has not
	// confirmed yet.
	Provisional bool
}

// Resolver moves from InProgress to Won exactly once. A win observed from a
// local discrete position is provisional and the first authority announcement
// may correct it; after that the verdict is final and further announcements
// are no-ops.
type Resolver struct {
	goal  maze.Position
	state State
}

// NewResolver returns a resolver watching goal.
func NewResolver(goal maze.Position) *Resolver {
	return &Resolver{goal: goal}
}

// Goal returns the watched cell.
func (r *Resolver) Goal() maze.Position { return r.goal }

// State returns the current state.
func (r *Resolver) State() State { return r.state }

// Finished reports whether a winner is known.
func (r *Resolver) Finished() bool { return r.state.Status == Won }

// Winner returns the winner, or "" while the race is in progress.
func (r *Resolver) Winner() string { return r.state.Winner }

// Observe records that identity stands on pos. It returns true if this
// produced a (provisional) win.
func (r *Resolver) Observe(identity string, pos maze.Position) bool {
	if identity == "" || r.state.Status == Won || pos != r.goal {
		return false
	}
	r.state = State{Status: Won, Winner: identity, Provisional: true}
	return true
}

// Announce applies the authority's verdict. It returns true if the winner
// changed.
func (r *Resolver) Announce(winner string) bool {
	if winner == "" {
		return false
	}

	switch {
	case r.state.Status == InProgress:
		r.state = State{Status: Won, Winner: winner}
		return true
	case r.state.Provisional:
		changed := r.state.Winner != winner
		r.state = State{Status: Won, Winner: winner}
		return changed
	}
	return false
}
