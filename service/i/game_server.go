package i

import (
	"time"

	"github.com/beka-birhanu/vinom-race-server/maze"
)

// GameEvent is an outbound room event. A nil To addresses every player in
// the room; otherwise it lists the recipient identities.
type GameEvent struct {
	To      []string
	Type    string
	Payload any
}

// GameServer defines the interface for one maze race room.
type GameServer interface {
	// Start runs the room loop until the race is won, the duration elapses or Stop is called.
	Start(gameDuration time.Duration)

	// Stop ends the game and emits game_over. It is safe to call more than once.
	Stop()

	// Join places identity in the room and blocks until the room accepted or refused it.
	Join(identity, avatarRef string) error

	// Leave removes identity from the room.
	Leave(identity string)

	// Move requests a one-cell step of identity to target.
	Move(identity string, target maze.Position)

	// RequestPlayers sends a fresh snapshot to identity.
	RequestPlayers(identity string)

	// Events returns the outbound event channel. It is closed when the game ends.
	Events() <-chan GameEvent

	// Info returns a snapshot of the room.
	Info() RoomInfo
}
