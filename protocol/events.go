// Package protocol defines the room event contract shared by the authority
// and its clients, and the codecs that put it on the wire.
package protocol

import "github.com/beka-birhanu/vinom-race-server/maze"

// Client to server events.
const (
	EventJoinRoom       = "join_room"
	EventLeaveRoom      = "leave_room"
	EventMove           = "move"
	EventRequestPlayers = "request_players"
	EventJoinLobby      = "join_lobby"
	EventLeaveLobby     = "leave_lobby"
)

// Server to client events.
const (
	EventJoinGameAck    = "join_game_ack"
	EventUpdatePlayers  = "update_players"
	EventPlayerJoined   = "player_joined"
	EventPlayerMoved    = "player_moved"
	EventPlayerLeft     = "player_left"
	EventPlayerWon      = "player_won"
	EventGameOver       = "game_over"
	EventMoveRejected   = "move_rejected"
	EventUpdateUserList = "update_user_list"
	EventError          = "error"
)

// JoinRoom asks the authority to place identity in room.
type JoinRoom struct {
	Room      string `json:"room"`
	Identity  string `json:"identity"`
	AvatarRef string `json:"avatarRef,omitempty"`
}

// LeaveRoom is an explicit departure.
type LeaveRoom struct {
	Room string `json:"room"`
}

// Move requests a one-cell step to (Row, Col). The authority decides.
type Move struct {
	Room     string `json:"room"`
	Identity string `json:"identity"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
}

// Position returns the requested cell.
func (m Move) Position() maze.Position { return maze.Position{Row: m.Row, Col: m.Col} }

// RequestPlayers pulls a fresh update_players snapshot.
type RequestPlayers struct {
	Room string `json:"room"`
}

// PlayerInfo is one entry of a player snapshot.
type PlayerInfo struct {
	Identity  string `json:"identity"`
	AvatarRef string `json:"avatarRef,omitempty"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
}

// Position returns the player's discrete cell.
func (p PlayerInfo) Position() maze.Position { return maze.Position{Row: p.Row, Col: p.Col} }

// JoinAck acknowledges a join and carries everything needed to derive the
// room's maze locally. A nil Seed is a precondition violation.
type JoinAck struct {
	Room    string       `json:"room"`
	Seed    *uint32      `json:"seed,omitempty"`
	Rows    int          `json:"rows"`
	Cols    int          `json:"cols"`
	GoalRow int          `json:"goalRow"`
	GoalCol int          `json:"goalCol"`
	Version int64        `json:"version"`
	Players []PlayerInfo `json:"players"`
}

// UpdatePlayers is the authoritative player snapshot.
type UpdatePlayers struct {
	Room    string       `json:"room"`
	Version int64        `json:"version"`
	Players []PlayerInfo `json:"players"`
}

// PlayerMoved carries a peer's latest discrete position.
type PlayerMoved struct {
	Identity string `json:"identity"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
}

// Position returns the announced cell.
func (p PlayerMoved) Position() maze.Position { return maze.Position{Row: p.Row, Col: p.Col} }

// PlayerLeft announces a departure. Version is the room version right after
// the player was removed.
type PlayerLeft struct {
	Identity string `json:"identity"`
	Version  int64  `json:"version,omitempty"`
}

// Outcome is the payload of player_won and game_over. Winner is empty when
// the game ended without one.
type Outcome struct {
	Winner string `json:"winner"`
}

// MoveRejected returns the authoritative position of a mover whose request
// was refused.
type MoveRejected struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Reason string `json:"reason,omitempty"`
}

// Position returns the authoritative cell.
func (m MoveRejected) Position() maze.Position { return maze.Position{Row: m.Row, Col: m.Col} }

// JoinLobby announces identity as online.
type JoinLobby struct {
	Identity string `json:"identity"`
}

// UserList is the sorted set of identities online in the lobby.
type UserList struct {
	Users []string `json:"users"`
}

// Error reports a refused request.
type Error struct {
	Message string `json:"message"`
}
