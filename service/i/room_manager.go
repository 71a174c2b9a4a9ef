package i

import (
	"github.com/beka-birhanu/vinom-race-server/protocol"
)

// RoomSpec describes a room to create. Zero Rows/Cols select the configured
// defaults; a nil Seed lets the manager pick one; an empty ID generates one.
type RoomSpec struct {
	ID   string
	Rows int
	Cols int
	Seed *uint32
}

// RoomInfo describes a live room.
type RoomInfo struct {
	ID      string
	Seed    uint32
	Rows    int
	Cols    int
	GoalRow int
	GoalCol int
	Players []protocol.PlayerInfo
	Winner  string
}

// RoomManager manages race rooms and provides room-related information.
type RoomManager interface {
	// NewRoom creates and starts a room.
	NewRoom(RoomSpec) (RoomInfo, error)

	// RoomInfo returns the room with the given ID.
	RoomInfo(id string) (RoomInfo, error)

	StopAll()
}
