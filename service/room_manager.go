package service

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-race-server/maze"
	"github.com/beka-birhanu/vinom-race-server/protocol"
	"github.com/beka-birhanu/vinom-race-server/service/i"
	"github.com/google/uuid"
)

const (
	defaultMazeSize     = 21
	defaultGameDuration = 5 * time.Minute
)

// Room manager errors.
var (
	ErrRoomExists     = errors.New("room already exists")
	ErrRoomNotFound   = errors.New("room not found")
	ErrAlreadyJoined  = errors.New("connection already joined a room")
	ErrNotJoined      = errors.New("connection has not joined a room")
	ErrUnknownEvent   = errors.New("unknown event type")
	ErrMissingSocket  = errors.New("room manager needs a client socket")
	ErrInvalidRequest = errors.New("room and identity are required")
	ErrManagerStopped = errors.New("room manager is stopped")
	ErrNotInLobby     = errors.New("connection is not in the lobby")
)

var (
	_ i.RoomManager = (*RoomManager)(nil)
	_ i.GameServer  = (*Game)(nil)
)

type room struct {
	game    i.GameServer
	members map[string]string // identity -> connection ID
}

type membership struct {
	room     string
	identity string
}

// RoomManager owns every live room and routes socket traffic to them.
type RoomManager struct {
	socket           i.ClientSocket
	rooms            map[string]*room
	connToMember     map[string]membership
	mazeFactory      func(rows, cols int, seed uint32) (*maze.Grid, error)
	seedFunc         func() uint32
	rows             int
	cols             int
	snapshotInterval time.Duration
	gameDuration     time.Duration
	logger           i.Logger
	stopped          bool
	wg               sync.WaitGroup
	sync.RWMutex

	lobby   map[string]string // connection ID -> identity
	lobbyMu sync.Mutex
}

// Config configures a RoomManager. Zero values select the defaults.
type Config struct {
	Socket           i.ClientSocket
	MazeFactory      func(rows, cols int, seed uint32) (*maze.Grid, error)
	SeedFunc         func() uint32
	Rows             int
	Cols             int
	SnapshotInterval time.Duration
	GameDuration     time.Duration
	Logger           i.Logger
}

// NewRoomManager creates a manager and registers its handlers on the socket.
func NewRoomManager(c *Config) (*RoomManager, error) {
	if c.Socket == nil {
		return nil, ErrMissingSocket
	}

	rm := &RoomManager{
		socket:           c.Socket,
		rooms:            make(map[string]*room),
		connToMember:     make(map[string]membership),
		lobby:            make(map[string]string),
		mazeFactory:      c.MazeFactory,
		seedFunc:         c.SeedFunc,
		rows:             c.Rows,
		cols:             c.Cols,
		snapshotInterval: c.SnapshotInterval,
		gameDuration:     c.GameDuration,
		logger:           c.Logger,
	}
	if rm.logger == nil {
		rm.logger = nopLogger{}
	}
	if rm.mazeFactory == nil {
		rm.mazeFactory = maze.Generate
	}
	if rm.seedFunc == nil {
		rm.seedFunc = rand.Uint32
	}
	if rm.rows == 0 {
		rm.rows = defaultMazeSize
	}
	if rm.cols == 0 {
		rm.cols = defaultMazeSize
	}
	if rm.gameDuration <= 0 {
		rm.gameDuration = defaultGameDuration
	}
	if err := maze.ValidateDimensions(rm.rows, rm.cols); err != nil {
		return nil, fmt.Errorf("default room dimensions: %w", err)
	}

	c.Socket.SetRequestHandler(rm.handleRequest)
	c.Socket.SetDisconnectHandler(rm.handleDisconnect)
	return rm, nil
}

// NewRoom creates and starts a room.
func (m *RoomManager) NewRoom(spec i.RoomSpec) (i.RoomInfo, error) {
	if spec.ID == "" {
		spec.ID = uuid.NewString()
	}
	if spec.Rows == 0 {
		spec.Rows = m.rows
	}
	if spec.Cols == 0 {
		spec.Cols = m.cols
	}
	seed := m.seedFunc()
	if spec.Seed != nil {
		seed = *spec.Seed
	}

	grid, err := m.mazeFactory(spec.Rows, spec.Cols, seed)
	if err != nil {
		return i.RoomInfo{}, fmt.Errorf("creating maze for room %s: %w", spec.ID, err)
	}
	game, err := NewGame(spec.ID, seed, grid, m.snapshotInterval)
	if err != nil {
		return i.RoomInfo{}, fmt.Errorf("creating game for room %s: %w", spec.ID, err)
	}

	if err := m.saveRoom(spec.ID, game); err != nil {
		return i.RoomInfo{}, err
	}

	go game.Start(m.gameDuration)
	go m.listenGame(spec.ID, game)
	m.logger.Info(fmt.Sprintf("started room %s (%dx%d, seed %d)", spec.ID, spec.Rows, spec.Cols, seed))
	return game.Info(), nil
}

// RoomInfo returns the room with the given ID.
func (m *RoomManager) RoomInfo(id string) (i.RoomInfo, error) {
	m.RLock()
	r, ok := m.rooms[id]
	m.RUnlock()
	if !ok {
		return i.RoomInfo{}, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}
	return r.game.Info(), nil
}

// StopAll stops every room and waits until their final events are delivered.
// No room can be created afterwards.
func (m *RoomManager) StopAll() {
	m.Lock()
	m.stopped = true
	games := make([]i.GameServer, 0, len(m.rooms))
	for _, r := range m.rooms {
		games = append(games, r.game)
	}
	m.Unlock()

	for _, g := range games {
		g.Stop()
	}
	m.wg.Wait()
}

// saveRoom registers the room and accounts for its listener. Both happen
// under the lock so StopAll never waits on a group that is still growing.
func (m *RoomManager) saveRoom(id string, gs i.GameServer) error {
	m.Lock()
	defer m.Unlock()
	if m.stopped {
		return ErrManagerStopped
	}
	if _, ok := m.rooms[id]; ok {
		return fmt.Errorf("%w: %s", ErrRoomExists, id)
	}
	m.rooms[id] = &room{game: gs, members: make(map[string]string)}
	m.wg.Add(1)
	return nil
}

func (m *RoomManager) handleRequest(connID string, msg protocol.Message) {
	var err error
	switch msg.Type {
	case protocol.EventJoinRoom:
		var req protocol.JoinRoom
		if err = msg.Decode(&req); err == nil {
			err = m.join(connID, req)
		}
	case protocol.EventLeaveRoom:
		err = m.leave(connID)
	case protocol.EventMove:
		var req protocol.Move
		if err = msg.Decode(&req); err == nil {
			err = m.withMember(connID, func(g i.GameServer, identity string) {
				g.Move(identity, req.Position())
			})
		}
	case protocol.EventRequestPlayers:
		err = m.withMember(connID, func(g i.GameServer, identity string) {
			g.RequestPlayers(identity)
		})
	case protocol.EventJoinLobby:
		var req protocol.JoinLobby
		if err = msg.Decode(&req); err == nil {
			err = m.joinLobby(connID, req.Identity)
		}
	case protocol.EventLeaveLobby:
		err = m.leaveLobby(connID)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownEvent, msg.Type)
	}

	if err != nil {
		m.logger.Warning(fmt.Sprintf("request %s from %s: %s", msg.Type, connID, err))
		if sendErr := m.socket.Send(connID, protocol.EventError, protocol.Error{Message: err.Error()}); sendErr != nil {
			m.logger.Warning(fmt.Sprintf("sending error to %s: %s", connID, sendErr))
		}
	}
}

func (m *RoomManager) handleDisconnect(connID string) {
	if err := m.leave(connID); err != nil && !errors.Is(err, ErrNotJoined) {
		m.logger.Warning(fmt.Sprintf("disconnect of %s: %s", connID, err))
	}
	if err := m.leaveLobby(connID); err != nil && !errors.Is(err, ErrNotInLobby) {
		m.logger.Warning(fmt.Sprintf("disconnect of %s from lobby: %s", connID, err))
	}
}

// joinLobby marks identity online and sends the user list to the whole lobby.
// A connection that joins again is renamed.
func (m *RoomManager) joinLobby(connID, identity string) error {
	if identity == "" {
		return ErrEmptyIdentity
	}
	m.lobbyMu.Lock()
	defer m.lobbyMu.Unlock()

	m.lobby[connID] = identity
	m.broadcastUsers()
	m.logger.Info(fmt.Sprintf("%s is online", identity))
	return nil
}

// leaveLobby drops the connection and sends the user list to those remaining.
func (m *RoomManager) leaveLobby(connID string) error {
	m.lobbyMu.Lock()
	defer m.lobbyMu.Unlock()

	identity, ok := m.lobby[connID]
	if !ok {
		return ErrNotInLobby
	}
	delete(m.lobby, connID)
	m.broadcastUsers()
	m.logger.Info(fmt.Sprintf("%s left the lobby on %s", identity, connID))
	return nil
}

// broadcastUsers must be called with lobbyMu held, which keeps lists in order.
func (m *RoomManager) broadcastUsers() {
	if len(m.lobby) == 0 {
		return
	}
	connIDs := make([]string, 0, len(m.lobby))
	seen := make(map[string]struct{}, len(m.lobby))
	users := make([]string, 0, len(m.lobby))
	for connID, identity := range m.lobby {
		connIDs = append(connIDs, connID)
		if _, dup := seen[identity]; !dup {
			seen[identity] = struct{}{}
			users = append(users, identity)
		}
	}
	sort.Strings(connIDs)
	sort.Strings(users)
	m.socket.Broadcast(connIDs, protocol.EventUpdateUserList, protocol.UserList{Users: users})
}

// join binds the connection to identity in the requested room, creating the
// room on first use. The binding is registered before the game accepts the
// player so that the acknowledgement can be routed.
func (m *RoomManager) join(connID string, req protocol.JoinRoom) error {
	if req.Room == "" || req.Identity == "" {
		return ErrInvalidRequest
	}

	m.RLock()
	_, joined := m.connToMember[connID]
	_, exists := m.rooms[req.Room]
	m.RUnlock()
	if joined {
		return ErrAlreadyJoined
	}
	if !exists {
		if _, err := m.NewRoom(i.RoomSpec{ID: req.Room}); err != nil && !errors.Is(err, ErrRoomExists) {
			return err
		}
	}

	m.Lock()
	if _, ok := m.connToMember[connID]; ok {
		m.Unlock()
		return ErrAlreadyJoined
	}
	r, ok := m.rooms[req.Room]
	if !ok {
		m.Unlock()
		return fmt.Errorf("%w: %s", ErrRoomNotFound, req.Room)
	}
	if _, taken := r.members[req.Identity]; taken {
		m.Unlock()
		return ErrDuplicateIdentity
	}
	r.members[req.Identity] = connID
	m.connToMember[connID] = membership{room: req.Room, identity: req.Identity}
	game := r.game
	m.Unlock()

	if err := game.Join(req.Identity, req.AvatarRef); err != nil {
		m.unbind(connID)
		return err
	}
	m.logger.Info(fmt.Sprintf("%s joined room %s", req.Identity, req.Room))
	return nil
}

func (m *RoomManager) leave(connID string) error {
	mem, game, ok := m.unbind(connID)
	if !ok {
		return ErrNotJoined
	}
	if game != nil {
		game.Leave(mem.identity)
	}
	m.logger.Info(fmt.Sprintf("%s left room %s", mem.identity, mem.room))
	return nil
}

// unbind forgets the connection and returns what it was bound to.
func (m *RoomManager) unbind(connID string) (membership, i.GameServer, bool) {
	m.Lock()
	defer m.Unlock()

	mem, ok := m.connToMember[connID]
	if !ok {
		return membership{}, nil, false
	}
	delete(m.connToMember, connID)

	r, ok := m.rooms[mem.room]
	if !ok {
		return mem, nil, true
	}
	if r.members[mem.identity] == connID {
		delete(r.members, mem.identity)
	}
	return mem, r.game, true
}

func (m *RoomManager) withMember(connID string, fn func(g i.GameServer, identity string)) error {
	m.RLock()
	mem, ok := m.connToMember[connID]
	var r *room
	if ok {
		r = m.rooms[mem.room]
	}
	m.RUnlock()

	if !ok {
		return ErrNotJoined
	}
	if r == nil {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, mem.room)
	}
	fn(r.game, mem.identity)
	return nil
}

func (m *RoomManager) listenGame(id string, gs i.GameServer) {
	defer m.wg.Done()
	for ev := range gs.Events() {
		m.dispatch(id, ev)
	}
	m.clean(id)
	m.logger.Info(fmt.Sprintf("room %s ended", id))
}

func (m *RoomManager) dispatch(id string, ev i.GameEvent) {
	m.RLock()
	r, ok := m.rooms[id]
	if !ok {
		m.RUnlock()
		return
	}
	var connIDs []string
	if ev.To == nil {
		connIDs = make([]string, 0, len(r.members))
		for _, connID := range r.members {
			connIDs = append(connIDs, connID)
		}
	} else {
		connIDs = make([]string, 0, len(ev.To))
		for _, identity := range ev.To {
			if connID, ok := r.members[identity]; ok {
				connIDs = append(connIDs, connID)
			}
		}
	}
	m.RUnlock()

	switch len(connIDs) {
	case 0:
	case 1:
		if err := m.socket.Send(connIDs[0], ev.Type, ev.Payload); err != nil {
			m.logger.Warning(fmt.Sprintf("sending %s to %s: %s", ev.Type, connIDs[0], err))
		}
	default:
		m.socket.Broadcast(connIDs, ev.Type, ev.Payload)
	}
}

func (m *RoomManager) clean(id string) {
	m.Lock()
	defer m.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return
	}
	for _, connID := range r.members {
		if m.connToMember[connID].room == id {
			delete(m.connToMember, connID)
		}
	}
	delete(m.rooms, id)
}

type nopLogger struct{}

func (nopLogger) Info(string)    {}
func (nopLogger) Warning(string) {}
func (nopLogger) Error(string)   {}
