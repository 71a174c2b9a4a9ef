package service

import (
	"errors"
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-race-server/maze"
	"github.com/beka-birhanu/vinom-race-server/protocol"
	"github.com/beka-birhanu/vinom-race-server/service/i"
)

// Game-related errors.
var (
	ErrRoomFull              = errors.New("room is full")
	ErrUnknownPlayer         = errors.New("player is not in the room")
	ErrGameFinished          = errors.New("game is finished")
	ErrInvalidMove           = errors.New("invalid move")
	ErrDuplicateIdentity     = errors.New("identity is already playing in the room")
	ErrNotBigEnoughDimension = errors.New("dimension is not big enough")
	ErrEmptyIdentity         = errors.New("identity is empty")
)

// Game constants for configuration and action types.
const (
	joinActionType = iota
	leaveActionType
	moveActionType
	stateRequestActionType

	maxPlayers = 8 // Maximum number of players in a room.

	minDimension = 3 // Minimum maze dimension (rows or cols).

	defaultSnapshotInterval = 2 * time.Second
	eventBufferSize         = 64
)

// Player is the authoritative record of one racer.
type Player struct {
	Identity  string
	AvatarRef string
	Pos       maze.Position
}

func (p *Player) info() protocol.PlayerInfo {
	return protocol.PlayerInfo{
		Identity:  p.Identity,
		AvatarRef: p.AvatarRef,
		Row:       p.Pos.Row,
		Col:       p.Pos.Col,
	}
}

type action struct {
	kind      int
	identity  string
	avatarRef string
	target    maze.Position
	reply     chan error
}

// Game is the authority for one race room. All mutations happen on the
// goroutine running Start; readers take the read lock.
type Game struct {
	id               string
	seed             uint32
	grid             *maze.Grid
	players          map[string]*Player
	order            []string // join order, keeps snapshots stable
	version          int64
	winner           string
	snapshotInterval time.Duration
	actionChan       chan action
	events           chan i.GameEvent
	stop             chan struct{}
	done             chan struct{}
	stopOnce         sync.Once
	sync.RWMutex
}

// NewGame creates a room racing on grid, which must have been generated from seed.
func NewGame(id string, seed uint32, grid *maze.Grid, snapshotInterval time.Duration) (*Game, error) {
	if grid == nil || grid.Rows() < minDimension || grid.Cols() < minDimension {
		return nil, ErrNotBigEnoughDimension
	}
	if snapshotInterval <= 0 {
		snapshotInterval = defaultSnapshotInterval
	}

	return &Game{
		id:               id,
		seed:             seed,
		grid:             grid,
		players:          make(map[string]*Player),
		snapshotInterval: snapshotInterval,
		actionChan:       make(chan action),
		events:           make(chan i.GameEvent, eventBufferSize),
		stop:             make(chan struct{}),
		done:             make(chan struct{}),
	}, nil
}

// Start runs the room until the race is won, gameDuration elapses or Stop is
// called. It emits game_over and closes the event channel on the way out.
func (g *Game) Start(gameDuration time.Duration) {
	if gameDuration > 0 {
		timer := time.AfterFunc(gameDuration, g.Stop)
		defer timer.Stop()
	}
	ticker := time.NewTicker(g.snapshotInterval)
	defer ticker.Stop()
	defer g.finish()

	for {
		select {
		case <-g.stop:
			return
		case a := <-g.actionChan:
			if g.handleAction(a) {
				return
			}
		case <-ticker.C:
			g.emit(nil, protocol.EventUpdatePlayers, g.snapshot())
		}
	}
}

// Stop ends the game. It is safe to call more than once.
func (g *Game) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
}

// Events returns the outbound event channel.
func (g *Game) Events() <-chan i.GameEvent {
	return g.events
}

// Join places identity in the room. A known identity rejoins at its current position.
func (g *Game) Join(identity, avatarRef string) error {
	if identity == "" {
		return ErrEmptyIdentity
	}
	reply := make(chan error, 1)
	if !g.send(action{kind: joinActionType, identity: identity, avatarRef: avatarRef, reply: reply}) {
		return ErrGameFinished
	}
	select {
	case err := <-reply:
		return err
	case <-g.done:
		return ErrGameFinished
	}
}

// Leave removes identity from the room.
func (g *Game) Leave(identity string) {
	g.send(action{kind: leaveActionType, identity: identity})
}

// Move requests a one-cell step of identity to target.
func (g *Game) Move(identity string, target maze.Position) {
	g.send(action{kind: moveActionType, identity: identity, target: target})
}

// RequestPlayers sends a fresh snapshot to identity.
func (g *Game) RequestPlayers(identity string) {
	g.send(action{kind: stateRequestActionType, identity: identity})
}

// Info returns a snapshot of the room.
func (g *Game) Info() i.RoomInfo {
	g.RLock()
	defer g.RUnlock()

	goal := g.grid.Goal()
	return i.RoomInfo{
		ID:      g.id,
		Seed:    g.seed,
		Rows:    g.grid.Rows(),
		Cols:    g.grid.Cols(),
		GoalRow: goal.Row,
		GoalCol: goal.Col,
		Players: g.playerInfos(),
		Winner:  g.winner,
	}
}

func (g *Game) send(a action) bool {
	select {
	case g.actionChan <- a:
		return true
	case <-g.done:
		return false
	}
}

// handleAction processes one action and reports whether the game is over.
func (g *Game) handleAction(a action) bool {
	switch a.kind {
	case joinActionType:
		a.reply <- g.handleJoin(a.identity, a.avatarRef)
	case leaveActionType:
		g.handleLeave(a.identity)
	case moveActionType:
		return g.handleMove(a.identity, a.target)
	case stateRequestActionType:
		if g.hasPlayer(a.identity) {
			g.emit([]string{a.identity}, protocol.EventUpdatePlayers, g.snapshot())
		}
	}
	return false
}

func (g *Game) handleJoin(identity, avatarRef string) error {
	g.Lock()
	p, rejoin := g.players[identity]
	if !rejoin {
		if len(g.players) >= maxPlayers {
			g.Unlock()
			return ErrRoomFull
		}
		p = &Player{Identity: identity, AvatarRef: avatarRef, Pos: g.grid.Start()}
		g.players[identity] = p
		g.order = append(g.order, identity)
	} else if avatarRef != "" {
		p.AvatarRef = avatarRef
	}
	g.version++
	joined := p.info()
	g.Unlock()

	snap := g.snapshot()
	g.emit([]string{identity}, protocol.EventJoinGameAck, g.joinAck(snap))
	if others := g.others(identity); len(others) > 0 {
		g.emit(others, protocol.EventPlayerJoined, joined)
	}
	return nil
}

func (g *Game) handleLeave(identity string) {
	g.Lock()
	if _, ok := g.players[identity]; !ok {
		g.Unlock()
		return
	}
	delete(g.players, identity)
	for idx, id := range g.order {
		if id == identity {
			g.order = append(g.order[:idx], g.order[idx+1:]...)
			break
		}
	}
	g.version++
	version := g.version
	g.Unlock()

	g.emit(nil, protocol.EventPlayerLeft, protocol.PlayerLeft{Identity: identity, Version: version})
}

// handleMove validates a move request against the authoritative position.
// The first accepted move onto the goal wins and ends the game.
func (g *Game) handleMove(identity string, target maze.Position) bool {
	g.Lock()
	p, ok := g.players[identity]
	if !ok {
		g.Unlock()
		g.emit([]string{identity}, protocol.EventError, protocol.Error{Message: ErrUnknownPlayer.Error()})
		return false
	}

	d, adjacent := maze.StepBetween(p.Pos, target)
	if !adjacent || !maze.CanMove(g.grid, p.Pos, d) {
		current := p.Pos
		g.Unlock()
		g.emit([]string{identity}, protocol.EventMoveRejected, protocol.MoveRejected{
			Row:    current.Row,
			Col:    current.Col,
			Reason: ErrInvalidMove.Error(),
		})
		return false
	}

	p.Pos = target
	g.version++
	won := target == g.grid.Goal() && g.winner == ""
	if won {
		g.winner = identity
	}
	g.Unlock()

	g.emit(nil, protocol.EventPlayerMoved, protocol.PlayerMoved{Identity: identity, Row: target.Row, Col: target.Col})
	if won {
		g.emit(nil, protocol.EventPlayerWon, protocol.Outcome{Winner: identity})
	}
	return won
}

// finish emits game_over and releases everyone waiting on the room.
func (g *Game) finish() {
	g.Stop()
	g.RLock()
	winner := g.winner
	g.RUnlock()

	g.emit(nil, protocol.EventGameOver, protocol.Outcome{Winner: winner})
	close(g.done)
	close(g.events)
}

func (g *Game) emit(to []string, eventType string, payload any) {
	g.events <- i.GameEvent{To: to, Type: eventType, Payload: payload}
}

// snapshot creates a snapshot of the current player set.
func (g *Game) snapshot() protocol.UpdatePlayers {
	g.RLock()
	defer g.RUnlock()

	return protocol.UpdatePlayers{
		Room:    g.id,
		Version: g.version,
		Players: g.playerInfos(),
	}
}

func (g *Game) joinAck(snap protocol.UpdatePlayers) protocol.JoinAck {
	seed := g.seed
	goal := g.grid.Goal()
	return protocol.JoinAck{
		Room:    g.id,
		Seed:    &seed,
		Rows:    g.grid.Rows(),
		Cols:    g.grid.Cols(),
		GoalRow: goal.Row,
		GoalCol: goal.Col,
		Version: snap.Version,
		Players: snap.Players,
	}
}

// playerInfos must be called with the lock held.
func (g *Game) playerInfos() []protocol.PlayerInfo {
	out := make([]protocol.PlayerInfo, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.players[id].info())
	}
	return out
}

func (g *Game) hasPlayer(identity string) bool {
	g.RLock()
	defer g.RUnlock()
	_, ok := g.players[identity]
	return ok
}

func (g *Game) others(identity string) []string {
	g.RLock()
	defer g.RUnlock()

	out := make([]string, 0, len(g.order))
	for _, id := range g.order {
		if id != identity {
			out = append(out, id)
		}
	}
	return out
}
