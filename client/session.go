// Package client is the racer side of a room: a reducer that folds room
// events into local agent state, a websocket transport and the game loop
// that drives both.
package client

import (
	"errors"
	"fmt"
	"sort"

	"github.com/beka-birhanu/vinom-race-server/maze"
	"github.com/beka-birhanu/vinom-race-server/motion"
	"github.com/beka-birhanu/vinom-race-server/protocol"
	"github.com/beka-birhanu/vinom-race-server/race"
)

// Session errors.
var (
	ErrMissingIdentity = errors.New("session identity is empty")
	ErrMissingSeed     = errors.New("join acknowledgement carries no seed")
	ErrGoalMismatch    = errors.New("generated goal differs from the announced goal")
)

// DefaultCellSize is the pixel size of one grid cell.
const DefaultCellSize = 40.0

// Phase is the session lifecycle as seen by the player.
type Phase int

const (
	Playing Phase = iota
	// Idle follows game_over: the outcome is known and input is ignored.
	Idle
)

// Agent is an immutable snapshot of one participant. Updates replace it.
type Agent struct {
	Identity  string
	AvatarRef string
	Pos       maze.Position
	Motion    motion.State
}

// NoticeKind classifies what a Notice reports.
type NoticeKind int

const (
	NoticeJoined NoticeKind = iota
	NoticeLeft
	NoticeWinner
	NoticeGameOver
	NoticeCorrected
	NoticeServerError
	NoticeTransport
)

// Notice is a user-facing status change.
type Notice struct {
	Kind     NoticeKind
	Identity string
	Message  string
}

// Marker is the render input for one agent.
type Marker struct {
	Identity  string
	AvatarRef string
	X, Y      float64
	Self      bool
}

// Session holds everything one racer knows about its room. It is not safe
// for concurrent use; the driver owns it.
type Session struct {
	self     string
	room     string
	seed     uint32
	grid     *maze.Grid
	local    Agent
	peers    map[string]Agent
	departed map[string]int64 // identity -> room version of the departure
	resolver *race.Resolver
	layout   motion.Layout
	speed    float64
	version  int64
	phase    Phase
	notify   func(Notice)
}

// Option configures a Session.
type Option func(*Session)

// WithSpeed sets the render speed in pixels per second.
func WithSpeed(speed float64) Option {
	return func(s *Session) { s.speed = speed }
}

// WithLayout sets the cell to pixel mapping.
func WithLayout(l motion.Layout) Option {
	return func(s *Session) { s.layout = l }
}

// WithNotify registers a hook for notices.
func WithNotify(f func(Notice)) Option {
	return func(s *Session) { s.notify = f }
}

// NewSession derives the room's maze from the acknowledgement and seeds the
// peer set from its player list. It refuses to start without a seed or with
// dimensions the generator rejects.
func NewSession(self string, ack protocol.JoinAck, opts ...Option) (*Session, error) {
	if self == "" {
		return nil, ErrMissingIdentity
	}
	if ack.Seed == nil {
		return nil, ErrMissingSeed
	}
	grid, err := maze.Generate(ack.Rows, ack.Cols, *ack.Seed)
	if err != nil {
		return nil, fmt.Errorf("deriving maze for room %s: %w", ack.Room, err)
	}
	if goal := (maze.Position{Row: ack.GoalRow, Col: ack.GoalCol}); goal != grid.Goal() {
		return nil, fmt.Errorf("%w: %+v != %+v", ErrGoalMismatch, grid.Goal(), goal)
	}

	s := &Session{
		self:     self,
		room:     ack.Room,
		seed:     *ack.Seed,
		grid:     grid,
		peers:    make(map[string]Agent),
		departed: make(map[string]int64),
		resolver: race.NewResolver(grid.Goal()),
		layout:   motion.Layout{CellSize: DefaultCellSize},
		speed:    motion.DefaultSpeed,
		phase:    Playing,
	}
	for _, opt := range opts {
		opt(s)
	}

	start := grid.Start()
	for _, p := range ack.Players {
		if p.Identity == self && grid.IsPassage(p.Position()) {
			start = p.Position()
			s.local.AvatarRef = p.AvatarRef
		}
	}
	s.local.Identity = self
	s.local.Pos = start
	s.local.Motion = s.settledAt(start)

	s.applySnapshot(ack.Version, ack.Players)
	return s, nil
}

// Apply folds one inbound event into the session. Events about unknown or
// departed peers and unknown event types are ignored; only undecodable
// payloads are reported.
func (s *Session) Apply(msg protocol.Message) error {
	switch msg.Type {
	case protocol.EventJoinGameAck:
		var ack protocol.JoinAck
		if err := msg.Decode(&ack); err != nil {
			return err
		}
		s.applySnapshot(ack.Version, ack.Players)
	case protocol.EventUpdatePlayers:
		var snap protocol.UpdatePlayers
		if err := msg.Decode(&snap); err != nil {
			return err
		}
		s.applySnapshot(snap.Version, snap.Players)
	case protocol.EventPlayerJoined:
		var p protocol.PlayerInfo
		if err := msg.Decode(&p); err != nil {
			return err
		}
		s.applyJoined(p)
	case protocol.EventPlayerMoved:
		var p protocol.PlayerMoved
		if err := msg.Decode(&p); err != nil {
			return err
		}
		s.applyMoved(p)
	case protocol.EventPlayerLeft:
		var p protocol.PlayerLeft
		if err := msg.Decode(&p); err != nil {
			return err
		}
		s.applyLeft(p.Identity, p.Version)
	case protocol.EventPlayerWon, protocol.EventGameOver:
		var o protocol.Outcome
		if err := msg.Decode(&o); err != nil {
			return err
		}
		s.applyOutcome(msg.Type, o.Winner)
	case protocol.EventMoveRejected:
		var r protocol.MoveRejected
		if err := msg.Decode(&r); err != nil {
			return err
		}
		s.applyRejected(r)
	case protocol.EventError:
		var e protocol.Error
		if err := msg.Decode(&e); err != nil {
			return err
		}
		s.emit(Notice{Kind: NoticeServerError, Message: e.Message})
	}
	return nil
}

// Tick advances every agent by dt seconds. When the local agent is idle and
// the race is running it tries intent; an accepted step is committed locally
// and returned as the move to send.
func (s *Session) Tick(dt float64, intent maze.Direction) (*protocol.Move, bool) {
	for id, a := range s.peers {
		if a.Motion.Moving {
			a.Motion = a.Motion.Advance(dt, s.speed)
			s.peers[id] = a
		}
	}
	s.local.Motion = s.local.Motion.Advance(dt, s.speed)

	if s.phase != Playing || s.resolver.Finished() || s.local.Motion.Moving {
		return nil, false
	}
	if !maze.CanMove(s.grid, s.local.Pos, intent) {
		return nil, false
	}

	target := s.local.Pos.Step(intent)
	s.local.Pos = target
	s.local.Motion = s.local.Motion.Toward(s.layout.Center(target))
	if s.resolver.Observe(s.self, target) {
		s.emit(Notice{Kind: NoticeWinner, Identity: s.self, Message: "reached the goal"})
	}

	return &protocol.Move{Room: s.room, Identity: s.self, Row: target.Row, Col: target.Col}, true
}

// Frame returns render markers, the local agent first and peers by identity.
func (s *Session) Frame() []Marker {
	out := make([]Marker, 0, len(s.peers)+1)
	out = append(out, marker(s.local, true))
	for _, a := range s.Peers() {
		out = append(out, marker(a, false))
	}
	return out
}

func marker(a Agent, self bool) Marker {
	return Marker{Identity: a.Identity, AvatarRef: a.AvatarRef, X: a.Motion.X, Y: a.Motion.Y, Self: self}
}

// Self returns the local agent.
func (s *Session) Self() Agent { return s.local }

// Peer returns the peer with the given identity.
func (s *Session) Peer(identity string) (Agent, bool) {
	a, ok := s.peers[identity]
	return a, ok
}

// Peers returns the peers sorted by identity.
func (s *Session) Peers() []Agent {
	out := make([]Agent, 0, len(s.peers))
	for _, a := range s.peers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out
}

func (s *Session) Grid() *maze.Grid { return s.grid }

func (s *Session) Room() string { return s.room }

func (s *Session) Seed() uint32 { return s.seed }

func (s *Session) Race() race.State { return s.resolver.State() }

func (s *Session) Phase() Phase { return s.phase }

func (s *Session) Version() int64 { return s.version }

// Center returns the pixel centre of p under the session layout.
func (s *Session) Center(p maze.Position) (float64, float64) {
	return s.layout.Center(p)
}

// applySnapshot replaces the peer set. Peers that persist keep their render
// position and aim at the new cell; new peers appear settled. Snapshots older
// than the last one applied are dropped, and so are departed peers listed in
// a snapshot no newer than their departure.
func (s *Session) applySnapshot(version int64, players []protocol.PlayerInfo) {
	if version < s.version {
		return
	}
	s.version = version

	next := make(map[string]Agent, len(players))
	for _, p := range players {
		if p.Identity == s.self || p.Identity == "" {
			continue
		}
		if leftAt, gone := s.departed[p.Identity]; gone {
			if version <= leftAt {
				continue
			}
			delete(s.departed, p.Identity)
		}
		next[p.Identity] = s.retarget(p.Identity, p.AvatarRef, p.Position())
	}
	s.peers = next
}

func (s *Session) applyJoined(p protocol.PlayerInfo) {
	if p.Identity == s.self || p.Identity == "" {
		return
	}
	delete(s.departed, p.Identity)
	_, known := s.peers[p.Identity]
	s.peers[p.Identity] = s.retarget(p.Identity, p.AvatarRef, p.Position())
	if !known {
		s.emit(Notice{Kind: NoticeJoined, Identity: p.Identity, Message: p.Identity + " joined"})
	}
}

// applyMoved overwrites the peer's target with the latest known cell. An
// unknown peer is an implicit join; a departed one stays gone.
func (s *Session) applyMoved(p protocol.PlayerMoved) {
	if p.Identity == s.self || p.Identity == "" {
		return
	}
	if _, gone := s.departed[p.Identity]; gone {
		return
	}
	prev, known := s.peers[p.Identity]
	s.peers[p.Identity] = s.retarget(p.Identity, prev.AvatarRef, p.Position())
	if !known {
		s.emit(Notice{Kind: NoticeJoined, Identity: p.Identity, Message: p.Identity + " joined"})
	}
}

// applyLeft marks identity as departed as of the room version. A zero
// version comes from an authority that does not stamp departures.
func (s *Session) applyLeft(identity string, version int64) {
	if identity == s.self || identity == "" {
		return
	}
	s.departed[identity] = version
	if _, ok := s.peers[identity]; !ok {
		return
	}
	delete(s.peers, identity)
	s.emit(Notice{Kind: NoticeLeft, Identity: identity, Message: identity + " left"})
}

func (s *Session) applyOutcome(eventType, winner string) {
	if s.resolver.Announce(winner) {
		s.emit(Notice{Kind: NoticeWinner, Identity: winner, Message: winner + " won"})
	}
	if eventType == protocol.EventGameOver && s.phase != Idle {
		s.phase = Idle
		msg := "game over"
		if w := s.resolver.Winner(); w != "" {
			msg = "game over, " + w + " won"
		}
		s.emit(Notice{Kind: NoticeGameOver, Identity: s.resolver.Winner(), Message: msg})
	}
}

// applyRejected snaps the local agent back to the authority's cell.
func (s *Session) applyRejected(r protocol.MoveRejected) {
	pos := r.Position()
	if !s.grid.IsPassage(pos) {
		return
	}
	s.local.Pos = pos
	s.local.Motion = s.settledAt(pos)
	s.emit(Notice{Kind: NoticeCorrected, Identity: s.self, Message: r.Reason})
}

func (s *Session) retarget(identity, avatarRef string, pos maze.Position) Agent {
	prev, ok := s.peers[identity]
	if !ok {
		return Agent{Identity: identity, AvatarRef: avatarRef, Pos: pos, Motion: s.settledAt(pos)}
	}
	if avatarRef == "" {
		avatarRef = prev.AvatarRef
	}
	return Agent{Identity: identity, AvatarRef: avatarRef, Pos: pos, Motion: prev.Motion.Toward(s.layout.Center(pos))}
}

func (s *Session) settledAt(p maze.Position) motion.State {
	return motion.Settled(s.layout.Center(p))
}

func (s *Session) emit(n Notice) {
	if s.notify != nil {
		s.notify(n)
	}
}
