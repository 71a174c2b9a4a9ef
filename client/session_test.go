package client

import (
	"errors"
	"testing"

	"github.com/beka-birhanu/vinom-race-server/maze"
	"github.com/beka-birhanu/vinom-race-server/protocol"
	"github.com/beka-birhanu/vinom-race-server/race"
)

// seed 42 on 5x5 carves:
//
//	#####
//	#...#
//	###.#
//	#...#
//	#####
func testAck() protocol.JoinAck {
	seed := uint32(42)
	return protocol.JoinAck{
		Room:    "lobby",
		Seed:    &seed,
		Rows:    5,
		Cols:    5,
		GoalRow: 3,
		GoalCol: 3,
		Version: 2,
		Players: []protocol.PlayerInfo{
			{Identity: "alice", Row: 1, Col: 1},
			{Identity: "bob", AvatarRef: "bob.png", Row: 1, Col: 1},
		},
	}
}

func newTestSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s, err := NewSession("alice", testAck(), opts...)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func apply(t *testing.T, s *Session, eventType string, payload any) {
	t.Helper()
	msg, err := protocol.NewMessage(eventType, payload)
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if err := s.Apply(msg); err != nil {
		t.Fatalf("Apply %s: %v", eventType, err)
	}
}

func assertTarget(t *testing.T, s *Session, identity string, want maze.Position) {
	t.Helper()
	a, ok := s.Peer(identity)
	if !ok {
		t.Fatalf("peer %s missing", identity)
	}
	x, y := s.Center(want)
	if a.Pos != want || a.Motion.TargetX != x || a.Motion.TargetY != y {
		t.Fatalf("peer %s at %+v targeting (%v,%v), want %+v", identity, a.Pos, a.Motion.TargetX, a.Motion.TargetY, want)
	}
}

func TestNewSessionPreconditions(t *testing.T) {
	noSeed := testAck()
	noSeed.Seed = nil
	even := testAck()
	even.Rows = 4
	wrongGoal := testAck()
	wrongGoal.GoalCol = 1

	tests := []struct {
		name string
		self string
		ack  protocol.JoinAck
		want error
	}{
		{name: "missing seed", self: "alice", ack: noSeed, want: ErrMissingSeed},
		{name: "even rows", self: "alice", ack: even, want: maze.ErrEvenDimension},
		{name: "goal mismatch", self: "alice", ack: wrongGoal, want: ErrGoalMismatch},
		{name: "no identity", self: "", ack: testAck(), want: ErrMissingIdentity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSession(tt.self, tt.ack); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewSessionSeedsPeersExcludingSelf(t *testing.T) {
	s := newTestSession(t)
	peers := s.Peers()
	if len(peers) != 1 || peers[0].Identity != "bob" || peers[0].AvatarRef != "bob.png" {
		t.Fatalf("unexpected peers %+v", peers)
	}
	if s.Self().Pos != (maze.Position{Row: 1, Col: 1}) || s.Version() != 2 {
		t.Fatalf("unexpected self %+v version %d", s.Self(), s.Version())
	}
	want, _ := maze.Generate(5, 5, 42)
	if !s.Grid().Equal(want) {
		t.Fatalf("session grid differs from the seeded maze")
	}
}

func TestPlayerMovedLastWriteWins(t *testing.T) {
	first := maze.Position{Row: 2, Col: 2}
	second := maze.Position{Row: 1, Col: 1}

	s := newTestSession(t)
	apply(t, s, protocol.EventPlayerMoved, protocol.PlayerMoved{Identity: "bob", Row: first.Row, Col: first.Col})
	apply(t, s, protocol.EventPlayerMoved, protocol.PlayerMoved{Identity: "bob", Row: second.Row, Col: second.Col})
	assertTarget(t, s, "bob", second)

	s = newTestSession(t)
	apply(t, s, protocol.EventPlayerMoved, protocol.PlayerMoved{Identity: "bob", Row: second.Row, Col: second.Col})
	apply(t, s, protocol.EventPlayerMoved, protocol.PlayerMoved{Identity: "bob", Row: first.Row, Col: first.Col})
	assertTarget(t, s, "bob", first)
}

func TestPlayerMovedMembershipRules(t *testing.T) {
	var notices []Notice
	s := newTestSession(t, WithNotify(func(n Notice) { notices = append(notices, n) }))

	apply(t, s, protocol.EventPlayerMoved, protocol.PlayerMoved{Identity: "alice", Row: 3, Col: 3})
	if s.Self().Pos != (maze.Position{Row: 1, Col: 1}) {
		t.Fatalf("player_moved for self must not override local prediction")
	}

	apply(t, s, protocol.EventPlayerMoved, protocol.PlayerMoved{Identity: "carol", Row: 1, Col: 3})
	carol, ok := s.Peer("carol")
	if !ok || carol.Motion.Moving {
		t.Fatalf("unknown mover should join settled, got %+v", carol)
	}

	apply(t, s, protocol.EventPlayerLeft, protocol.PlayerLeft{Identity: "bob"})
	apply(t, s, protocol.EventPlayerMoved, protocol.PlayerMoved{Identity: "bob", Row: 1, Col: 2})
	if _, ok := s.Peer("bob"); ok {
		t.Fatalf("departed peer was recreated by a late move")
	}

	apply(t, s, protocol.EventPlayerJoined, protocol.PlayerInfo{Identity: "bob", Row: 1, Col: 1})
	apply(t, s, protocol.EventPlayerMoved, protocol.PlayerMoved{Identity: "bob", Row: 1, Col: 2})
	assertTarget(t, s, "bob", maze.Position{Row: 1, Col: 2})

	apply(t, s, protocol.EventPlayerJoined, protocol.PlayerInfo{Identity: "alice", Row: 3, Col: 3})
	if len(s.Peers()) != 2 {
		t.Fatalf("self must never appear as a peer: %+v", s.Peers())
	}

	var kinds []NoticeKind
	for _, n := range notices {
		kinds = append(kinds, n.Kind)
	}
	want := []NoticeKind{NoticeJoined, NoticeLeft, NoticeJoined}
	if len(kinds) != len(want) {
		t.Fatalf("unexpected notices %+v", notices)
	}
	for n := range want {
		if kinds[n] != want[n] {
			t.Fatalf("unexpected notices %+v", notices)
		}
	}
	if notices[0].Identity != "carol" {
		t.Fatalf("implicit join should announce carol, got %+v", notices[0])
	}
}

func TestSnapshotOlderThanDepartureKeepsPeerGone(t *testing.T) {
	s := newTestSession(t)
	bob := protocol.PlayerInfo{Identity: "bob", Row: 1, Col: 1}

	apply(t, s, protocol.EventPlayerLeft, protocol.PlayerLeft{Identity: "bob", Version: 4})
	apply(t, s, protocol.EventUpdatePlayers, protocol.UpdatePlayers{Room: "lobby", Version: 3, Players: []protocol.PlayerInfo{bob}})
	if _, ok := s.Peer("bob"); ok {
		t.Fatalf("snapshot taken before the departure revived bob")
	}
	if s.Version() != 3 {
		t.Fatalf("snapshot should still be applied, version %d", s.Version())
	}

	apply(t, s, protocol.EventPlayerMoved, protocol.PlayerMoved{Identity: "bob", Row: 1, Col: 2})
	if _, ok := s.Peer("bob"); ok {
		t.Fatalf("bob should stay departed after a skipped snapshot")
	}

	apply(t, s, protocol.EventUpdatePlayers, protocol.UpdatePlayers{Room: "lobby", Version: 5, Players: []protocol.PlayerInfo{bob}})
	if _, ok := s.Peer("bob"); !ok {
		t.Fatalf("snapshot newer than the departure should bring bob back")
	}
}

func TestSnapshotReplacesPeers(t *testing.T) {
	s := newTestSession(t)
	apply(t, s, protocol.EventPlayerMoved, protocol.PlayerMoved{Identity: "bob", Row: 1, Col: 2})
	before, _ := s.Peer("bob")

	apply(t, s, protocol.EventUpdatePlayers, protocol.UpdatePlayers{Room: "lobby", Version: 5, Players: []protocol.PlayerInfo{
		{Identity: "alice", Row: 3, Col: 3},
		{Identity: "bob", Row: 1, Col: 3},
		{Identity: "dave", Row: 3, Col: 1},
	}})

	bob, _ := s.Peer("bob")
	if bob.Motion.X != before.Motion.X || bob.Motion.Y != before.Motion.Y {
		t.Fatalf("persisting peer lost its render position")
	}
	assertTarget(t, s, "bob", maze.Position{Row: 1, Col: 3})
	if dave, ok := s.Peer("dave"); !ok || dave.Motion.Moving {
		t.Fatalf("new peer should appear settled, got %+v", dave)
	}
	if s.Self().Pos != (maze.Position{Row: 1, Col: 1}) {
		t.Fatalf("snapshot must not move the local agent")
	}

	apply(t, s, protocol.EventUpdatePlayers, protocol.UpdatePlayers{Room: "lobby", Version: 4})
	if len(s.Peers()) != 2 || s.Version() != 5 {
		t.Fatalf("stale snapshot was applied: %+v", s.Peers())
	}

	apply(t, s, protocol.EventUpdatePlayers, protocol.UpdatePlayers{Room: "lobby", Version: 6})
	if len(s.Peers()) != 0 {
		t.Fatalf("empty snapshot should clear peers: %+v", s.Peers())
	}
}

func TestWinAnnouncementsAreIdempotent(t *testing.T) {
	s := newTestSession(t)
	apply(t, s, protocol.EventPlayerWon, protocol.Outcome{Winner: "bob"})
	apply(t, s, protocol.EventPlayerWon, protocol.Outcome{Winner: "carol"})
	apply(t, s, protocol.EventGameOver, protocol.Outcome{Winner: "carol"})

	if st := s.Race(); st.Status != race.Won || st.Winner != "bob" {
		t.Fatalf("unexpected race state %+v", st)
	}
	if s.Phase() != Idle {
		t.Fatalf("game_over should leave the session idle")
	}
	if _, ok := s.Tick(1, maze.East); ok {
		t.Fatalf("no moves after game_over")
	}
}

func TestTickCommitsOneStepAtATime(t *testing.T) {
	s := newTestSession(t)

	if _, ok := s.Tick(0.01, maze.South); ok {
		t.Fatalf("move into a wall must not be sent")
	}
	if _, ok := s.Tick(0.01, maze.NoDirection); ok {
		t.Fatalf("no intent, no move")
	}

	move, ok := s.Tick(0.01, maze.East)
	if !ok || move.Row != 1 || move.Col != 2 || move.Identity != "alice" || move.Room != "lobby" {
		t.Fatalf("unexpected move %+v", move)
	}
	if !s.Self().Motion.Moving {
		t.Fatalf("local agent should be animating")
	}
	if _, ok := s.Tick(0.01, maze.East); ok {
		t.Fatalf("no new move while animating")
	}

	s.Tick(1, maze.NoDirection)
	x, y := s.Center(maze.Position{Row: 1, Col: 2})
	if self := s.Self(); self.Motion.Moving || self.Motion.X != x || self.Motion.Y != y {
		t.Fatalf("local agent did not settle: %+v", self.Motion)
	}
}

func TestTickReachesGoalProvisionally(t *testing.T) {
	s := newTestSession(t)
	for _, d := range []maze.Direction{maze.East, maze.East, maze.South, maze.South} {
		if _, ok := s.Tick(1, d); !ok {
			t.Fatalf("step %v refused at %+v", d, s.Self().Pos)
		}
	}
	st := s.Race()
	if st.Winner != "alice" || !st.Provisional {
		t.Fatalf("expected provisional local win, got %+v", st)
	}
	if _, ok := s.Tick(1, maze.North); ok {
		t.Fatalf("no moves once the race is won")
	}

	apply(t, s, protocol.EventPlayerWon, protocol.Outcome{Winner: "bob"})
	if st := s.Race(); st.Winner != "bob" || st.Provisional {
		t.Fatalf("authority verdict should correct the local win, got %+v", st)
	}
}

func TestPeersAnimateTowardTargets(t *testing.T) {
	s := newTestSession(t)
	apply(t, s, protocol.EventPlayerMoved, protocol.PlayerMoved{Identity: "bob", Row: 1, Col: 2})

	s.Tick(0.1, maze.NoDirection)
	bob, _ := s.Peer("bob")
	if !bob.Motion.Moving || bob.Motion.Remaining() <= 0 {
		t.Fatalf("peer should be half way, got %+v", bob.Motion)
	}
	s.Tick(0.1, maze.NoDirection)
	bob, _ = s.Peer("bob")
	if bob.Motion.Moving {
		t.Fatalf("peer should have arrived, got %+v", bob.Motion)
	}
}

func TestMoveRejectedSnapsBack(t *testing.T) {
	var notices []Notice
	s := newTestSession(t, WithNotify(func(n Notice) { notices = append(notices, n) }))
	s.Tick(1, maze.East)

	apply(t, s, protocol.EventMoveRejected, protocol.MoveRejected{Row: 1, Col: 1, Reason: "invalid move"})
	self := s.Self()
	x, y := s.Center(maze.Position{Row: 1, Col: 1})
	if self.Pos != (maze.Position{Row: 1, Col: 1}) || self.Motion.Moving || self.Motion.X != x || self.Motion.Y != y {
		t.Fatalf("local agent not reconciled: %+v", self)
	}
	if len(notices) != 1 || notices[0].Kind != NoticeCorrected {
		t.Fatalf("unexpected notices %+v", notices)
	}
}

func TestApplyIgnoresUnknownEvents(t *testing.T) {
	s := newTestSession(t)
	apply(t, s, "confetti", map[string]int{"amount": 3})

	msg, err := protocol.NewMessage(protocol.EventPlayerMoved, map[string]any{"identity": 7})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if err := s.Apply(msg); !errors.Is(err, protocol.ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestFrameListsSelfFirst(t *testing.T) {
	s := newTestSession(t)
	apply(t, s, protocol.EventPlayerJoined, protocol.PlayerInfo{Identity: "aaron", Row: 3, Col: 1})

	frame := s.Frame()
	if len(frame) != 3 || !frame[0].Self || frame[0].Identity != "alice" {
		t.Fatalf("unexpected frame %+v", frame)
	}
	if frame[1].Identity != "aaron" || frame[2].Identity != "bob" || frame[1].Self {
		t.Fatalf("peers out of order: %+v", frame)
	}
}

func TestFollowPath(t *testing.T) {
	s := newTestSession(t)
	intent := FollowPath()
	for step := 0; step < 4; step++ {
		if _, ok := s.Tick(1, intent(s)); !ok {
			t.Fatalf("step %d refused at %+v", step, s.Self().Pos)
		}
	}
	if s.Self().Pos != s.Grid().Goal() {
		t.Fatalf("path following ended at %+v", s.Self().Pos)
	}
	if d := intent(s); d != maze.NoDirection {
		t.Fatalf("at the goal intent should be idle, got %v", d)
	}
}

func TestSteerKeepsLastDirection(t *testing.T) {
	ch := make(chan maze.Direction, 2)
	intent := Steer(ch)
	if d := intent(nil); d != maze.NoDirection {
		t.Fatalf("got %v before any input", d)
	}
	ch <- maze.North
	ch <- maze.East
	if d := intent(nil); d != maze.East {
		t.Fatalf("got %v, want the latest input", d)
	}
	if d := intent(nil); d != maze.East {
		t.Fatalf("direction should persist, got %v", d)
	}
}
