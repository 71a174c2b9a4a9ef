package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beka-birhanu/vinom-race-server/maze"
	"github.com/beka-birhanu/vinom-race-server/protocol"
	"github.com/beka-birhanu/vinom-race-server/race"
	"github.com/beka-birhanu/vinom-race-server/service/i"
)

// Driver errors.
var (
	ErrJoinRefused  = errors.New("join refused")
	ErrTransport    = errors.New("transport failure")
	ErrMissingField = errors.New("driver needs a transport, room and identity")
)

const (
	defaultTickInterval    = 16 * time.Millisecond
	defaultRefreshInterval = 5 * time.Second
)

// IntentFunc returns the direction the local agent wants to take next.
type IntentFunc func(s *Session) maze.Direction

// DriverConfig configures a Driver. Zero durations select the defaults.
type DriverConfig struct {
	Transport       Transport
	Room            string
	Identity        string
	AvatarRef       string
	TickInterval    time.Duration
	RefreshInterval time.Duration
	Intent          IntentFunc
	Notify          func(Notice)
	Logger          i.Logger
	SessionOptions  []Option
}

// Driver is the single goroutine that owns a Session: it applies inbound
// events and runs the animation tick.
type Driver struct {
	cfg     DriverConfig
	session *Session
}

func NewDriver(c DriverConfig) (*Driver, error) {
	if c.Transport == nil || c.Room == "" || c.Identity == "" {
		return nil, ErrMissingField
	}
	if c.TickInterval <= 0 {
		c.TickInterval = defaultTickInterval
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = defaultRefreshInterval
	}
	if c.Intent == nil {
		c.Intent = func(*Session) maze.Direction { return maze.NoDirection }
	}
	return &Driver{cfg: c}, nil
}

// Session returns the session once the join was acknowledged.
func (d *Driver) Session() *Session { return d.session }

// Run joins the room and plays until game_over, ctx cancellation or a
// transport failure. It returns the final race state.
func (d *Driver) Run(ctx context.Context) (race.State, error) {
	join := protocol.JoinRoom{Room: d.cfg.Room, Identity: d.cfg.Identity, AvatarRef: d.cfg.AvatarRef}
	if err := d.cfg.Transport.Send(protocol.EventJoinRoom, join); err != nil {
		return race.State{}, d.transportFailure(err)
	}

	s, err := d.awaitAck(ctx)
	if err != nil {
		return race.State{}, err
	}
	d.session = s
	d.info(fmt.Sprintf("joined room %s as %s (seed %d, %dx%d)", s.Room(), d.cfg.Identity, s.Seed(), s.Grid().Rows(), s.Grid().Cols()))

	ticker := time.NewTicker(d.cfg.TickInterval)
	defer ticker.Stop()
	refresh := time.NewTicker(d.cfg.RefreshInterval)
	defer refresh.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			_ = d.cfg.Transport.Send(protocol.EventLeaveRoom, protocol.LeaveRoom{Room: d.cfg.Room})
			return s.Race(), ctx.Err()
		case msg, ok := <-d.cfg.Transport.Inbox():
			if !ok {
				return s.Race(), d.transportFailure(d.cfg.Transport.Err())
			}
			if err := s.Apply(msg); err != nil {
				d.warn(fmt.Sprintf("dropping %s: %s", msg.Type, err))
			}
			if s.Phase() == Idle {
				return s.Race(), nil
			}
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if move, ok := s.Tick(dt, d.cfg.Intent(s)); ok {
				if err := d.cfg.Transport.Send(protocol.EventMove, move); err != nil {
					return s.Race(), d.transportFailure(err)
				}
			}
		case <-refresh.C:
			if err := d.cfg.Transport.Send(protocol.EventRequestPlayers, protocol.RequestPlayers{Room: d.cfg.Room}); err != nil {
				return s.Race(), d.transportFailure(err)
			}
		}
	}
}

func (d *Driver) awaitAck(ctx context.Context) (*Session, error) {
	opts := append([]Option{WithNotify(d.cfg.Notify)}, d.cfg.SessionOptions...)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case msg, ok := <-d.cfg.Transport.Inbox():
			if !ok {
				return nil, d.transportFailure(d.cfg.Transport.Err())
			}
			switch msg.Type {
			case protocol.EventJoinGameAck:
				var ack protocol.JoinAck
				if err := msg.Decode(&ack); err != nil {
					return nil, err
				}
				return NewSession(d.cfg.Identity, ack, opts...)
			case protocol.EventError:
				var e protocol.Error
				_ = msg.Decode(&e)
				return nil, fmt.Errorf("%w: %s", ErrJoinRefused, e.Message)
			}
		}
	}
}

func (d *Driver) transportFailure(err error) error {
	if err == nil {
		err = ErrConnClosed
	}
	if d.cfg.Notify != nil {
		d.cfg.Notify(Notice{Kind: NoticeTransport, Message: err.Error()})
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

func (d *Driver) info(msg string) {
	if d.cfg.Logger != nil {
		d.cfg.Logger.Info(msg)
	}
}

func (d *Driver) warn(msg string) {
	if d.cfg.Logger != nil {
		d.cfg.Logger.Warning(msg)
	}
}
