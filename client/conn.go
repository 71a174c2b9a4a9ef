package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-race-server/protocol"
	"github.com/gorilla/websocket"
)

var ErrConnClosed = errors.New("connection closed")

const (
	writeWait       = 5 * time.Second
	inboxBufferSize = 64
)

// Transport carries events between a Driver and the authority.
type Transport interface {
	Send(eventType string, payload any) error
	// Inbox yields decoded events. It is closed when the transport fails;
	// Err then reports why.
	Inbox() <-chan protocol.Message
	Err() error
}

// Conn is a websocket Transport. A read pump decodes frames onto the inbox;
// it never touches session state.
type Conn struct {
	conn    *websocket.Conn
	codec   protocol.Codec
	inbox   chan protocol.Message
	err     error
	errMu   sync.Mutex
	writeMu sync.Mutex
	closed  chan struct{}
	once    sync.Once
}

var _ Transport = (*Conn)(nil)

// Dial connects to the room server at rawURL using codec.
func Dial(ctx context.Context, rawURL string, codec protocol.Codec) (*Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}
	q := u.Query()
	q.Set("codec", codec.Name())
	u.RawQuery = q.Encode()

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", u.Redacted(), err)
	}

	c := &Conn{
		conn:   ws,
		codec:  codec,
		inbox:  make(chan protocol.Message, inboxBufferSize),
		closed: make(chan struct{}),
	}
	go c.readPump()
	return c, nil
}

func (c *Conn) readPump() {
	defer close(c.inbox)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(err)
			return
		}
		msg, err := c.codec.Decode(data)
		if err != nil {
			continue
		}
		select {
		case c.inbox <- msg:
		case <-c.closed:
			c.fail(ErrConnClosed)
			return
		}
	}
}

// Send encodes and writes one event.
func (c *Conn) Send(eventType string, payload any) error {
	data, err := c.codec.Encode(eventType, payload)
	if err != nil {
		return err
	}
	messageType := websocket.TextMessage
	if c.codec.Binary() {
		messageType = websocket.BinaryMessage
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

func (c *Conn) Inbox() <-chan protocol.Message { return c.inbox }

// Err returns the error that stopped the read pump, if any.
func (c *Conn) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Close sends a close frame and releases the connection.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.closed)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

func (c *Conn) fail(err error) {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.err != nil {
		return
	}
	select {
	case <-c.closed:
		c.err = ErrConnClosed
	default:
		c.err = err
	}
}
