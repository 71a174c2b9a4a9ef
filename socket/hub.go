// Package socket serves room traffic over websockets. Every connection gets
// an opaque ID and a codec chosen by the client with ?codec=json|msgpack.
package socket

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-race-server/protocol"
	"github.com/beka-birhanu/vinom-race-server/service/i"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	ErrUnknownConnection = errors.New("unknown connection")
	ErrHubStopped        = errors.New("hub is stopped")
)

const (
	writeWait                  = 5 * time.Second
	defaultHeartbeatExpiration = 6 * time.Second
	defaultBufferSize          = 1024
	maxFrameSize               = 64 << 10
)

type client struct {
	id      string
	conn    *websocket.Conn
	codec   protocol.Codec
	done    chan struct{}
	writeMu sync.Mutex
}

func (c *client) write(data []byte) error {
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

// Hub is the websocket ClientSocket.
type Hub struct {
	upgrader            websocket.Upgrader
	clients             map[string]*client
	heartbeatExpiration time.Duration
	requestHandler      func(connID string, msg protocol.Message)
	disconnectHandler   func(connID string)
	logger              i.Logger
	stopped             bool
	sync.RWMutex
}

var _ i.ClientSocket = (*Hub)(nil)

// Config configures a Hub. Zero values select the defaults.
type Config struct {
	HeartbeatExpiration time.Duration
	BufferSize          int
	Logger              i.Logger
}

// NewHub creates a hub. Register handlers before serving connections.
func NewHub(c Config) (*Hub, error) {
	if c.Logger == nil {
		return nil, errors.New("hub needs a logger")
	}
	if c.HeartbeatExpiration <= 0 {
		c.HeartbeatExpiration = defaultHeartbeatExpiration
	}
	if c.BufferSize <= 0 {
		c.BufferSize = defaultBufferSize
	}

	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  c.BufferSize,
			WriteBufferSize: c.BufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients:             make(map[string]*client),
		heartbeatExpiration: c.HeartbeatExpiration,
		logger:              c.Logger,
	}, nil
}

// SetRequestHandler registers the callback for decoded client messages.
func (h *Hub) SetRequestHandler(f func(connID string, msg protocol.Message)) {
	h.Lock()
	defer h.Unlock()
	h.requestHandler = f
}

// SetDisconnectHandler registers the callback for closed connections.
func (h *Hub) SetDisconnectHandler(f func(connID string)) {
	h.Lock()
	defer h.Unlock()
	h.disconnectHandler = f
}

// ServeHTTP upgrades the request and runs the connection's read loop.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	codec, err := protocol.CodecByName(r.URL.Query().Get("codec"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warning(fmt.Sprintf("upgrade failed for %s: %s", r.RemoteAddr, err))
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, codec: codec, done: make(chan struct{})}
	if err := h.register(c); err != nil {
		message := websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error())
		_ = conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	h.logger.Info(fmt.Sprintf("connection %s opened from %s (%s)", c.id, r.RemoteAddr, codec.Name()))

	go h.heartbeat(c)
	h.readLoop(c)
}

// Send encodes and writes one event to a connection. A failed write closes
// the connection; its read loop then reports the disconnect.
func (h *Hub) Send(connID string, eventType string, payload any) error {
	h.RLock()
	c, ok := h.clients[connID]
	h.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, connID)
	}

	data, err := c.codec.Encode(eventType, payload)
	if err != nil {
		return err
	}
	if err := c.write(data); err != nil {
		_ = c.conn.Close()
		return fmt.Errorf("writing %s to %s: %w", eventType, connID, err)
	}
	return nil
}

// Broadcast sends one event to every listed connection.
func (h *Hub) Broadcast(connIDs []string, eventType string, payload any) {
	for _, connID := range connIDs {
		if err := h.Send(connID, eventType, payload); err != nil {
			h.logger.Warning(err.Error())
		}
	}
}

// Connections returns the number of open connections.
func (h *Hub) Connections() int {
	h.RLock()
	defer h.RUnlock()
	return len(h.clients)
}

// Stop closes every connection and refuses new ones.
func (h *Hub) Stop() {
	h.Lock()
	h.stopped = true
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.Unlock()

	message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, c := range clients {
		_ = c.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait))
		_ = c.conn.Close()
	}
}

func (h *Hub) register(c *client) error {
	h.Lock()
	defer h.Unlock()
	if h.stopped {
		return ErrHubStopped
	}
	h.clients[c.id] = c
	return nil
}

func (h *Hub) readLoop(c *client) {
	defer h.drop(c)

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(h.heartbeatExpiration))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.heartbeatExpiration))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warning(fmt.Sprintf("reading from %s: %s", c.id, err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(h.heartbeatExpiration))

		msg, err := c.codec.Decode(data)
		if err != nil {
			h.logger.Warning(fmt.Sprintf("discarding malformed frame from %s: %s", c.id, err))
			if err := h.Send(c.id, protocol.EventError, protocol.Error{Message: err.Error()}); err != nil {
				return
			}
			continue
		}

		h.RLock()
		handler := h.requestHandler
		h.RUnlock()
		if handler != nil {
			handler(c.id, msg)
		}
	}
}

// heartbeat pings the peer; a peer that stops answering hits the read deadline.
func (h *Hub) heartbeat(c *client) {
	ticker := time.NewTicker(h.heartbeatExpiration / 2)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	h.Lock()
	if h.clients[c.id] == c {
		delete(h.clients, c.id)
	}
	handler := h.disconnectHandler
	h.Unlock()

	close(c.done)
	_ = c.conn.Close()
	h.logger.Info(fmt.Sprintf("connection %s closed", c.id))
	if handler != nil {
		handler(c.id)
	}
}
