package i

import "github.com/beka-birhanu/vinom-race-server/protocol"

// ClientSocket is the connection layer the room manager talks through.
// Connections are addressed by an opaque connection ID.
type ClientSocket interface {
	// Send encodes and writes one event to a connection.
	Send(connID string, eventType string, payload any) error

	// Broadcast sends one event to every listed connection.
	Broadcast(connIDs []string, eventType string, payload any)

	// SetRequestHandler registers the callback for decoded client messages.
	SetRequestHandler(func(connID string, msg protocol.Message))

	// SetDisconnectHandler registers the callback for closed connections.
	SetDisconnectHandler(func(connID string))
}
