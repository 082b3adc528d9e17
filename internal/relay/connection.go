package relay

import (
	"context"
	"sync"
)

const sendBufferSize = 64

// Connection is the relay-side handle for one live client. The transport
// layer owns the underlying socket; the relay only ever hands frames to the
// Send channel and never writes to the socket directly.
type Connection struct {
	Id   string
	Send chan Frame

	mu     sync.RWMutex
	userId string
}

func NewConnection(id string) *Connection {
	return &Connection{
		Id:   id,
		Send: make(chan Frame, sendBufferSize),
	}
}

// SetUserId records the identity announced on this connection. The relay
// trusts the caller-supplied identifier; authenticity is the identity
// collaborator's concern.
func (c *Connection) SetUserId(userId string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.userId = userId
}

// UserId returns the announced identity, or "" before any announcement.
func (c *Connection) UserId() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.userId
}

type contextKey string

const connectionKey contextKey = "connection"

func WithConnection(ctx context.Context, conn *Connection) context.Context {
	return context.WithValue(ctx, connectionKey, conn)
}

func ConnectionFromContext(ctx context.Context) (*Connection, bool) {
	conn, ok := ctx.Value(connectionKey).(*Connection)

	return conn, ok
}
