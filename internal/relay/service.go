package relay

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Events emitted by the relay toward clients.
const (
	EventGetMessage      = "getMessage"
	EventGetGroupMessage = "getGroupMessage"
)

// Service performs presence-aware routing and room fan-out. It owns the
// presence and room registries plus the table of live connections; nothing
// else mutates them. Delivery is fire-and-forget: an emit hands the frame to
// the target's send channel if that connection is still open and otherwise
// drops it without surfacing an error to the sender.
type Service struct {
	logger *zap.Logger

	presence *PresenceRegistry
	rooms    *RoomRegistry

	mu          sync.RWMutex
	connections map[string]*Connection
}

func NewService(logger *zap.Logger) *Service {
	return &Service{
		logger:      logger,
		presence:    NewPresenceRegistry(),
		rooms:       NewRoomRegistry(),
		connections: make(map[string]*Connection),
	}
}

// Attach makes a freshly-opened connection addressable. It must be called
// before any event for that connection is dispatched.
func (s *Service) Attach(conn *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connections[conn.Id] = conn
}

// Join announces userId on the given connection. A repeated announcement for
// the same user overwrites the previous one; the orphaned connection is
// cleaned up only by its own disconnect.
func (s *Service) Join(connectionId string, userId string) {
	s.presence.Register(userId, connectionId)

	s.mu.RLock()
	conn, ok := s.connections[connectionId]
	s.mu.RUnlock()

	if ok {
		conn.SetUserId(userId)
	}

	s.logger.Debug("user announced",
		zap.String("userId", userId),
		zap.String("connectionId", connectionId))
}

// JoinGroup subscribes the connection to a group channel. Membership
// authorization, when wanted, happens upstream; the registry is mechanical.
func (s *Service) JoinGroup(connectionId string, groupId string) {
	s.rooms.Join(groupId, connectionId)

	s.logger.Debug("connection joined group",
		zap.String("groupId", groupId),
		zap.String("connectionId", connectionId))
}

// SendPrivate routes a one-to-one message. The envelope goes to the
// receiver's connection if the receiver is present, and independently to the
// sender's connection as a delivery echo. Both lookups missing is a silent
// no-op; when sender and receiver resolve to the same connection the envelope
// is emitted twice, which callers de-duplicate if they care to.
func (s *Service) SendPrivate(senderId string, receiverId string, message string) Envelope {
	envelope := Envelope{
		SenderId:   senderId,
		ReceiverId: receiverId,
		Message:    message,
		CreatedAt:  time.Now(),
	}

	var targets []string
	if connectionId, ok := s.presence.Lookup(receiverId); ok {
		targets = append(targets, connectionId)
	}
	if connectionId, ok := s.presence.Lookup(senderId); ok {
		targets = append(targets, connectionId)
	}

	s.emit(targets, NewDelivery(EventGetMessage, envelope))

	return envelope
}

// SendGroup fans a message out to every connection subscribed to the group,
// the sender's own connection included if it joined the room.
func (s *Service) SendGroup(senderId string, groupId string, message string) Envelope {
	envelope := Envelope{
		SenderId:  senderId,
		GroupId:   groupId,
		Message:   message,
		CreatedAt: time.Now(),
	}

	s.emit(s.rooms.MembersOf(groupId), NewDelivery(EventGetGroupMessage, envelope))

	return envelope
}

// Emit hands a single frame to one connection, dropping it if the connection
// is gone. Replies from the event router go through here so every send to a
// connection's channel happens under the table lock.
func (s *Service) Emit(connectionId string, frame Frame) {
	s.emit([]string{connectionId}, frame)
}

// Disconnect removes every trace of the connection: its presence entry, its
// room subscriptions and its table entry. Closing the send channel is what
// stops the transport's write loop.
func (s *Service) Disconnect(connectionId string) {
	s.presence.RemoveByConnection(connectionId)
	s.rooms.RemoveByConnection(connectionId)

	s.mu.Lock()
	conn, ok := s.connections[connectionId]
	if ok {
		delete(s.connections, connectionId)
		close(conn.Send)
	}
	s.mu.Unlock()

	if ok {
		s.logger.Debug("connection removed",
			zap.String("connectionId", connectionId))
	}
}

func (s *Service) emit(connectionIds []string, frame Frame) {
	s.mu.RLock()

	var staleConnectionIds []string

	for _, connectionId := range connectionIds {
		conn, ok := s.connections[connectionId]
		if !ok {
			continue
		}

		select {
		case conn.Send <- frame:
		default:
			s.logger.Warn("connection send channel is full, closing connection",
				zap.String("connectionId", conn.Id))

			staleConnectionIds = append(staleConnectionIds, conn.Id)
		}
	}

	s.mu.RUnlock()

	for _, connectionId := range staleConnectionIds {
		s.Disconnect(connectionId)
	}
}
