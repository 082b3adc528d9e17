package server

import (
	"context"
	"net/http"

	"github.com/goevery/chatrelay/internal/relay"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const maxFrameSize = 4096

type WebSocketServer struct {
	logger   *zap.Logger
	upgrader *websocket.Upgrader
	relay    *relay.Service
	router   *Router
}

func NewWebSocketServer(
	logger *zap.Logger,
	upgrader *websocket.Upgrader,
	relayService *relay.Service,
	router *Router,
) *WebSocketServer {
	return &WebSocketServer{
		logger,
		upgrader,
		relayService,
		router,
	}
}

func (s *WebSocketServer) Register(router *mux.Router) {
	router.HandleFunc("/socket", s.handle)
}

func (s *WebSocketServer) handle(w http.ResponseWriter, r *http.Request) {
	socket, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	connection := relay.NewConnection(gonanoid.Must())
	s.relay.Attach(connection)

	s.logger.Info("websocket connection established",
		zap.String("connectionId", connection.Id))

	go s.writeLoop(socket, connection)

	ctx := relay.WithConnection(r.Context(), connection)
	s.readLoop(ctx, socket, connection)

	s.relay.Disconnect(connection.Id)

	s.logger.Info("websocket connection closed",
		zap.String("connectionId", connection.Id))
}

// readLoop processes frames from one connection sequentially, so events from
// the same connection are applied in the order they were received. Replies go
// back through the relay rather than the socket directly; the write loop is
// the only goroutine touching the socket for writes.
func (s *WebSocketServer) readLoop(ctx context.Context, socket *websocket.Conn, connection *relay.Connection) {
	socket.SetReadLimit(maxFrameSize)

	for {
		var frame relay.Frame
		err := socket.ReadJSON(&frame)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read failed",
					zap.String("connectionId", connection.Id),
					zap.Error(err))
			}

			return
		}

		response := s.router.RouteFrame(ctx, frame)
		if response != nil {
			s.relay.Emit(connection.Id, *response)
		}
	}
}

// writeLoop drains the connection's send channel onto the socket. It ends
// when the relay closes the channel on disconnect, or early on a write
// failure; closing the socket then unblocks the read loop.
func (s *WebSocketServer) writeLoop(socket *websocket.Conn, connection *relay.Connection) {
	for frame := range connection.Send {
		err := socket.WriteJSON(frame)
		if err != nil {
			break
		}
	}

	socket.Close()
}
