package relay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	logger, _ := zap.NewDevelopment()

	return NewService(logger)
}

func attach(s *Service, connectionId string) *Connection {
	conn := NewConnection(connectionId)
	s.Attach(conn)

	return conn
}

// drainFrames collects every frame currently buffered for the connection.
func drainFrames(conn *Connection) []Frame {
	var frames []Frame

	for {
		select {
		case frame, ok := <-conn.Send:
			if !ok {
				return frames
			}
			frames = append(frames, frame)
		default:
			return frames
		}
	}
}

func decodeEnvelope(t *testing.T, frame Frame) Envelope {
	t.Helper()

	require.NotNil(t, frame.Data)

	var envelope Envelope
	err := json.Unmarshal(*frame.Data, &envelope)
	require.NoError(t, err)

	return envelope
}

func TestService_SendPrivate(t *testing.T) {
	t.Run("delivers to receiver and echoes to sender", func(t *testing.T) {
		service := newTestService(t)
		c1 := attach(service, "conn-1")
		c2 := attach(service, "conn-2")
		service.Join(c1.Id, "user-1")
		service.Join(c2.Id, "user-2")

		service.SendPrivate("user-1", "user-2", "hi")

		receiverFrames := drainFrames(c2)
		require.Len(t, receiverFrames, 1)
		assert.Equal(t, EventGetMessage, receiverFrames[0].Event)

		envelope := decodeEnvelope(t, receiverFrames[0])
		assert.Equal(t, "user-1", envelope.SenderId)
		assert.Equal(t, "user-2", envelope.ReceiverId)
		assert.Equal(t, "hi", envelope.Message)
		assert.Empty(t, envelope.GroupId)
		assert.WithinDuration(t, time.Now(), envelope.CreatedAt, 5*time.Second)

		echoFrames := drainFrames(c1)
		require.Len(t, echoFrames, 1)
		assert.Equal(t, envelope, decodeEnvelope(t, echoFrames[0]))
	})

	t.Run("offline receiver gets nothing, echo still delivered", func(t *testing.T) {
		service := newTestService(t)
		c1 := attach(service, "conn-1")
		service.Join(c1.Id, "user-1")

		service.SendPrivate("user-1", "user-2", "hi")

		frames := drainFrames(c1)
		require.Len(t, frames, 1)
		assert.Equal(t, "user-2", decodeEnvelope(t, frames[0]).ReceiverId)
	})

	t.Run("self chat emits the envelope twice", func(t *testing.T) {
		service := newTestService(t)
		c1 := attach(service, "conn-1")
		service.Join(c1.Id, "user-1")

		service.SendPrivate("user-1", "user-1", "note to self")

		frames := drainFrames(c1)
		assert.Len(t, frames, 2)
	})

	t.Run("nobody present is a silent no-op", func(t *testing.T) {
		service := newTestService(t)
		c1 := attach(service, "conn-1")

		service.SendPrivate("user-1", "user-2", "hi")

		assert.Empty(t, drainFrames(c1))
	})

	t.Run("overwritten announcement routes to the new connection", func(t *testing.T) {
		service := newTestService(t)
		c1 := attach(service, "conn-1")
		c2 := attach(service, "conn-2")
		c3 := attach(service, "conn-3")
		service.Join(c1.Id, "user-1")
		service.Join(c2.Id, "user-2")
		service.Join(c3.Id, "user-2")

		service.SendPrivate("user-1", "user-2", "hi")

		assert.Empty(t, drainFrames(c2))
		assert.Len(t, drainFrames(c3), 1)
	})
}

func TestService_SendGroup(t *testing.T) {
	t.Run("fans out to every room member exactly once", func(t *testing.T) {
		service := newTestService(t)
		c1 := attach(service, "conn-1")
		c2 := attach(service, "conn-2")
		c3 := attach(service, "conn-3")
		c4 := attach(service, "conn-4")
		service.Join(c1.Id, "user-1")
		service.JoinGroup(c1.Id, "group-1")
		service.JoinGroup(c2.Id, "group-1")
		service.JoinGroup(c3.Id, "group-1")

		service.SendGroup("user-1", "group-1", "hello")

		for _, conn := range []*Connection{c1, c2, c3} {
			frames := drainFrames(conn)
			require.Len(t, frames, 1)
			assert.Equal(t, EventGetGroupMessage, frames[0].Event)

			envelope := decodeEnvelope(t, frames[0])
			assert.Equal(t, "user-1", envelope.SenderId)
			assert.Equal(t, "group-1", envelope.GroupId)
			assert.Equal(t, "hello", envelope.Message)
			assert.Empty(t, envelope.ReceiverId)
		}

		assert.Empty(t, drainFrames(c4))
	})

	t.Run("empty room is a silent no-op", func(t *testing.T) {
		service := newTestService(t)
		attach(service, "conn-1")

		service.SendGroup("user-1", "group-1", "hello")
	})
}

func TestService_Disconnect(t *testing.T) {
	t.Run("removes presence and room membership", func(t *testing.T) {
		service := newTestService(t)
		c1 := attach(service, "conn-1")
		c2 := attach(service, "conn-2")
		service.Join(c1.Id, "user-1")
		service.Join(c2.Id, "user-2")
		service.JoinGroup(c1.Id, "group-1")
		service.JoinGroup(c2.Id, "group-1")

		service.Disconnect(c2.Id)

		_, ok := <-c2.Send
		assert.False(t, ok, "send channel should be closed")

		service.SendPrivate("user-1", "user-2", "hi")
		frames := drainFrames(c1)
		require.Len(t, frames, 1, "only the echo should be delivered")

		service.SendGroup("user-1", "group-1", "hello")
		assert.Len(t, drainFrames(c1), 1)
	})

	t.Run("other users are unaffected", func(t *testing.T) {
		service := newTestService(t)
		c1 := attach(service, "conn-1")
		c2 := attach(service, "conn-2")
		service.Join(c1.Id, "user-1")
		service.Join(c2.Id, "user-2")

		service.Disconnect(c1.Id)
		service.SendPrivate("user-2", "user-2", "still here")

		assert.Len(t, drainFrames(c2), 2)
	})

	t.Run("disconnecting twice is safe", func(t *testing.T) {
		service := newTestService(t)
		c1 := attach(service, "conn-1")
		service.Join(c1.Id, "user-1")

		service.Disconnect(c1.Id)
		service.Disconnect(c1.Id)
	})
}

func TestService_StaleConnectionTeardown(t *testing.T) {
	service := newTestService(t)
	c1 := attach(service, "conn-1")
	service.Join(c1.Id, "user-1")

	// Fill the send buffer without draining, then overflow it. The relay
	// must drop the overflowing frame and tear the connection down.
	for i := 0; i < sendBufferSize+1; i++ {
		service.SendPrivate("user-2", "user-1", "flood")
	}

	frames := drainFrames(c1)
	assert.Len(t, frames, sendBufferSize)

	_, ok := <-c1.Send
	assert.False(t, ok, "send channel should be closed after overflow")
}
