package handler

import (
	"context"
	"time"

	"github.com/goevery/chatrelay/internal/persistence"
	"github.com/goevery/chatrelay/internal/relay"
	"go.uber.org/zap"
)

const recordTimeout = 5 * time.Second

// MessageRecorder forwards relayed envelopes to the durable store. The write
// runs on its own goroutine with a detached context so a slow or failing
// store never blocks real-time delivery; a failed write is logged and
// dropped, leaving the accepted gap between delivery and history.
type MessageRecorder struct {
	logger   *zap.Logger
	messages persistence.MessageStore
}

func NewMessageRecorder(
	logger *zap.Logger,
	messages persistence.MessageStore,
) *MessageRecorder {
	return &MessageRecorder{
		logger,
		messages,
	}
}

func (r *MessageRecorder) Record(envelope relay.Envelope) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		_, err := r.messages.Save(ctx, persistence.SaveMessageRequest{
			Sender:   envelope.SenderId,
			Receiver: envelope.ReceiverId,
			GroupId:  envelope.GroupId,
			Content:  envelope.Message,
		})
		if err != nil {
			r.logger.Error("failed to persist relayed message",
				zap.String("senderId", envelope.SenderId),
				zap.Error(err))
		}
	}()
}
