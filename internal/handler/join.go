package handler

import (
	"context"
	"errors"

	"github.com/goevery/chatrelay/internal/relay"
)

// Ack is the generic reply for events that carry no payload back.
type Ack struct {
	Success bool `json:"success"`
}

type JoinRequest struct {
	UserId string
}

type JoinHandler struct {
	identifierValidator *IdentifierValidator
	relay               *relay.Service
}

func NewJoinHandler(
	identifierValidator *IdentifierValidator,
	relay *relay.Service,
) *JoinHandler {
	return &JoinHandler{
		identifierValidator,
		relay,
	}
}

// Handle announces the caller-supplied user identity on this connection.
// Announcing again, for the same or a different user, just overwrites.
func (h *JoinHandler) Handle(ctx context.Context, req JoinRequest) error {
	err := h.identifierValidator.Validate(req.UserId)
	if err != nil {
		return err
	}

	connection, ok := relay.ConnectionFromContext(ctx)
	if !ok {
		return errors.New("connection not found in context")
	}

	h.relay.Join(connection.Id, req.UserId)

	return nil
}
