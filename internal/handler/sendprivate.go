package handler

import (
	"context"
	"errors"

	"github.com/goevery/chatrelay/internal/ierr"
	"github.com/goevery/chatrelay/internal/relay"
)

type SendPrivateRequest struct {
	SenderId   string `json:"senderId"`
	ReceiverId string `json:"receiverId"`
	Message    string `json:"message"`
}

type SendPrivateHandler struct {
	identifierValidator *IdentifierValidator
	relay               *relay.Service
	recorder            *MessageRecorder
}

func NewSendPrivateHandler(
	identifierValidator *IdentifierValidator,
	relay *relay.Service,
	recorder *MessageRecorder,
) *SendPrivateHandler {
	return &SendPrivateHandler{
		identifierValidator,
		relay,
		recorder,
	}
}

// Handle relays a one-to-one message and records it best-effort. An offline
// receiver is not an error; the envelope simply reaches whoever is present.
func (h *SendPrivateHandler) Handle(ctx context.Context, req SendPrivateRequest) error {
	err := h.identifierValidator.Validate(req.SenderId)
	if err != nil {
		return err
	}

	err = h.identifierValidator.Validate(req.ReceiverId)
	if err != nil {
		return err
	}

	if req.Message == "" {
		return ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("message cannot be empty"))
	}

	envelope := h.relay.SendPrivate(req.SenderId, req.ReceiverId, req.Message)

	h.recorder.Record(envelope)

	return nil
}
