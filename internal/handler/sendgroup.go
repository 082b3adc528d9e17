package handler

import (
	"context"
	"errors"

	"github.com/goevery/chatrelay/internal/ierr"
	"github.com/goevery/chatrelay/internal/relay"
)

type SendGroupRequest struct {
	SenderId string `json:"senderId"`
	GroupId  string `json:"groupId"`
	Message  string `json:"message"`
}

type SendGroupHandler struct {
	identifierValidator *IdentifierValidator
	relay               *relay.Service
	recorder            *MessageRecorder
}

func NewSendGroupHandler(
	identifierValidator *IdentifierValidator,
	relay *relay.Service,
	recorder *MessageRecorder,
) *SendGroupHandler {
	return &SendGroupHandler{
		identifierValidator,
		relay,
		recorder,
	}
}

// Handle fans a message out to the group's current subscribers, the sender
// included if its connection joined the room, and records it best-effort.
func (h *SendGroupHandler) Handle(ctx context.Context, req SendGroupRequest) error {
	err := h.identifierValidator.Validate(req.SenderId)
	if err != nil {
		return err
	}

	err = h.identifierValidator.Validate(req.GroupId)
	if err != nil {
		return err
	}

	if req.Message == "" {
		return ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("message cannot be empty"))
	}

	envelope := h.relay.SendGroup(req.SenderId, req.GroupId, req.Message)

	h.recorder.Record(envelope)

	return nil
}
