package server

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/goevery/chatrelay/internal/handler"
	"github.com/goevery/chatrelay/internal/ierr"
	"github.com/goevery/chatrelay/internal/relay"
	"go.uber.org/zap"
)

// Router dispatches inbound frames to their event handlers. The returned
// frame, when non-nil, is the reply to push back to the originating
// connection; notifications (frames without an id) only get a reply on error.
type Router struct {
	logger *zap.Logger

	heartbeatHandler   *handler.HeartbeatHandler
	joinHandler        *handler.JoinHandler
	joinGroupHandler   *handler.JoinGroupHandler
	sendPrivateHandler *handler.SendPrivateHandler
	sendGroupHandler   *handler.SendGroupHandler
}

func NewRouter(
	logger *zap.Logger,
	heartbeatHandler *handler.HeartbeatHandler,
	joinHandler *handler.JoinHandler,
	joinGroupHandler *handler.JoinGroupHandler,
	sendPrivateHandler *handler.SendPrivateHandler,
	sendGroupHandler *handler.SendGroupHandler,
) *Router {
	return &Router{
		logger,
		heartbeatHandler,
		joinHandler,
		joinGroupHandler,
		sendPrivateHandler,
		sendGroupHandler,
	}
}

func (r *Router) RouteFrame(ctx context.Context, frame relay.Frame) *relay.Frame {
	response, err := r.handle(ctx, frame)
	if err != nil {
		r.logger.Debug("event handler failed",
			zap.String("event", frame.Event),
			zap.Error(err))

		reply := frame.ReplyWithError(r.mapError(err))

		return &reply
	}

	if !frame.ReplyExpected() {
		return nil
	}

	if response == nil {
		response = handler.Ack{Success: true}
	}

	rawJson, err := json.Marshal(response)
	if err != nil {
		reply := frame.ReplyWithError(r.mapError(err))

		return &reply
	}

	data := json.RawMessage(rawJson)
	reply := frame.Reply(&data)

	return &reply
}

func (r *Router) handle(ctx context.Context, frame relay.Frame) (any, error) {
	switch frame.Event {
	case "heartbeat":
		return r.heartbeatHandler.Handle(), nil
	case "join":
		var userId string
		if err := decodeData(frame.Data, &userId); err != nil {
			return nil, err
		}

		return nil, r.joinHandler.Handle(ctx, handler.JoinRequest{UserId: userId})
	case "joinGroup":
		var groupId string
		if err := decodeData(frame.Data, &groupId); err != nil {
			return nil, err
		}

		return nil, r.joinGroupHandler.Handle(ctx, handler.JoinGroupRequest{GroupId: groupId})
	case "sendMessage":
		var req handler.SendPrivateRequest
		if err := decodeData(frame.Data, &req); err != nil {
			return nil, err
		}

		return nil, r.sendPrivateHandler.Handle(ctx, req)
	case "sendGroupMessage":
		var req handler.SendGroupRequest
		if err := decodeData(frame.Data, &req); err != nil {
			return nil, err
		}

		return nil, r.sendGroupHandler.Handle(ctx, req)
	default:
		return nil, ierr.New(ierr.ErrorCodeNotFound, errors.New("unknown event: "+frame.Event))
	}
}

func (r *Router) mapError(err error) ierr.Error {
	var codedErr ierr.Error
	if errors.As(err, &codedErr) {
		return codedErr
	}

	r.logger.Error("error in event handler", zap.Error(err))

	return ierr.New(ierr.ErrorCodeInternal, errors.New("internal error"))
}

func decodeData(data *json.RawMessage, v any) error {
	if data == nil {
		return ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("missing data"))
	}

	if err := json.Unmarshal(*data, v); err != nil {
		return ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid data: "+err.Error()))
	}

	return nil
}
