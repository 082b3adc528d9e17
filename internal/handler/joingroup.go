package handler

import (
	"context"
	"errors"

	"github.com/goevery/chatrelay/internal/ierr"
	"github.com/goevery/chatrelay/internal/persistence"
	"github.com/goevery/chatrelay/internal/relay"
)

type JoinGroupRequest struct {
	GroupId string
}

type JoinGroupHandler struct {
	identifierValidator *IdentifierValidator
	relay               *relay.Service
	groups              persistence.GroupStore
	membershipCheck     bool
}

func NewJoinGroupHandler(
	identifierValidator *IdentifierValidator,
	relay *relay.Service,
	groups persistence.GroupStore,
	membershipCheck bool,
) *JoinGroupHandler {
	return &JoinGroupHandler{
		identifierValidator,
		relay,
		groups,
		membershipCheck,
	}
}

// Handle subscribes the connection to a group channel. With membershipCheck
// disabled the relay trusts the caller entirely; enabled, the authoritative
// member list is consulted first and non-members are rejected.
func (h *JoinGroupHandler) Handle(ctx context.Context, req JoinGroupRequest) error {
	err := h.identifierValidator.Validate(req.GroupId)
	if err != nil {
		return err
	}

	connection, ok := relay.ConnectionFromContext(ctx)
	if !ok {
		return errors.New("connection not found in context")
	}

	if h.membershipCheck {
		userId := connection.UserId()
		if userId == "" {
			return ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("announce a user before joining a group"))
		}

		member, err := h.groups.IsMember(ctx, req.GroupId, userId)
		if err != nil {
			return err
		}
		if !member {
			return ierr.New(ierr.ErrorCodePermissionDenied, errors.New("user is not a member of this group"))
		}
	}

	h.relay.JoinGroup(connection.Id, req.GroupId)

	return nil
}
