package persistence

import (
	"context"
	"time"
)

// MessageRecord is the durable form of a relayed message. Exactly one of
// Receiver and GroupId is set.
type MessageRecord struct {
	Id        string    `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver,omitempty"`
	GroupId   string    `json:"groupId,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type SaveMessageRequest struct {
	Sender   string
	Receiver string
	GroupId  string
	Content  string
}

// MessageStore records relayed messages and serves history queries, ordered
// by creation time ascending.
type MessageStore interface {
	Setup(ctx context.Context) error
	Save(ctx context.Context, request SaveMessageRequest) (MessageRecord, error)
	PrivateHistory(ctx context.Context, user1 string, user2 string) ([]MessageRecord, error)
	GroupHistory(ctx context.Context, groupId string) ([]MessageRecord, error)
}

type User struct {
	Id           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

type UserStore interface {
	Setup(ctx context.Context) error
	Create(ctx context.Context, username string, passwordHash string) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	List(ctx context.Context) ([]User, error)
}

type Group struct {
	Id      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// GroupStore owns the authoritative group-membership list. The relay's room
// registry is only a per-process subscription index layered on top of it.
type GroupStore interface {
	Create(ctx context.Context, name string, members []string) (Group, error)
	GroupsForUser(ctx context.Context, userId string) ([]Group, error)
	IsMember(ctx context.Context, groupId string, userId string) (bool, error)
}
