package server

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/goevery/chatrelay/internal/ierr"
	"github.com/goevery/chatrelay/internal/persistence"
)

type fakeMessageStore struct {
	mu      sync.Mutex
	saved   []persistence.SaveMessageRequest
	history []persistence.MessageRecord

	savedCh chan persistence.SaveMessageRequest
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{
		savedCh: make(chan persistence.SaveMessageRequest, 16),
	}
}

func (s *fakeMessageStore) Setup(ctx context.Context) error {
	return nil
}

func (s *fakeMessageStore) Save(ctx context.Context, request persistence.SaveMessageRequest) (persistence.MessageRecord, error) {
	s.mu.Lock()
	s.saved = append(s.saved, request)
	count := len(s.saved)
	s.mu.Unlock()

	s.savedCh <- request

	return persistence.MessageRecord{
		Id:        fmt.Sprintf("msg-%d", count),
		Sender:    request.Sender,
		Receiver:  request.Receiver,
		GroupId:   request.GroupId,
		Content:   request.Content,
		CreatedAt: time.Now(),
	}, nil
}

func (s *fakeMessageStore) PrivateHistory(ctx context.Context, user1 string, user2 string) ([]persistence.MessageRecord, error) {
	return s.history, nil
}

func (s *fakeMessageStore) GroupHistory(ctx context.Context, groupId string) ([]persistence.MessageRecord, error) {
	return s.history, nil
}

func (s *fakeMessageStore) waitForSave(timeout time.Duration) (persistence.SaveMessageRequest, bool) {
	select {
	case request := <-s.savedCh:
		return request, true
	case <-time.After(timeout):
		return persistence.SaveMessageRequest{}, false
	}
}

type fakeUserStore struct {
	mu         sync.Mutex
	byUsername map[string]persistence.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byUsername: make(map[string]persistence.User),
	}
}

func (s *fakeUserStore) Setup(ctx context.Context) error {
	return nil
}

func (s *fakeUserStore) Create(ctx context.Context, username string, passwordHash string) (persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[username]; ok {
		return persistence.User{}, ierr.New(ierr.ErrorCodeAlreadyExists, errors.New("username already taken"))
	}

	user := persistence.User{
		Id:           fmt.Sprintf("user-%d", len(s.byUsername)+1),
		Username:     username,
		PasswordHash: passwordHash,
	}
	s.byUsername[username] = user

	return user, nil
}

func (s *fakeUserStore) FindByUsername(ctx context.Context, username string) (persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byUsername[username]
	if !ok {
		return persistence.User{}, ierr.New(ierr.ErrorCodeNotFound, errors.New("user not found"))
	}

	return user, nil
}

func (s *fakeUserStore) List(ctx context.Context) ([]persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]persistence.User, 0, len(s.byUsername))
	for _, user := range s.byUsername {
		users = append(users, user)
	}

	return users, nil
}

type fakeGroupStore struct {
	mu     sync.Mutex
	groups []persistence.Group
}

func (s *fakeGroupStore) Create(ctx context.Context, name string, members []string) (persistence.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group := persistence.Group{
		Id:      fmt.Sprintf("group-%d", len(s.groups)+1),
		Name:    name,
		Members: members,
	}
	s.groups = append(s.groups, group)

	return group, nil
}

func (s *fakeGroupStore) GroupsForUser(ctx context.Context, userId string) ([]persistence.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var groups []persistence.Group
	for _, group := range s.groups {
		if slices.Contains(group.Members, userId) {
			groups = append(groups, group)
		}
	}

	return groups, nil
}

func (s *fakeGroupStore) IsMember(ctx context.Context, groupId string, userId string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, group := range s.groups {
		if group.Id == groupId {
			return slices.Contains(group.Members, userId), nil
		}
	}

	return false, nil
}
