package handler

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/goevery/chatrelay/internal/persistence"
)

type fakeMessageStore struct {
	mu    sync.Mutex
	saved []persistence.SaveMessageRequest

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
	s.mu.Unlock()

	s.savedCh <- request

	return persistence.MessageRecord{
		Id:        "msg-1",
		Sender:    request.Sender,
		Receiver:  request.Receiver,
		GroupId:   request.GroupId,
		Content:   request.Content,
		CreatedAt: time.Now(),
	}, nil
}

func (s *fakeMessageStore) PrivateHistory(ctx context.Context, user1 string, user2 string) ([]persistence.MessageRecord, error) {
	return nil, nil
}

func (s *fakeMessageStore) GroupHistory(ctx context.Context, groupId string) ([]persistence.MessageRecord, error) {
	return nil, nil
}

// waitForSave blocks until the next background write lands or the timeout
// expires, returning whether one landed.
func (s *fakeMessageStore) waitForSave(timeout time.Duration) (persistence.SaveMessageRequest, bool) {
	select {
	case request := <-s.savedCh:
		return request, true
	case <-time.After(timeout):
		return persistence.SaveMessageRequest{}, false
	}
}

type fakeGroupStore struct {
	membersByGroup map[string][]string
}

func (s *fakeGroupStore) Create(ctx context.Context, name string, members []string) (persistence.Group, error) {
	return persistence.Group{Id: "group-1", Name: name, Members: members}, nil
}

func (s *fakeGroupStore) GroupsForUser(ctx context.Context, userId string) ([]persistence.Group, error) {
	return nil, nil
}

func (s *fakeGroupStore) IsMember(ctx context.Context, groupId string, userId string) (bool, error) {
	return slices.Contains(s.membersByGroup[groupId], userId), nil
}
