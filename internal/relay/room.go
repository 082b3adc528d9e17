package relay

import "sync"

// RoomRegistry tracks which open connections have subscribed to each group
// channel. It is a per-process subscription index, not the authoritative
// group-membership list; that lives in the persistence layer.
type RoomRegistry struct {
	mu sync.RWMutex

	connectionsByRoom map[string]map[string]struct{}
	roomsByConnection map[string]map[string]struct{}
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		connectionsByRoom: make(map[string]map[string]struct{}),
		roomsByConnection: make(map[string]map[string]struct{}),
	}
}

// Join subscribes connectionId to the room, creating the room entry on first
// use. Joining a room twice has no additional effect.
func (r *RoomRegistry) Join(groupId string, connectionId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.connectionsByRoom[groupId]; !ok {
		r.connectionsByRoom[groupId] = make(map[string]struct{})
	}
	r.connectionsByRoom[groupId][connectionId] = struct{}{}

	if _, ok := r.roomsByConnection[connectionId]; !ok {
		r.roomsByConnection[connectionId] = make(map[string]struct{})
	}
	r.roomsByConnection[connectionId][groupId] = struct{}{}
}

func (r *RoomRegistry) MembersOf(groupId string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connectionIds, ok := r.connectionsByRoom[groupId]
	if !ok {
		return nil
	}

	members := make([]string, 0, len(connectionIds))
	for connectionId := range connectionIds {
		members = append(members, connectionId)
	}

	return members
}

// RemoveByConnection unsubscribes connectionId from every room it joined.
// Rooms left without members are pruned so churny groups do not accumulate
// empty entries.
func (r *RoomRegistry) RemoveByConnection(connectionId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	connectionRooms, ok := r.roomsByConnection[connectionId]
	if !ok {
		return
	}

	for groupId := range connectionRooms {
		roomConnections, ok := r.connectionsByRoom[groupId]
		if !ok {
			panic("inconsistent state: room not found in connectionsByRoom")
		}

		delete(roomConnections, connectionId)
		if len(roomConnections) == 0 {
			delete(r.connectionsByRoom, groupId)
		}
	}

	delete(r.roomsByConnection, connectionId)
}
