package relay

import "sync"

// PresenceRegistry maps a user identifier to the single most-recently-announced
// connection. A new announcement for the same user overwrites the previous
// entry (last-announced-wins) without evicting the prior connection; the stale
// connection stays orphaned until its own close event fires.
type PresenceRegistry struct {
	mu sync.RWMutex

	connectionByUser map[string]string
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		connectionByUser: make(map[string]string),
	}
}

func (r *PresenceRegistry) Register(userId string, connectionId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.connectionByUser[userId] = connectionId
}

func (r *PresenceRegistry) Lookup(userId string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connectionId, ok := r.connectionByUser[userId]

	return connectionId, ok
}

// RemoveByConnection drops the presence entry referencing connectionId, if
// any. At most one entry can match since users map to a single connection.
func (r *PresenceRegistry) RemoveByConnection(connectionId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userId, id := range r.connectionByUser {
		if id == connectionId {
			delete(r.connectionByUser, userId)

			return
		}
	}
}
