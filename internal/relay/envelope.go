package relay

import "time"

// Envelope is the transient real-time payload handed to connections. The
// durable record kept by the persistence layer is a separate entity with its
// own identifier; an envelope is constructed, emitted and discarded.
//
// Exactly one of ReceiverId and GroupId is set.
type Envelope struct {
	SenderId   string    `json:"senderId"`
	ReceiverId string    `json:"receiverId,omitempty"`
	GroupId    string    `json:"groupId,omitempty"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}
