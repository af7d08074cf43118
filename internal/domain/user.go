package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents one connected signaling client. The identity is generated
// server-side per connection and is never reused.
type User struct {
	ID       string
	Name     string
	JoinedAt time.Time
	Events   chan SignalMessage

	eventsClosed bool
}

func NewUser(name string, queueSize int) *User {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &User{
		ID:       uuid.NewString(),
		Name:     name,
		JoinedAt: time.Now().UTC(),
		Events:   make(chan SignalMessage, queueSize),
	}
}

// EnqueueEvent queues an outbound message without blocking. A full queue
// means the peer stopped draining its socket; callers treat that the same as
// a dead connection.
func (u *User) EnqueueEvent(event SignalMessage) bool {
	if u.eventsClosed {
		return false
	}
	select {
	case u.Events <- event:
		return true
	default:
		return false
	}
}

// CloseEvents is called once by whoever removes the user from the registry,
// under the registry lock, so no enqueue can race the close.
func (u *User) CloseEvents() {
	if u.eventsClosed {
		return
	}
	u.eventsClosed = true
	close(u.Events)
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name}
}

// UserSummary is the roster entry shape sent over the wire.
type UserSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
