package actors

import "github.com/google/uuid"

// Pusher is the realtime fan-out surface actors see. The websocket hub
// implements it; tests substitute a recording fake. Pushes are best effort
// and never affect the outcome of the operation that triggered them.
type Pusher interface {
	PushToUser(userID uuid.UUID, eventType string, payload interface{})
	IsOnline(userID uuid.UUID) bool
}

// NoopPusher discards every push. Used when no hub is wired, e.g. in the
// simulator.
type NoopPusher struct{}

func (NoopPusher) PushToUser(uuid.UUID, string, interface{}) {}
func (NoopPusher) IsOnline(uuid.UUID) bool                   { return false }
