package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationLike                  = "like"
	NotificationComment               = "comment"
	NotificationFriendRequest         = "friend_request"
	NotificationFriendRequestAccepted = "friend_request_accepted"
	NotificationFriendRequestRejected = "friend_request_rejected"
	NotificationMessage               = "message"
)

// Notification records a typed event created as a side effect of some other
// user's action. ReferenceID points at the triggering object (post,
// conversation or friend request).
type Notification struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"userId"`
	Type         string    `json:"type"`
	ReferenceID  uuid.UUID `json:"referenceId"`
	SourceUserID uuid.UUID `json:"sourceUserId"`
	Content      string    `json:"content"`
	IsRead       bool      `json:"isRead"`
	CreatedAt    time.Time `json:"createdAt"`
}
