package models

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"userId"`
	Content   string      `json:"content"`
	ImageURL  string      `json:"imageUrl,omitempty"`
	Likes     []uuid.UUID `json:"likes"`
	Comments  []Comment   `json:"comments"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Comment is embedded in its post document rather than stored in a separate
// collection.
type Comment struct {
	ID              uuid.UUID   `json:"id"`
	UserID          uuid.UUID   `json:"userId"`
	Content         string      `json:"content"`
	ParentCommentID *uuid.UUID  `json:"parentCommentId,omitempty"`
	Likes           []uuid.UUID `json:"likes"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       *time.Time  `json:"updatedAt,omitempty"`
}

// LikedBy reports whether the given user is in the comment's likes set.
func (c *Comment) LikedBy(userID uuid.UUID) bool {
	for _, id := range c.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// LikedBy reports whether the given user is in the post's likes set.
func (p *Post) LikedBy(userID uuid.UUID) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
