package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MediaTypeAvatar = "avatar"
	MediaTypeCover  = "cover"
	MediaTypePost   = "post"
)

// Media records an uploaded file. The bytes themselves live on disk under
// the configured upload directory; only the URL paths are stored.
type Media struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"userId"`
	Type         string    `json:"type"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	Filename     string    `json:"filename"`
	Size         int64     `json:"size"`
	Description  string    `json:"description,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// MediaUpdate carries the editable fields of a media record. A nil pointer
// leaves the field unchanged.
type MediaUpdate struct {
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}
