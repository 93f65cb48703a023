package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                 uuid.UUID   `json:"id"`
	Username           string      `json:"username"`
	Email              string      `json:"email"`
	HashedPassword     string      `json:"-"`
	FullName           string      `json:"fullName"`
	Role               string      `json:"role"`
	Bio                string      `json:"bio,omitempty"`
	Workplace          string      `json:"workplace,omitempty"`
	Education          string      `json:"education,omitempty"`
	Location           string      `json:"location,omitempty"`
	RelationshipStatus string      `json:"relationshipStatus,omitempty"`
	Birthday           string      `json:"birthday,omitempty"`
	Phone              string      `json:"phone,omitempty"`
	Website            string      `json:"website,omitempty"`
	ProfilePicture     string      `json:"profilePicture,omitempty"`
	CoverPhoto         string      `json:"coverPhoto,omitempty"`
	Friends            []uuid.UUID `json:"friends"`
	CreatedAt          time.Time   `json:"createdAt"`
	LastActive         time.Time   `json:"lastActive"`
	IsOnline           bool        `json:"isOnline"`
}

// UserSummary is the public projection embedded in conversations, posts and
// notifications instead of a raw user id.
type UserSummary struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	FullName       string    `json:"fullName"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
}

// Summary strips a user down to the fields other users are allowed to see.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:             u.ID,
		Username:       u.Username,
		FullName:       u.FullName,
		ProfilePicture: u.ProfilePicture,
	}
}

// ProfileUpdate carries the mutable profile fields. Nil pointers mean
// "leave unchanged".
type ProfileUpdate struct {
	FullName           *string `json:"fullName,omitempty"`
	Bio                *string `json:"bio,omitempty"`
	Workplace          *string `json:"workplace,omitempty"`
	Education          *string `json:"education,omitempty"`
	Location           *string `json:"location,omitempty"`
	RelationshipStatus *string `json:"relationshipStatus,omitempty"`
	Birthday           *string `json:"birthday,omitempty"`
	Phone              *string `json:"phone,omitempty"`
	Website            *string `json:"website,omitempty"`
}
