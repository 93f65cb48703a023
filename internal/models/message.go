package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Conversation is a two-party message thread. Participants are unordered;
// PairKey is the sorted participant pair joined with ":" so the same pair
// always maps to the same key regardless of who opened the conversation.
type Conversation struct {
	ID           uuid.UUID    `json:"id"`
	Participants []uuid.UUID  `json:"participants"`
	PairKey      string       `json:"-"`
	LastMessage  *LastMessage `json:"lastMessage,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// LastMessage is the denormalized snapshot of the newest message, kept on
// the conversation for cheap list rendering.
type LastMessage struct {
	Content   string    `json:"content"`
	SenderID  uuid.UUID `json:"senderId"`
	Timestamp time.Time `json:"timestamp"`
}

type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversationId"`
	SenderID       uuid.UUID `json:"senderId"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	IsRead         bool      `json:"isRead"`
}

// PairKey builds the deterministic composite key for an unordered pair of
// participant ids.
func PairKey(a, b uuid.UUID) string {
	ids := []string{a.String(), b.String()}
	sort.Strings(ids)
	return ids[0] + ":" + ids[1]
}

// HasParticipant reports whether the given user belongs to the conversation.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipants returns every participant except the given user.
func (c *Conversation) OtherParticipants(userID uuid.UUID) []uuid.UUID {
	others := make([]uuid.UUID, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p != userID {
			others = append(others, p)
		}
	}
	return others
}
