package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPairKeyIsOrderIndependent(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	assert.Equal(t, PairKey(a, b), PairKey(b, a))
	assert.NotEqual(t, PairKey(a, b), PairKey(a, uuid.New()))
}

func TestConversationParticipants(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	conv := &Conversation{ID: uuid.New(), Participants: []uuid.UUID{a, b}}

	assert.True(t, conv.HasParticipant(a))
	assert.False(t, conv.HasParticipant(uuid.New()))

	others := conv.OtherParticipants(a)
	assert.Equal(t, []uuid.UUID{b}, others)
}
