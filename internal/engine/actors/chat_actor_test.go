package actors

import (
	stdctx "context"
	"sync"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swampbook/internal/models"
	"swampbook/internal/testutil"
	"swampbook/internal/utils"
)

// recordingPusher captures websocket pushes for inspection.
type recordingPusher struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	UserID    uuid.UUID
	EventType string
	Payload   interface{}
}

func (p *recordingPusher) PushToUser(userID uuid.UUID, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{UserID: userID, EventType: eventType, Payload: payload})
}

func (p *recordingPusher) IsOnline(uuid.UUID) bool { return true }

func (p *recordingPusher) eventsFor(userID uuid.UUID, eventType string) []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	matched := make([]recordedEvent, 0)
	for _, e := range p.events {
		if e.UserID == userID && e.EventType == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

type chatFixture struct {
	system *actor.ActorSystem
	store  *testutil.MemoryStore
	pusher *recordingPusher
	pid    *actor.PID
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	system := actor.NewActorSystem()
	store := testutil.NewMemoryStore()
	pusher := &recordingPusher{}
	metrics := utils.NewMetricsCollector()

	notificationPID := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewNotificationActor(store, pusher, metrics)
	}))
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewChatActor(store, notificationPID, pusher, metrics)
	}))
	return &chatFixture{system: system, store: store, pusher: pusher, pid: pid}
}

func (f *chatFixture) seedUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		ID:        uuid.New(),
		Username:  username,
		Email:     username + "@example.com",
		FullName:  "Test " + username,
		Friends:   []uuid.UUID{},
		CreatedAt: time.Now(),
	}
	require.NoError(t, f.store.SaveUser(stdctx.Background(), user))
	return user
}

func (f *chatFixture) ask(t *testing.T, msg interface{}) interface{} {
	t.Helper()
	future := f.system.Root.RequestFuture(f.pid, msg, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	return result
}

func (f *chatFixture) openConversation(t *testing.T, a, b *models.User) *ConversationView {
	t.Helper()
	result := f.ask(t, &CreateConversationMsg{UserID: a.ID, ParticipantID: b.ID})
	view, ok := result.(*ConversationView)
	require.True(t, ok, "expected *ConversationView, got %T", result)
	return view
}

func (f *chatFixture) sendMessage(t *testing.T, sender *models.User, convID uuid.UUID, content string) *models.Message {
	t.Helper()
	result := f.ask(t, &SendMessageMsg{SenderID: sender.ID, ConversationID: convID, Content: content})
	message, ok := result.(*models.Message)
	require.True(t, ok, "expected *models.Message, got %T", result)
	return message
}

func TestCreateConversationIsIdempotent(t *testing.T) {
	f := newChatFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")

	first := f.openConversation(t, alice, bob)
	require.Len(t, first.Participants, 1)
	assert.Equal(t, "bob", first.Participants[0].Username)

	// Opening the pair again, from either side, returns the same conversation.
	second := f.openConversation(t, alice, bob)
	assert.Equal(t, first.ID, second.ID)

	fromBob := f.openConversation(t, bob, alice)
	assert.Equal(t, first.ID, fromBob.ID)
	require.Len(t, fromBob.Participants, 1)
	assert.Equal(t, "alice", fromBob.Participants[0].Username)
}

func TestCreateConversationGuards(t *testing.T) {
	f := newChatFixture(t)
	alice := f.seedUser(t, "alice")

	result := f.ask(t, &CreateConversationMsg{UserID: alice.ID, ParticipantID: alice.ID})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)

	result = f.ask(t, &CreateConversationMsg{UserID: alice.ID, ParticipantID: uuid.New()})
	appErr, ok = result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrUserNotFound, appErr.Code)
}

func TestMessageFlow(t *testing.T) {
	f := newChatFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	conv := f.openConversation(t, alice, bob)

	f.sendMessage(t, alice, conv.ID, "hi")
	f.sendMessage(t, bob, conv.ID, "hey")
	f.sendMessage(t, alice, conv.ID, "how are you?")

	result := f.ask(t, &ListMessagesMsg{UserID: bob.ID, ConversationID: conv.ID})
	messages, ok := result.([]*models.Message)
	require.True(t, ok, "expected []*models.Message, got %T", result)
	require.Len(t, messages, 3)
	assert.Equal(t, "hi", messages[0].Content)
	assert.Equal(t, "hey", messages[1].Content)
	assert.Equal(t, "how are you?", messages[2].Content)

	// The conversation snapshot mirrors the newest message.
	result = f.ask(t, &GetConversationMsg{UserID: bob.ID, ConversationID: conv.ID})
	detail, ok := result.(*ConversationDetail)
	require.True(t, ok, "expected *ConversationDetail, got %T", result)
	require.NotNil(t, detail.LastMessage)
	assert.Equal(t, "how are you?", detail.LastMessage.Content)
	assert.Equal(t, alice.ID, detail.LastMessage.SenderID)

	// Bob has two unread messages from alice.
	result = f.ask(t, &GetUnreadMessageCountMsg{UserID: bob.ID})
	count, ok := result.(*UnreadCountResult)
	require.True(t, ok)
	assert.Equal(t, int64(2), count.Count)

	// Each of bob's inbound messages was pushed over the hub.
	pushes := f.pusher.eventsFor(bob.ID, "message")
	assert.Len(t, pushes, 2)
}

func TestSendMessageValidation(t *testing.T) {
	f := newChatFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	carol := f.seedUser(t, "carol")
	conv := f.openConversation(t, alice, bob)

	result := f.ask(t, &SendMessageMsg{SenderID: alice.ID, ConversationID: conv.ID, Content: "   "})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)

	result = f.ask(t, &SendMessageMsg{SenderID: carol.ID, ConversationID: conv.ID, Content: "let me in"})
	appErr, ok = result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrNotParticipant, appErr.Code)

	result = f.ask(t, &ListMessagesMsg{UserID: carol.ID, ConversationID: conv.ID})
	appErr, ok = result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrNotParticipant, appErr.Code)
}

func TestMarkConversationRead(t *testing.T) {
	f := newChatFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	conv := f.openConversation(t, alice, bob)

	f.sendMessage(t, alice, conv.ID, "one")
	f.sendMessage(t, alice, conv.ID, "two")

	result := f.ask(t, &MarkConversationReadMsg{UserID: bob.ID, ConversationID: conv.ID})
	receipt, ok := result.(*ReadReceipt)
	require.True(t, ok, "expected *ReadReceipt, got %T", result)
	assert.Equal(t, int64(2), receipt.MarkedRead)

	// Marking again flips nothing.
	result = f.ask(t, &MarkConversationReadMsg{UserID: bob.ID, ConversationID: conv.ID})
	receipt = result.(*ReadReceipt)
	assert.Equal(t, int64(0), receipt.MarkedRead)

	result = f.ask(t, &GetUnreadMessageCountMsg{UserID: bob.ID})
	count := result.(*UnreadCountResult)
	assert.Equal(t, int64(0), count.Count)
}

func TestTypingIndicator(t *testing.T) {
	f := newChatFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	conv := f.openConversation(t, alice, bob)

	result := f.ask(t, &SetTypingMsg{UserID: alice.ID, ConversationID: conv.ID, IsTyping: true})
	ack, ok := result.(*TypingAck)
	require.True(t, ok, "expected *TypingAck, got %T", result)
	assert.True(t, ack.Success)

	// Bob sees the flag, alice does not see her own signal.
	bobView := f.openConversation(t, bob, alice)
	assert.True(t, bobView.IsTyping)
	aliceView := f.openConversation(t, alice, bob)
	assert.False(t, aliceView.IsTyping)

	// The other side got a typing event.
	events := f.pusher.eventsFor(bob.ID, "typing")
	require.Len(t, events, 1)

	// Sending a message clears the sender's typing signal.
	f.sendMessage(t, alice, conv.ID, "done typing")
	bobView = f.openConversation(t, bob, alice)
	assert.False(t, bobView.IsTyping)

	// A stop signal while never typing is still acknowledged.
	result = f.ask(t, &SetTypingMsg{UserID: alice.ID, ConversationID: conv.ID, IsTyping: false})
	ack = result.(*TypingAck)
	assert.True(t, ack.Success)

	// A typing signal for a missing conversation never errors either.
	result = f.ask(t, &SetTypingMsg{UserID: alice.ID, ConversationID: uuid.New(), IsTyping: true})
	ack, ok = result.(*TypingAck)
	require.True(t, ok, "expected *TypingAck, got %T", result)
	assert.True(t, ack.Success)
}

func TestDeleteMessageRefreshesSnapshot(t *testing.T) {
	f := newChatFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	conv := f.openConversation(t, alice, bob)

	first := f.sendMessage(t, alice, conv.ID, "first")
	second := f.sendMessage(t, bob, conv.ID, "second")

	// Only the sender may delete a message.
	result := f.ask(t, &DeleteMessageMsg{UserID: alice.ID, MessageID: second.ID})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	// Deleting the newest message rolls the snapshot back to the previous one.
	f.ask(t, &DeleteMessageMsg{UserID: bob.ID, MessageID: second.ID})
	view := f.openConversation(t, alice, bob)
	require.NotNil(t, view.LastMessage)
	assert.Equal(t, "first", view.LastMessage.Content)

	// Deleting the last remaining message clears the snapshot.
	f.ask(t, &DeleteMessageMsg{UserID: alice.ID, MessageID: first.ID})
	view = f.openConversation(t, alice, bob)
	assert.Nil(t, view.LastMessage)
}

func TestDeleteConversationCascades(t *testing.T) {
	f := newChatFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	carol := f.seedUser(t, "carol")
	conv := f.openConversation(t, alice, bob)
	f.sendMessage(t, alice, conv.ID, "soon gone")

	result := f.ask(t, &DeleteConversationMsg{UserID: carol.ID, ConversationID: conv.ID})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrNotParticipant, appErr.Code)

	f.ask(t, &DeleteConversationMsg{UserID: bob.ID, ConversationID: conv.ID})

	result = f.ask(t, &GetConversationMsg{UserID: alice.ID, ConversationID: conv.ID})
	appErr, ok = result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrConversationNotFound, appErr.Code)

	messages, err := f.store.ListConversationMessages(stdctx.Background(), conv.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestListConversationsOrdering(t *testing.T) {
	f := newChatFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	carol := f.seedUser(t, "carol")

	withBob := f.openConversation(t, alice, bob)
	withCarol := f.openConversation(t, alice, carol)

	f.sendMessage(t, alice, withBob.ID, "to bob")
	time.Sleep(5 * time.Millisecond)
	f.sendMessage(t, carol, withCarol.ID, "from carol")

	result := f.ask(t, &ListConversationsMsg{UserID: alice.ID})
	views, ok := result.([]*ConversationView)
	require.True(t, ok, "expected []*ConversationView, got %T", result)
	require.Len(t, views, 2)
	assert.Equal(t, withCarol.ID, views[0].ID, "newest activity sorts first")
	assert.Equal(t, withBob.ID, views[1].ID)
}

func TestSearchMessages(t *testing.T) {
	f := newChatFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	carol := f.seedUser(t, "carol")

	withBob := f.openConversation(t, alice, bob)
	withCarol := f.openConversation(t, bob, carol)

	f.sendMessage(t, alice, withBob.ID, "lunch at the swamp?")
	f.sendMessage(t, bob, withBob.ID, "sure, noon works")
	f.sendMessage(t, carol, withCarol.ID, "swamp tour this weekend")

	// Alice only searches her own conversations.
	result := f.ask(t, &SearchMessagesMsg{UserID: alice.ID, Query: "SWAMP"})
	matches, ok := result.([]*MessageSearchResult)
	require.True(t, ok, "expected []*MessageSearchResult, got %T", result)
	require.Len(t, matches, 1)
	assert.Equal(t, "lunch at the swamp?", matches[0].Content)
	require.Len(t, matches[0].Participants, 1)
	assert.Equal(t, "bob", matches[0].Participants[0].Username)

	result = f.ask(t, &SearchMessagesMsg{UserID: alice.ID, Query: ""})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)

	// Regex metacharacters in the query match literally.
	f.sendMessage(t, bob, withBob.ID, "meet at the (old) dock")
	result = f.ask(t, &SearchMessagesMsg{UserID: alice.ID, Query: "(old)"})
	matches, ok = result.([]*MessageSearchResult)
	require.True(t, ok, "expected []*MessageSearchResult, got %T", result)
	require.Len(t, matches, 1)
	assert.Equal(t, "meet at the (old) dock", matches[0].Content)
}

func TestMessageNotifications(t *testing.T) {
	f := newChatFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	conv := f.openConversation(t, alice, bob)

	f.sendMessage(t, alice, conv.ID, "ping")
	time.Sleep(100 * time.Millisecond)

	notifications, err := f.store.ListUserNotifications(stdctx.Background(), bob.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationMessage, notifications[0].Type)
	assert.Equal(t, conv.ID, notifications[0].ReferenceID)
	assert.Equal(t, "New message from alice", notifications[0].Content)

	// Marking the conversation read also clears its message notifications.
	f.ask(t, &MarkConversationReadMsg{UserID: bob.ID, ConversationID: conv.ID})
	count, err := f.store.CountUnreadNotifications(stdctx.Background(), bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
