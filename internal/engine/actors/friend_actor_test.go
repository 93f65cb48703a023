package actors

import (
	stdctx "context"
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

type friendFixture struct {
	system *actor.ActorSystem
	store  *testutil.MemoryStore
	pid    *actor.PID
}

func newFriendFixture(t *testing.T) *friendFixture {
	t.Helper()
	system := actor.NewActorSystem()
	store := testutil.NewMemoryStore()
	metrics := utils.NewMetricsCollector()

	notificationPID := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewNotificationActor(store, NoopPusher{}, metrics)
	}))
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewFriendActor(store, notificationPID, metrics)
	}))
	return &friendFixture{system: system, store: store, pid: pid}
}

func (f *friendFixture) seedUser(t *testing.T, username string) *models.User {
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

func (f *friendFixture) ask(t *testing.T, msg interface{}) interface{} {
	t.Helper()
	future := f.system.Root.RequestFuture(f.pid, msg, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	return result
}

func TestFriendRequestAccept(t *testing.T) {
	f := newFriendFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")

	result := f.ask(t, &SendFriendRequestMsg{SenderID: alice.ID, RecipientID: bob.ID})
	request, ok := result.(*models.FriendRequest)
	require.True(t, ok, "expected *models.FriendRequest, got %T", result)
	assert.Equal(t, models.FriendRequestPending, request.Status)

	result = f.ask(t, &AcceptFriendRequestMsg{RecipientID: bob.ID, SenderID: alice.ID})
	accepted, ok := result.(*models.FriendRequest)
	require.True(t, ok, "expected *models.FriendRequest, got %T", result)
	assert.Equal(t, models.FriendRequestAccepted, accepted.Status)

	// Both sides of the friendship must be visible.
	ctx := stdctx.Background()
	aliceNow, err := f.store.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	bobNow, err := f.store.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Contains(t, aliceNow.Friends, bob.ID)
	assert.Contains(t, bobNow.Friends, alice.ID)

	// Accept notifies the original sender.
	time.Sleep(100 * time.Millisecond)
	notifications, err := f.store.ListUserNotifications(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationFriendRequestAccepted, notifications[0].Type)
}

func TestFriendRequestRejections(t *testing.T) {
	f := newFriendFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")

	f.ask(t, &SendFriendRequestMsg{SenderID: alice.ID, RecipientID: bob.ID})

	rejected := f.ask(t, &RejectFriendRequestMsg{RecipientID: bob.ID, SenderID: alice.ID})
	_, isErr := rejected.(*utils.AppError)
	assert.False(t, isErr, "reject should succeed: %v", rejected)

	// Rejection removes the request row, so the sender can try again.
	result := f.ask(t, &SendFriendRequestMsg{SenderID: alice.ID, RecipientID: bob.ID})
	request, ok := result.(*models.FriendRequest)
	require.True(t, ok, "resend after rejection should succeed, got %T", result)
	assert.Equal(t, models.FriendRequestPending, request.Status)
}

func TestFriendRequestGuards(t *testing.T) {
	f := newFriendFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")

	result := f.ask(t, &SendFriendRequestMsg{SenderID: alice.ID, RecipientID: alice.ID})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrSelfFriendRequest, appErr.Code)

	f.ask(t, &SendFriendRequestMsg{SenderID: alice.ID, RecipientID: bob.ID})

	// A second request in either direction is blocked while one is pending.
	result = f.ask(t, &SendFriendRequestMsg{SenderID: alice.ID, RecipientID: bob.ID})
	appErr, ok = result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrFriendRequestExists, appErr.Code)

	result = f.ask(t, &SendFriendRequestMsg{SenderID: bob.ID, RecipientID: alice.ID})
	appErr, ok = result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrFriendRequestExists, appErr.Code)

	f.ask(t, &AcceptFriendRequestMsg{RecipientID: bob.ID, SenderID: alice.ID})

	result = f.ask(t, &SendFriendRequestMsg{SenderID: alice.ID, RecipientID: bob.ID})
	appErr, ok = result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrAlreadyFriends, appErr.Code)

	result = f.ask(t, &AcceptFriendRequestMsg{RecipientID: alice.ID, SenderID: bob.ID})
	appErr, ok = result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrFriendRequestMissing, appErr.Code)
}

func TestRemoveFriend(t *testing.T) {
	f := newFriendFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")

	f.ask(t, &SendFriendRequestMsg{SenderID: alice.ID, RecipientID: bob.ID})
	f.ask(t, &AcceptFriendRequestMsg{RecipientID: bob.ID, SenderID: alice.ID})

	f.ask(t, &RemoveFriendMsg{UserID: alice.ID, FriendID: bob.ID})

	ctx := stdctx.Background()
	aliceNow, err := f.store.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	bobNow, err := f.store.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.NotContains(t, aliceNow.Friends, bob.ID)
	assert.NotContains(t, bobNow.Friends, alice.ID)

	// Removal purges the old accepted row, so a fresh request works.
	result := f.ask(t, &SendFriendRequestMsg{SenderID: bob.ID, RecipientID: alice.ID})
	_, ok := result.(*models.FriendRequest)
	assert.True(t, ok, "request after unfriend should succeed, got %T", result)
}

func TestListFriendsAndRequests(t *testing.T) {
	f := newFriendFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	carol := f.seedUser(t, "carol")

	f.ask(t, &SendFriendRequestMsg{SenderID: bob.ID, RecipientID: alice.ID})
	f.ask(t, &SendFriendRequestMsg{SenderID: carol.ID, RecipientID: alice.ID})

	result := f.ask(t, &ListFriendRequestsMsg{UserID: alice.ID})
	requests, ok := result.([]*FriendRequestView)
	require.True(t, ok, "expected []*FriendRequestView, got %T", result)
	assert.Len(t, requests, 2)

	f.ask(t, &AcceptFriendRequestMsg{RecipientID: alice.ID, SenderID: bob.ID})

	result = f.ask(t, &ListFriendsMsg{UserID: alice.ID})
	friends, ok := result.([]models.UserSummary)
	require.True(t, ok, "expected []models.UserSummary, got %T", result)
	require.Len(t, friends, 1)
	assert.Equal(t, "bob", friends[0].Username)

	result = f.ask(t, &CheckFriendshipMsg{UserID: alice.ID, OtherID: bob.ID})
	status, ok := result.(*FriendshipStatus)
	require.True(t, ok)
	assert.True(t, status.IsFriend)
	assert.False(t, status.IsPending)

	result = f.ask(t, &CheckFriendshipMsg{UserID: alice.ID, OtherID: carol.ID})
	status = result.(*FriendshipStatus)
	assert.False(t, status.IsFriend)
	assert.True(t, status.IsPending)
}

func TestSearchPeopleExcludesSelfAndFriends(t *testing.T) {
	f := newFriendFixture(t)
	alice := f.seedUser(t, "gator_alice")
	bob := f.seedUser(t, "gator_bob")
	f.seedUser(t, "gator_carol")

	f.ask(t, &SendFriendRequestMsg{SenderID: alice.ID, RecipientID: bob.ID})
	f.ask(t, &AcceptFriendRequestMsg{RecipientID: bob.ID, SenderID: alice.ID})

	result := f.ask(t, &SearchPeopleMsg{UserID: alice.ID, Query: "gator"})
	matches, ok := result.([]models.UserSummary)
	require.True(t, ok, "expected []models.UserSummary, got %T", result)
	require.Len(t, matches, 1)
	assert.Equal(t, "gator_carol", matches[0].Username)

	result = f.ask(t, &SearchPeopleMsg{UserID: alice.ID, Query: "   "})
	matches = result.([]models.UserSummary)
	assert.Empty(t, matches)
}
