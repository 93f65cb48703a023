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

type notificationFixture struct {
	system *actor.ActorSystem
	store  *testutil.MemoryStore
	pusher *recordingPusher
	pid    *actor.PID
}

func newNotificationFixture(t *testing.T) *notificationFixture {
	t.Helper()
	system := actor.NewActorSystem()
	store := testutil.NewMemoryStore()
	pusher := &recordingPusher{}
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewNotificationActor(store, pusher, utils.NewMetricsCollector())
	}))
	return &notificationFixture{system: system, store: store, pusher: pusher, pid: pid}
}

func (f *notificationFixture) seedUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		ID:       uuid.New(),
		Username: username,
		Email:    username + "@example.com",
		FullName: "Test " + username,
		Friends:  []uuid.UUID{},
	}
	require.NoError(t, f.store.SaveUser(stdctx.Background(), user))
	return user
}

func (f *notificationFixture) ask(t *testing.T, msg interface{}) interface{} {
	t.Helper()
	future := f.system.Root.RequestFuture(f.pid, msg, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	return result
}

// add sends a fire-and-forget write, then waits for it to land.
func (f *notificationFixture) add(t *testing.T, msg *AddNotificationMsg) {
	t.Helper()
	f.system.Root.Send(f.pid, msg)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		notifications, err := f.store.ListUserNotifications(stdctx.Background(), msg.UserID)
		require.NoError(t, err)
		for _, n := range notifications {
			if n.Content == msg.Content {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("notification %q never persisted", msg.Content)
}

func TestNotificationLifecycle(t *testing.T) {
	f := newNotificationFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")

	f.add(t, &AddNotificationMsg{
		UserID:       alice.ID,
		Type:         models.NotificationLike,
		ReferenceID:  uuid.New(),
		SourceUserID: bob.ID,
		Content:      "bob liked your post",
	})
	f.add(t, &AddNotificationMsg{
		UserID:       alice.ID,
		Type:         models.NotificationComment,
		ReferenceID:  uuid.New(),
		SourceUserID: bob.ID,
		Content:      "bob commented on your post",
	})

	result := f.ask(t, &ListNotificationsMsg{UserID: alice.ID})
	views, ok := result.([]*NotificationView)
	require.True(t, ok, "expected []*NotificationView, got %T", result)
	require.Len(t, views, 2)
	for _, view := range views {
		require.NotNil(t, view.SourceUser)
		assert.Equal(t, "bob", view.SourceUser.Username)
		assert.False(t, view.IsRead)
	}

	result = f.ask(t, &UnreadNotificationCountMsg{UserID: alice.ID})
	count, ok := result.(*UnreadCountResult)
	require.True(t, ok)
	assert.Equal(t, int64(2), count.Count)

	// New notifications are pushed out as they land.
	pushes := f.pusher.eventsFor(alice.ID, "notification")
	assert.Len(t, pushes, 2)

	result = f.ask(t, &MarkNotificationReadMsg{UserID: alice.ID, NotificationID: views[0].ID})
	marked, ok := result.(*models.Notification)
	require.True(t, ok, "expected *models.Notification, got %T", result)
	assert.True(t, marked.IsRead)

	result = f.ask(t, &MarkAllNotificationsReadMsg{UserID: alice.ID})
	all, ok := result.(*MarkAllReadResult)
	require.True(t, ok)
	assert.Equal(t, int64(1), all.MarkedRead, "only the remaining unread one flips")

	result = f.ask(t, &UnreadNotificationCountMsg{UserID: alice.ID})
	count = result.(*UnreadCountResult)
	assert.Equal(t, int64(0), count.Count)
}

func TestNotificationOwnership(t *testing.T) {
	f := newNotificationFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")

	f.add(t, &AddNotificationMsg{
		UserID:       alice.ID,
		Type:         models.NotificationFriendRequest,
		ReferenceID:  uuid.New(),
		SourceUserID: bob.ID,
		Content:      "bob sent you a friend request",
	})
	notifications, err := f.store.ListUserNotifications(stdctx.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	id := notifications[0].ID

	result := f.ask(t, &MarkNotificationReadMsg{UserID: bob.ID, NotificationID: id})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	result = f.ask(t, &DeleteNotificationMsg{UserID: bob.ID, NotificationID: id})
	appErr, ok = result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	result = f.ask(t, &DeleteNotificationMsg{UserID: alice.ID, NotificationID: id})
	_, isErr := result.(*utils.AppError)
	assert.False(t, isErr, "owner delete should succeed: %v", result)

	result = f.ask(t, &MarkNotificationReadMsg{UserID: alice.ID, NotificationID: id})
	appErr, ok = result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrNotFound, appErr.Code)
}
