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

type postFixture struct {
	system *actor.ActorSystem
	store  *testutil.MemoryStore
	pid    *actor.PID
}

func newPostFixture(t *testing.T) *postFixture {
	t.Helper()
	system := actor.NewActorSystem()
	store := testutil.NewMemoryStore()
	metrics := utils.NewMetricsCollector()

	notificationPID := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewNotificationActor(store, NoopPusher{}, metrics)
	}))
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewPostActor(store, notificationPID, metrics)
	}))
	return &postFixture{system: system, store: store, pid: pid}
}

func (f *postFixture) seedUser(t *testing.T, username string, friends ...uuid.UUID) *models.User {
	t.Helper()
	user := &models.User{
		ID:        uuid.New(),
		Username:  username,
		Email:     username + "@example.com",
		FullName:  "Test " + username,
		Friends:   append([]uuid.UUID{}, friends...),
		CreatedAt: time.Now(),
	}
	require.NoError(t, f.store.SaveUser(stdctx.Background(), user))
	return user
}

func (f *postFixture) ask(t *testing.T, msg interface{}) interface{} {
	t.Helper()
	future := f.system.Root.RequestFuture(f.pid, msg, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	return result
}

func (f *postFixture) createPost(t *testing.T, author *models.User, content string) *PostView {
	t.Helper()
	result := f.ask(t, &CreatePostMsg{UserID: author.ID, Content: content})
	view, ok := result.(*PostView)
	require.True(t, ok, "expected *PostView, got %T", result)
	return view
}

func TestCreatePost(t *testing.T) {
	f := newPostFixture(t)
	alice := f.seedUser(t, "alice")

	view := f.createPost(t, alice, "hello swamp")
	assert.Equal(t, "hello swamp", view.Content)
	require.NotNil(t, view.Author)
	assert.Equal(t, "alice", view.Author.Username)
	assert.Empty(t, view.Likes)
	assert.Empty(t, view.Comments)

	// A post needs either text or an image.
	result := f.ask(t, &CreatePostMsg{UserID: alice.ID, Content: "   "})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)

	result = f.ask(t, &CreatePostMsg{UserID: alice.ID, ImageURL: "/uploads/posts/pic.jpg"})
	imageOnly, ok := result.(*PostView)
	require.True(t, ok, "image-only post should succeed, got %T", result)
	assert.Equal(t, "/uploads/posts/pic.jpg", imageOnly.ImageURL)
}

func TestFeedCoversFriends(t *testing.T) {
	f := newPostFixture(t)
	bob := f.seedUser(t, "bob")
	carol := f.seedUser(t, "carol")
	alice := f.seedUser(t, "alice", bob.ID)

	f.createPost(t, alice, "mine")
	time.Sleep(2 * time.Millisecond)
	f.createPost(t, bob, "friend post")
	time.Sleep(2 * time.Millisecond)
	f.createPost(t, carol, "stranger post")

	result := f.ask(t, &GetFeedMsg{UserID: alice.ID})
	feed, ok := result.([]*PostView)
	require.True(t, ok, "expected []*PostView, got %T", result)
	require.Len(t, feed, 2, "the feed covers the caller and their friends only")
	assert.Equal(t, "friend post", feed[0].Content, "newest first")
	assert.Equal(t, "mine", feed[1].Content)
}

func TestToggleLike(t *testing.T) {
	f := newPostFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	post := f.createPost(t, alice, "like me")

	result := f.ask(t, &ToggleLikeMsg{UserID: bob.ID, PostID: post.ID})
	liked, ok := result.(*LikeResult)
	require.True(t, ok, "expected *LikeResult, got %T", result)
	assert.True(t, liked.Liked)
	assert.Contains(t, liked.Likes, bob.ID)

	// The author hears about the like.
	time.Sleep(100 * time.Millisecond)
	notifications, err := f.store.ListUserNotifications(stdctx.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationLike, notifications[0].Type)

	// A second toggle unlikes, silently.
	result = f.ask(t, &ToggleLikeMsg{UserID: bob.ID, PostID: post.ID})
	unliked := result.(*LikeResult)
	assert.False(t, unliked.Liked)
	assert.NotContains(t, unliked.Likes, bob.ID)

	time.Sleep(100 * time.Millisecond)
	notifications, err = f.store.ListUserNotifications(stdctx.Background(), alice.ID)
	require.NoError(t, err)
	assert.Len(t, notifications, 1, "unlike adds no notification")

	// Liking your own post stays quiet too.
	f.ask(t, &ToggleLikeMsg{UserID: alice.ID, PostID: post.ID})
	time.Sleep(100 * time.Millisecond)
	notifications, err = f.store.ListUserNotifications(stdctx.Background(), alice.ID)
	require.NoError(t, err)
	assert.Len(t, notifications, 1)
}

func TestCommentLifecycle(t *testing.T) {
	f := newPostFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	post := f.createPost(t, alice, "discuss")

	result := f.ask(t, &AddCommentMsg{UserID: bob.ID, PostID: post.ID, Content: "nice one"})
	comment, ok := result.(*CommentView)
	require.True(t, ok, "expected *CommentView, got %T", result)
	assert.Equal(t, "nice one", comment.Content)
	require.NotNil(t, comment.Author)
	assert.Equal(t, "bob", comment.Author.Username)

	// Replies reference their parent comment.
	result = f.ask(t, &AddCommentMsg{UserID: alice.ID, PostID: post.ID, Content: "thanks", ParentCommentID: &comment.ID})
	reply, ok := result.(*CommentView)
	require.True(t, ok)
	require.NotNil(t, reply.ParentCommentID)
	assert.Equal(t, comment.ID, *reply.ParentCommentID)

	// Only the author can edit.
	result = f.ask(t, &UpdateCommentMsg{UserID: alice.ID, PostID: post.ID, CommentID: comment.ID, Content: "hijack"})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	result = f.ask(t, &UpdateCommentMsg{UserID: bob.ID, PostID: post.ID, CommentID: comment.ID, Content: "really nice one"})
	edited, ok := result.(*CommentView)
	require.True(t, ok, "expected *CommentView, got %T", result)
	assert.Equal(t, "really nice one", edited.Content)
	assert.NotNil(t, edited.UpdatedAt)

	result = f.ask(t, &GetCommentsMsg{PostID: post.ID})
	comments, ok := result.([]CommentView)
	require.True(t, ok, "expected []CommentView, got %T", result)
	assert.Len(t, comments, 2)

	f.ask(t, &DeleteCommentMsg{UserID: bob.ID, PostID: post.ID, CommentID: comment.ID})
	result = f.ask(t, &GetCommentsMsg{PostID: post.ID})
	comments = result.([]CommentView)
	assert.Len(t, comments, 1)
}

func TestCommentLikes(t *testing.T) {
	f := newPostFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	post := f.createPost(t, alice, "discuss")

	result := f.ask(t, &AddCommentMsg{UserID: alice.ID, PostID: post.ID, Content: "first"})
	comment, ok := result.(*CommentView)
	require.True(t, ok, "expected *CommentView, got %T", result)

	result = f.ask(t, &LikeCommentMsg{UserID: bob.ID, PostID: post.ID, CommentID: comment.ID})
	liked, ok := result.(*LikeResult)
	require.True(t, ok, "expected *LikeResult, got %T", result)
	assert.True(t, liked.Liked)
	assert.Contains(t, liked.Likes, bob.ID)

	// The comment author hears about the like.
	time.Sleep(100 * time.Millisecond)
	notifications, err := f.store.ListUserNotifications(stdctx.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationLike, notifications[0].Type)
	assert.Equal(t, comment.ID, notifications[0].ReferenceID)

	// Liking twice is an error, not a toggle.
	result = f.ask(t, &LikeCommentMsg{UserID: bob.ID, PostID: post.ID, CommentID: comment.ID})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)

	result = f.ask(t, &UnlikeCommentMsg{UserID: bob.ID, PostID: post.ID, CommentID: comment.ID})
	unliked, ok := result.(*LikeResult)
	require.True(t, ok, "expected *LikeResult, got %T", result)
	assert.False(t, unliked.Liked)
	assert.NotContains(t, unliked.Likes, bob.ID)

	// Removing a like that was never recorded is a 404.
	result = f.ask(t, &UnlikeCommentMsg{UserID: bob.ID, PostID: post.ID, CommentID: comment.ID})
	appErr, ok = result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrNotFound, appErr.Code)

	// Liking your own comment stays quiet.
	f.ask(t, &LikeCommentMsg{UserID: alice.ID, PostID: post.ID, CommentID: comment.ID})
	time.Sleep(100 * time.Millisecond)
	notifications, err = f.store.ListUserNotifications(stdctx.Background(), alice.ID)
	require.NoError(t, err)
	assert.Len(t, notifications, 1)
}

func TestCommentReplies(t *testing.T) {
	f := newPostFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	post := f.createPost(t, alice, "thread")

	result := f.ask(t, &AddCommentMsg{UserID: alice.ID, PostID: post.ID, Content: "root"})
	root, ok := result.(*CommentView)
	require.True(t, ok)

	f.ask(t, &AddCommentMsg{UserID: bob.ID, PostID: post.ID, Content: "reply one", ParentCommentID: &root.ID})
	f.ask(t, &AddCommentMsg{UserID: alice.ID, PostID: post.ID, Content: "reply two", ParentCommentID: &root.ID})
	f.ask(t, &AddCommentMsg{UserID: bob.ID, PostID: post.ID, Content: "unrelated"})

	result = f.ask(t, &GetCommentRepliesMsg{PostID: post.ID, CommentID: root.ID})
	replies, ok := result.([]CommentView)
	require.True(t, ok, "expected []CommentView, got %T", result)
	require.Len(t, replies, 2)
	for _, reply := range replies {
		require.NotNil(t, reply.ParentCommentID)
		assert.Equal(t, root.ID, *reply.ParentCommentID)
		require.NotNil(t, reply.Author)
	}

	result = f.ask(t, &GetCommentRepliesMsg{PostID: post.ID, CommentID: uuid.New()})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrNotFound, appErr.Code)
}

func TestDeletePost(t *testing.T) {
	f := newPostFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	post := f.createPost(t, alice, "ephemeral")

	result := f.ask(t, &DeletePostMsg{UserID: bob.ID, PostID: post.ID})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	result = f.ask(t, &DeletePostMsg{UserID: alice.ID, PostID: post.ID})
	deleted, ok := result.(*DeletedPost)
	require.True(t, ok, "expected *DeletedPost, got %T", result)
	assert.True(t, deleted.Success)

	result = f.ask(t, &GetPostMsg{PostID: post.ID})
	appErr, ok = result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrNotFound, appErr.Code)
}
