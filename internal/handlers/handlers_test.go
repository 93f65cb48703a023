package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swampbook/internal/config"
	"swampbook/internal/engine"
	"swampbook/internal/engine/actors"
	"swampbook/internal/testutil"
	"swampbook/internal/utils"
)

// newMultipartContent writes a single form field into buf and returns the
// Content-Type header for the form.
func newMultipartContent(t *testing.T, buf *bytes.Buffer, field, value string) string {
	t.Helper()
	writer := multipart.NewWriter(buf)
	require.NoError(t, writer.WriteField(field, value))
	require.NoError(t, writer.Close())
	return writer.FormDataContentType()
}

// apiClient drives the full router through httptest, carrying one user's
// bearer token.
type apiClient struct {
	t      *testing.T
	server *httptest.Server
	token  string
	userID string
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := testutil.NewMemoryStore()
	metrics := utils.NewMetricsCollector()
	system := actor.NewActorSystem()
	eng := engine.NewEngine(system, store, actors.NoopPusher{}, metrics)

	cfg := &config.Config{
		Server:         config.DefaultConfig(),
		Database:       config.DefaultDatabaseConfig(),
		AllowedOrigins: []string{"*"},
	}
	cfg.Server.UploadDir = t.TempDir()

	server := NewServer(system, system.Root, eng, metrics, store, nil, cfg)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts
}

func (c *apiClient) do(method, path string, body interface{}) (int, []byte) {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, c.server.URL+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, payload
}

// register creates an account and returns a client authenticated as it.
func register(t *testing.T, ts *httptest.Server, username string) *apiClient {
	t.Helper()
	c := &apiClient{t: t, server: ts}

	status, body := c.do(http.MethodPost, "/users/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"fullName": "Test " + username,
	})
	require.Equal(t, http.StatusCreated, status, "register failed: %s", body)

	var result struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	require.NotEmpty(t, result.Token)

	c.token = result.Token
	c.userID = result.User.ID
	return c
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)
	alice := register(t, ts, "alice")

	// The register token already works.
	status, body := alice.do(http.MethodGet, "/users/me", nil)
	require.Equal(t, http.StatusOK, status, "me failed: %s", body)
	var me struct {
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, "alice", me.Username)

	anon := &apiClient{t: t, server: ts}
	status, body = anon.do(http.MethodPost, "/users/login", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, status)
	var login struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		UserID  string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(body, &login))
	assert.True(t, login.Success)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, alice.userID, login.UserID)

	status, body = anon.do(http.MethodPost, "/users/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	require.NoError(t, json.Unmarshal(body, &login))
	assert.False(t, login.Success)

	// No token, no profile.
	status, _ = anon.do(http.MethodGet, "/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestFriendAndMessagingFlow(t *testing.T) {
	ts := newTestServer(t)
	alice := register(t, ts, "alice")
	bob := register(t, ts, "bob")

	// Alice asks, bob accepts.
	status, body := alice.do(http.MethodPost, "/friends/request", map[string]string{"userId": bob.userID})
	require.Equal(t, http.StatusCreated, status, "friend request failed: %s", body)

	status, body = bob.do(http.MethodGet, "/friends/requests", nil)
	require.Equal(t, http.StatusOK, status)
	var requests []struct {
		Sender struct {
			Username string `json:"username"`
		} `json:"sender"`
	}
	require.NoError(t, json.Unmarshal(body, &requests))
	require.Len(t, requests, 1)
	assert.Equal(t, "alice", requests[0].Sender.Username)

	status, body = bob.do(http.MethodPost, "/friends/accept", map[string]string{"userId": alice.userID})
	require.Equal(t, http.StatusOK, status, "accept failed: %s", body)

	status, body = alice.do(http.MethodGet, "/friends/check/"+bob.userID, nil)
	require.Equal(t, http.StatusOK, status)
	var check struct {
		IsFriend bool `json:"isFriend"`
	}
	require.NoError(t, json.Unmarshal(body, &check))
	assert.True(t, check.IsFriend)

	// Open a conversation and message through it.
	status, body = alice.do(http.MethodPost, "/messages/conversations", map[string]string{"participantId": bob.userID})
	require.Equal(t, http.StatusOK, status, "conversation failed: %s", body)
	var conv struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &conv))

	status, body = alice.do(http.MethodPost, "/messages", map[string]string{
		"conversationId": conv.ID,
		"content":        "hello bob",
	})
	require.Equal(t, http.StatusCreated, status, "send failed: %s", body)
	var message struct {
		ID       string `json:"id"`
		SenderID string `json:"senderId"`
		Content  string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(body, &message))
	assert.Equal(t, alice.userID, message.SenderID)

	// Typing signal from bob.
	status, _ = bob.do(http.MethodPost, fmt.Sprintf("/messages/conversations/%s/typing", conv.ID), map[string]bool{"isTyping": true})
	require.Equal(t, http.StatusOK, status)

	// Alice now sees bob typing on her conversation list.
	status, body = alice.do(http.MethodGet, "/messages/conversations", nil)
	require.Equal(t, http.StatusOK, status)
	var conversations []struct {
		ID          string `json:"id"`
		IsTyping    bool   `json:"isTyping"`
		LastMessage *struct {
			Content string `json:"content"`
		} `json:"lastMessage"`
	}
	require.NoError(t, json.Unmarshal(body, &conversations))
	require.Len(t, conversations, 1)
	assert.True(t, conversations[0].IsTyping)
	require.NotNil(t, conversations[0].LastMessage)
	assert.Equal(t, "hello bob", conversations[0].LastMessage.Content)

	// Bob has one unread message, reads it, then none.
	status, body = bob.do(http.MethodGet, "/messages/unread-count", nil)
	require.Equal(t, http.StatusOK, status)
	var count struct {
		Count int64 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &count))
	assert.Equal(t, int64(1), count.Count)

	status, body = bob.do(http.MethodPut, fmt.Sprintf("/messages/conversations/%s/read", conv.ID), nil)
	require.Equal(t, http.StatusOK, status)
	var receipt struct {
		MarkedRead int64 `json:"markedRead"`
	}
	require.NoError(t, json.Unmarshal(body, &receipt))
	assert.Equal(t, int64(1), receipt.MarkedRead)

	status, body = bob.do(http.MethodGet, "/messages/unread-count", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &count))
	assert.Equal(t, int64(0), count.Count)

	// Deleting the only message clears the conversation snapshot.
	status, _ = alice.do(http.MethodDelete, "/messages/"+message.ID, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = alice.do(http.MethodGet, "/messages/conversations", nil)
	require.Equal(t, http.StatusOK, status)
	// Reset before decoding: Unmarshal into the reused slice would keep the
	// stale LastMessage pointer when the response omits the field.
	conversations = nil
	require.NoError(t, json.Unmarshal(body, &conversations))
	require.Len(t, conversations, 1)
	assert.Nil(t, conversations[0].LastMessage)
}

func TestPostsAndNotifications(t *testing.T) {
	ts := newTestServer(t)
	alice := register(t, ts, "alice")
	bob := register(t, ts, "bob")

	alice.do(http.MethodPost, "/friends/request", map[string]string{"userId": bob.userID})
	bob.do(http.MethodPost, "/friends/accept", map[string]string{"userId": alice.userID})

	// Posts go up as multipart forms.
	var buf bytes.Buffer
	writer := newMultipartContent(t, &buf, "content", "first post")
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/posts", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer)
	req.Header.Set("Authorization", "Bearer "+alice.token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "post failed: %s", body)

	var post struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &post))

	// The post appears in bob's feed because they are friends.
	status, body := bob.do(http.MethodGet, "/posts/feed", nil)
	require.Equal(t, http.StatusOK, status)
	var feed []struct {
		ID      string `json:"id"`
		Content string `json:"content"`
		Author  struct {
			Username string `json:"username"`
		} `json:"author"`
	}
	require.NoError(t, json.Unmarshal(body, &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, "first post", feed[0].Content)
	assert.Equal(t, "alice", feed[0].Author.Username)

	status, body = bob.do(http.MethodPost, "/posts/"+post.ID+"/like", nil)
	require.Equal(t, http.StatusOK, status)
	var like struct {
		Liked bool `json:"liked"`
	}
	require.NoError(t, json.Unmarshal(body, &like))
	assert.True(t, like.Liked)

	status, body = bob.do(http.MethodPost, "/posts/"+post.ID+"/comments", map[string]string{"content": "great post"})
	require.Equal(t, http.StatusCreated, status, "comment failed: %s", body)

	// Notification writes are asynchronous; poll briefly.
	var notifications []struct {
		Type       string `json:"type"`
		SourceUser struct {
			Username string `json:"username"`
		} `json:"sourceUser"`
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		status, body = alice.do(http.MethodGet, "/notifications", nil)
		require.Equal(t, http.StatusOK, status)
		require.NoError(t, json.Unmarshal(body, &notifications))
		if len(notifications) >= 3 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	// Friend accept, like, and comment all landed.
	require.Len(t, notifications, 3)
	types := make(map[string]bool)
	for _, n := range notifications {
		types[n.Type] = true
		assert.Equal(t, "bob", n.SourceUser.Username)
	}
	assert.True(t, types["friend_request_accepted"])
	assert.True(t, types["like"])
	assert.True(t, types["comment"])

	status, body = alice.do(http.MethodPut, "/notifications/mark-all-read", nil)
	require.Equal(t, http.StatusOK, status)
	var marked struct {
		MarkedRead int64 `json:"markedRead"`
	}
	require.NoError(t, json.Unmarshal(body, &marked))
	assert.Equal(t, int64(3), marked.MarkedRead)

	status, body = alice.do(http.MethodGet, "/notifications/unread-count", nil)
	require.Equal(t, http.StatusOK, status)
	var unread struct {
		Count int64 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &unread))
	assert.Equal(t, int64(0), unread.Count)
}

func TestCommentInteractions(t *testing.T) {
	ts := newTestServer(t)
	alice := register(t, ts, "alice")
	bob := register(t, ts, "bob")

	var buf bytes.Buffer
	contentType := newMultipartContent(t, &buf, "content", "thread starter")
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/posts", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+alice.token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "post failed: %s", body)
	var post struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &post))

	status, body := alice.do(http.MethodPost, "/posts/"+post.ID+"/comments", map[string]string{"content": "first"})
	require.Equal(t, http.StatusCreated, status, "comment failed: %s", body)
	var comment struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &comment))

	commentPath := "/posts/" + post.ID + "/comments/" + comment.ID

	status, body = bob.do(http.MethodPost, commentPath+"/like", nil)
	require.Equal(t, http.StatusOK, status, "comment like failed: %s", body)
	var like struct {
		Liked bool     `json:"liked"`
		Likes []string `json:"likes"`
	}
	require.NoError(t, json.Unmarshal(body, &like))
	assert.True(t, like.Liked)
	assert.Contains(t, like.Likes, bob.userID)

	// A second like is rejected rather than toggled.
	status, _ = bob.do(http.MethodPost, commentPath+"/like", nil)
	require.Equal(t, http.StatusBadRequest, status)

	status, body = bob.do(http.MethodDelete, commentPath+"/like", nil)
	require.Equal(t, http.StatusOK, status, "comment unlike failed: %s", body)
	require.NoError(t, json.Unmarshal(body, &like))
	assert.False(t, like.Liked)

	status, _ = bob.do(http.MethodDelete, commentPath+"/like", nil)
	require.Equal(t, http.StatusNotFound, status)

	// Replies hang off their parent comment.
	status, body = bob.do(http.MethodPost, "/posts/"+post.ID+"/comments",
		map[string]string{"content": "a reply", "parentCommentId": comment.ID})
	require.Equal(t, http.StatusCreated, status, "reply failed: %s", body)

	status, body = alice.do(http.MethodGet, commentPath+"/replies", nil)
	require.Equal(t, http.StatusOK, status)
	var replies []struct {
		Content string `json:"content"`
		Author  struct {
			Username string `json:"username"`
		} `json:"author"`
	}
	require.NoError(t, json.Unmarshal(body, &replies))
	require.Len(t, replies, 1)
	assert.Equal(t, "a reply", replies[0].Content)
	assert.Equal(t, "bob", replies[0].Author.Username)
}

func TestPublicFriendsListing(t *testing.T) {
	ts := newTestServer(t)
	alice := register(t, ts, "alice")
	bob := register(t, ts, "bob")
	carol := register(t, ts, "carol")

	alice.do(http.MethodPost, "/friends/request", map[string]string{"userId": bob.userID})
	bob.do(http.MethodPost, "/friends/accept", map[string]string{"userId": alice.userID})

	// Anyone logged in can browse another profile's friends.
	status, body := carol.do(http.MethodGet, "/users/"+bob.userID+"/friends", nil)
	require.Equal(t, http.StatusOK, status, "friends listing failed: %s", body)
	var friends []struct {
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(body, &friends))
	require.Len(t, friends, 1)
	assert.Equal(t, "alice", friends[0].Username)

	status, _ = carol.do(http.MethodGet, "/users/"+uuid.New().String()+"/friends", nil)
	require.Equal(t, http.StatusNotFound, status)
}

// uploadMedia posts a fake image through the media endpoint.
func uploadMedia(t *testing.T, ts *httptest.Server, token string, fields map[string]string) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "photo.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("not really a png"))
	require.NoError(t, err)
	for field, value := range fields {
		require.NoError(t, writer.WriteField(field, value))
	}
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/media/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestMediaLifecycle(t *testing.T) {
	ts := newTestServer(t)
	alice := register(t, ts, "alice")
	bob := register(t, ts, "bob")

	status, body := uploadMedia(t, ts, alice.token, map[string]string{
		"type":        "post",
		"description": "sunset over the swamp",
		"tags":        "sunset, swamp",
	})
	require.Equal(t, http.StatusCreated, status, "upload failed: %s", body)
	var media struct {
		ID          string   `json:"id"`
		URL         string   `json:"url"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(body, &media))
	assert.Equal(t, "sunset over the swamp", media.Description)
	assert.Equal(t, []string{"sunset", "swamp"}, media.Tags)

	status, body = bob.do(http.MethodGet, "/media/"+media.ID, nil)
	require.Equal(t, http.StatusOK, status, "get media failed: %s", body)

	status, body = alice.do(http.MethodGet, "/media/search/tags?tags=swamp", nil)
	require.Equal(t, http.StatusOK, status)
	var found []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &found))
	require.Len(t, found, 1)
	assert.Equal(t, media.ID, found[0].ID)

	// Only the owner can edit or delete.
	status, _ = bob.do(http.MethodPut, "/media/"+media.ID, map[string]interface{}{"description": "mine now"})
	require.Equal(t, http.StatusForbidden, status)

	status, body = alice.do(http.MethodPut, "/media/"+media.ID,
		map[string]interface{}{"description": "dawn actually", "tags": []string{"dawn"}})
	require.Equal(t, http.StatusOK, status, "update failed: %s", body)
	var updated struct {
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "dawn actually", updated.Description)
	assert.Equal(t, []string{"dawn"}, updated.Tags)

	status, _ = bob.do(http.MethodDelete, "/media/"+media.ID, nil)
	require.Equal(t, http.StatusForbidden, status)

	status, _ = alice.do(http.MethodDelete, "/media/"+media.ID, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = alice.do(http.MethodGet, "/media/"+media.ID, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	anon := &apiClient{t: t, server: ts}

	status, body := anon.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)
	var health struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "connected", health.Database)
}
