package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversToEveryConnection(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	userID := uuid.New()
	other := uuid.New()

	laptop := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, 4)}
	phone := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, 4)}
	stranger := &Client{Hub: hub, UserID: other, Send: make(chan []byte, 4)}

	hub.Register <- laptop
	hub.Register <- phone
	hub.Register <- stranger

	waitFor(t, func() bool { return hub.IsOnline(userID) && hub.IsOnline(other) })

	hub.PushToUser(userID, "notification", map[string]string{"content": "hello"})

	for _, client := range []*Client{laptop, phone} {
		select {
		case raw := <-client.Send:
			var event Event
			require.NoError(t, json.Unmarshal(raw, &event))
			assert.Equal(t, "notification", event.Type)
		case <-time.After(2 * time.Second):
			t.Fatal("push never reached a connection")
		}
	}

	select {
	case <-stranger.Send:
		t.Fatal("push leaked to another user")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	userID := uuid.New()
	client := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, 4)}

	hub.Register <- client
	waitFor(t, func() bool { return hub.IsOnline(userID) })

	hub.Unregister <- client
	waitFor(t, func() bool { return !hub.IsOnline(userID) })

	// Pushing to an offline user is a no-op, not a panic.
	hub.PushToUser(userID, "message", map[string]string{"content": "void"})
}

func TestHubReportsLastDisconnect(t *testing.T) {
	hub := NewHub()
	offline := make(chan uuid.UUID, 2)
	hub.OnUserOffline = func(userID uuid.UUID) { offline <- userID }
	go hub.Run()

	userID := uuid.New()
	laptop := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, 4)}
	phone := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, 4)}

	hub.Register <- laptop
	hub.Register <- phone
	waitFor(t, func() bool { return hub.IsOnline(userID) })

	// Closing one of two connections leaves the user online.
	hub.Unregister <- laptop
	select {
	case <-offline:
		t.Fatal("offline reported while a connection remains")
	case <-time.After(50 * time.Millisecond):
	}
	assert.True(t, hub.IsOnline(userID))

	hub.Unregister <- phone
	select {
	case id := <-offline:
		assert.Equal(t, userID, id)
	case <-time.After(2 * time.Second):
		t.Fatal("last disconnect never reported")
	}
	assert.False(t, hub.IsOnline(userID))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}
