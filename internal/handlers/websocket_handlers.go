package handlers

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"

	"swampbook/internal/engine/actors"
	"swampbook/internal/middleware"
	"swampbook/internal/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin filtering happens in the CORS layer; the upgrade accepts
		// whatever carries a valid token.
		return true
	},
}

// HandleWebSocket upgrades an authenticated request to a websocket and
// registers it with the hub. Browsers cannot set headers on websocket
// requests, so the JWT arrives as a query parameter.
func (s *Server) HandleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			s.writeError(w, http.StatusUnauthorized, "Missing authentication token")
			return
		}

		claims, err := middleware.ValidateToken(tokenString)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		userID := claims.UserID
		if userID == uuid.Nil {
			s.writeError(w, http.StatusUnauthorized, "Invalid user ID in token")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for user %s: %v", userID, err)
			return
		}

		client := &websocket.Client{
			Hub:    s.Hub,
			UserID: userID,
			Conn:   conn,
			Send:   make(chan []byte, 256),
		}
		client.Hub.Register <- client

		s.Context.Send(s.Engine.GetUserActor(), &actors.UpdateActivityMsg{UserID: userID, IsOnline: true})

		go client.WritePump()
		go client.ReadPump()
	}
}
