package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"swampbook/internal/middleware"
)

// Router builds the full route table with CORS and JWT middleware applied.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	// Users
	r.HandleFunc("/users/register", s.HandleRegister()).Methods(http.MethodPost)
	r.HandleFunc("/users/login", s.HandleLogin()).Methods(http.MethodPost)
	r.HandleFunc("/users/me", s.HandleGetMe()).Methods(http.MethodGet)
	r.HandleFunc("/users/me", s.HandleUpdateMe()).Methods(http.MethodPut)
	r.HandleFunc("/users/{id}", s.HandleGetUser()).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/friends", s.HandleUserFriends()).Methods(http.MethodGet)

	// Friend graph
	r.HandleFunc("/friends/request", s.HandleSendFriendRequest()).Methods(http.MethodPost)
	r.HandleFunc("/friends/accept", s.HandleAcceptFriendRequest()).Methods(http.MethodPost)
	r.HandleFunc("/friends/reject", s.HandleRejectFriendRequest()).Methods(http.MethodPost)
	r.HandleFunc("/friends/list", s.HandleListFriends()).Methods(http.MethodGet)
	r.HandleFunc("/friends/requests", s.HandleListFriendRequests()).Methods(http.MethodGet)
	r.HandleFunc("/friends/search", s.HandleSearchPeople()).Methods(http.MethodGet)
	r.HandleFunc("/friends/check/{userId}", s.HandleCheckFriendship()).Methods(http.MethodGet)
	r.HandleFunc("/friends/{userId}", s.HandleRemoveFriend()).Methods(http.MethodDelete)

	// Posts and comments
	r.HandleFunc("/posts", s.HandleCreatePost()).Methods(http.MethodPost)
	r.HandleFunc("/posts/feed", s.HandleFeed()).Methods(http.MethodGet)
	r.HandleFunc("/posts/user/{id}", s.HandleUserPosts()).Methods(http.MethodGet)
	r.HandleFunc("/posts/{id}", s.HandleGetPost()).Methods(http.MethodGet)
	r.HandleFunc("/posts/{id}", s.HandleDeletePost()).Methods(http.MethodDelete)
	r.HandleFunc("/posts/{id}/like", s.HandleToggleLike()).Methods(http.MethodPost)
	r.HandleFunc("/posts/{id}/comments", s.HandleAddComment()).Methods(http.MethodPost)
	r.HandleFunc("/posts/{id}/comments", s.HandleGetComments()).Methods(http.MethodGet)
	r.HandleFunc("/posts/{id}/comments/{commentId}", s.HandleUpdateComment()).Methods(http.MethodPut)
	r.HandleFunc("/posts/{id}/comments/{commentId}", s.HandleDeleteComment()).Methods(http.MethodDelete)
	r.HandleFunc("/posts/{id}/comments/{commentId}/like", s.HandleLikeComment()).Methods(http.MethodPost)
	r.HandleFunc("/posts/{id}/comments/{commentId}/like", s.HandleUnlikeComment()).Methods(http.MethodDelete)
	r.HandleFunc("/posts/{id}/comments/{commentId}/replies", s.HandleCommentReplies()).Methods(http.MethodGet)

	// Conversations and messages
	r.HandleFunc("/messages/conversations", s.HandleCreateConversation()).Methods(http.MethodPost)
	r.HandleFunc("/messages/conversations", s.HandleListConversations()).Methods(http.MethodGet)
	r.HandleFunc("/messages/conversations/{id}", s.HandleGetConversation()).Methods(http.MethodGet)
	r.HandleFunc("/messages/conversations/{id}", s.HandleDeleteConversation()).Methods(http.MethodDelete)
	r.HandleFunc("/messages/conversations/{id}/messages", s.HandleListMessages()).Methods(http.MethodGet)
	r.HandleFunc("/messages/conversations/{id}/read", s.HandleMarkConversationRead()).Methods(http.MethodPut)
	r.HandleFunc("/messages/conversations/{id}/typing", s.HandleTyping()).Methods(http.MethodPost)
	r.HandleFunc("/messages/unread-count", s.HandleUnreadMessageCount()).Methods(http.MethodGet)
	r.HandleFunc("/messages/search", s.HandleSearchMessages()).Methods(http.MethodGet)
	r.HandleFunc("/messages", s.HandleSendMessage()).Methods(http.MethodPost)
	r.HandleFunc("/messages/{id}", s.HandleDeleteMessage()).Methods(http.MethodDelete)

	// Notifications
	r.HandleFunc("/notifications", s.HandleListNotifications()).Methods(http.MethodGet)
	r.HandleFunc("/notifications/mark-all-read", s.HandleMarkAllNotificationsRead()).Methods(http.MethodPut)
	r.HandleFunc("/notifications/unread-count", s.HandleUnreadNotificationCount()).Methods(http.MethodGet)
	r.HandleFunc("/notifications/{id}/read", s.HandleMarkNotificationRead()).Methods(http.MethodPut)
	r.HandleFunc("/notifications/{id}", s.HandleDeleteNotification()).Methods(http.MethodDelete)

	// Media
	r.HandleFunc("/media/upload", s.HandleUploadMedia()).Methods(http.MethodPost)
	r.HandleFunc("/media/user/{id}", s.HandleUserMedia()).Methods(http.MethodGet)
	r.HandleFunc("/media/search/tags", s.HandleSearchMediaByTags()).Methods(http.MethodGet)
	r.HandleFunc("/media/{id}", s.HandleGetMedia()).Methods(http.MethodGet)
	r.HandleFunc("/media/{id}", s.HandleUpdateMedia()).Methods(http.MethodPut)
	r.HandleFunc("/media/{id}", s.HandleDeleteMedia()).Methods(http.MethodDelete)
	r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(s.Config.Server.UploadDir))))

	// Realtime and ops
	r.HandleFunc("/ws", s.HandleWebSocket()).Methods(http.MethodGet)
	r.HandleFunc("/health", s.HandleHealth()).Methods(http.MethodGet)

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			s.Metrics.IncrementRequests()
			next.ServeHTTP(w, req)
		})
	})
	r.Use(middleware.AuthMiddleware)

	cors := middleware.CORSMiddleware(middleware.DefaultCORSConfig(s.Config.AllowedOrigins))
	return cors(r)
}
