package handlers

import (
	"net/http"

	"swampbook/internal/engine/actors"
)

// HandleListNotifications returns the caller's notifications, newest first
func (s *Server) HandleListNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetNotificationActor(), &actors.ListNotificationsMsg{UserID: userID}, http.StatusOK)
	}
}

// HandleMarkNotificationRead marks one notification as read
func (s *Server) HandleMarkNotificationRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		notificationID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetNotificationActor(), &actors.MarkNotificationReadMsg{
			UserID:         userID,
			NotificationID: notificationID,
		}, http.StatusOK)
	}
}

// HandleMarkAllNotificationsRead marks every unread notification
func (s *Server) HandleMarkAllNotificationsRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetNotificationActor(), &actors.MarkAllNotificationsReadMsg{UserID: userID}, http.StatusOK)
	}
}

// HandleDeleteNotification removes one of the caller's notifications
func (s *Server) HandleDeleteNotification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		notificationID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetNotificationActor(), &actors.DeleteNotificationMsg{
			UserID:         userID,
			NotificationID: notificationID,
		}, http.StatusOK)
	}
}

// HandleUnreadNotificationCount counts the caller's unread notifications
func (s *Server) HandleUnreadNotificationCount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetNotificationActor(), &actors.UnreadNotificationCountMsg{UserID: userID}, http.StatusOK)
	}
}
