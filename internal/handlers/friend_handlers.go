package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"swampbook/internal/engine/actors"
)

// FriendRequestBody names the other user of a friend-graph operation
type FriendRequestBody struct {
	UserID string `json:"userId"`
}

func (s *Server) decodeFriendBody(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var req FriendRequestBody
	if !s.decodeJSON(w, r, &req) {
		return uuid.Nil, false
	}
	otherID, err := uuid.Parse(req.UserID)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid userId")
		return uuid.Nil, false
	}
	return otherID, true
}

// HandleSendFriendRequest sends a friend request to another user
func (s *Server) HandleSendFriendRequest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		recipientID, ok := s.decodeFriendBody(w, r)
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetFriendActor(), &actors.SendFriendRequestMsg{
			SenderID:    userID,
			RecipientID: recipientID,
		}, http.StatusCreated)
	}
}

// HandleAcceptFriendRequest accepts a pending request from the named user
func (s *Server) HandleAcceptFriendRequest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		senderID, ok := s.decodeFriendBody(w, r)
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetFriendActor(), &actors.AcceptFriendRequestMsg{
			RecipientID: userID,
			SenderID:    senderID,
		}, http.StatusOK)
	}
}

// HandleRejectFriendRequest declines a pending request from the named user
func (s *Server) HandleRejectFriendRequest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		senderID, ok := s.decodeFriendBody(w, r)
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetFriendActor(), &actors.RejectFriendRequestMsg{
			RecipientID: userID,
			SenderID:    senderID,
		}, http.StatusOK)
	}
}

// HandleRemoveFriend ends a friendship
func (s *Server) HandleRemoveFriend() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		friendID, ok := s.pathUUID(w, r, "userId")
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetFriendActor(), &actors.RemoveFriendMsg{
			UserID:   userID,
			FriendID: friendID,
		}, http.StatusOK)
	}
}

// HandleListFriends returns the caller's friends as summaries
func (s *Server) HandleListFriends() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetFriendActor(), &actors.ListFriendsMsg{UserID: userID}, http.StatusOK)
	}
}

// HandleUserFriends returns another user's friends for their public profile
func (s *Server) HandleUserFriends() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetFriendActor(), &actors.ListFriendsMsg{UserID: userID}, http.StatusOK)
	}
}

// HandleListFriendRequests returns pending requests awaiting the caller
func (s *Server) HandleListFriendRequests() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetFriendActor(), &actors.ListFriendRequestsMsg{UserID: userID}, http.StatusOK)
	}
}

// HandleCheckFriendship reports the relationship between the caller and
// another user
func (s *Server) HandleCheckFriendship() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		otherID, ok := s.pathUUID(w, r, "userId")
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetFriendActor(), &actors.CheckFriendshipMsg{
			UserID:  userID,
			OtherID: otherID,
		}, http.StatusOK)
	}
}

// HandleSearchPeople finds users the caller could befriend
func (s *Server) HandleSearchPeople() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetFriendActor(), &actors.SearchPeopleMsg{
			UserID: userID,
			Query:  r.URL.Query().Get("q"),
		}, http.StatusOK)
	}
}
