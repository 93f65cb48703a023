package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"swampbook/internal/engine/actors"
)

// CreateConversationRequest opens (or returns) the conversation with another
// user
type CreateConversationRequest struct {
	ParticipantID string `json:"participantId"`
}

// SendMessageRequest represents a message submission
type SendMessageRequest struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
}

// TypingRequest signals the caller started or stopped typing
type TypingRequest struct {
	IsTyping bool `json:"isTyping"`
}

// HandleCreateConversation opens a conversation with another user. Repeats
// for the same pair return the existing conversation.
func (s *Server) HandleCreateConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}

		var req CreateConversationRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		participantID, err := uuid.Parse(req.ParticipantID)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid participantId")
			return
		}

		s.ask(w, s.Engine.GetChatActor(), &actors.CreateConversationMsg{
			UserID:        userID,
			ParticipantID: participantID,
		}, http.StatusOK)
	}
}

// HandleListConversations returns the caller's conversations, most recent
// activity first
func (s *Server) HandleListConversations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetChatActor(), &actors.ListConversationsMsg{UserID: userID}, http.StatusOK)
	}
}

// HandleGetConversation returns one conversation with its full history
func (s *Server) HandleGetConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		conversationID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetChatActor(), &actors.GetConversationMsg{
			UserID:         userID,
			ConversationID: conversationID,
		}, http.StatusOK)
	}
}

// HandleListMessages returns a conversation's messages oldest first
func (s *Server) HandleListMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		conversationID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetChatActor(), &actors.ListMessagesMsg{
			UserID:         userID,
			ConversationID: conversationID,
		}, http.StatusOK)
	}
}

// HandleSendMessage posts a message into a conversation
func (s *Server) HandleSendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}

		var req SendMessageRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		conversationID, err := uuid.Parse(req.ConversationID)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid conversationId")
			return
		}

		s.ask(w, s.Engine.GetChatActor(), &actors.SendMessageMsg{
			SenderID:       userID,
			ConversationID: conversationID,
			Content:        req.Content,
		}, http.StatusCreated)
	}
}

// HandleMarkConversationRead marks everything the caller has not yet read
func (s *Server) HandleMarkConversationRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		conversationID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetChatActor(), &actors.MarkConversationReadMsg{
			UserID:         userID,
			ConversationID: conversationID,
		}, http.StatusOK)
	}
}

// HandleTyping relays a typing signal to the other participant
func (s *Server) HandleTyping() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		conversationID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}

		var req TypingRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}

		s.ask(w, s.Engine.GetChatActor(), &actors.SetTypingMsg{
			UserID:         userID,
			ConversationID: conversationID,
			IsTyping:       req.IsTyping,
		}, http.StatusOK)
	}
}

// HandleDeleteConversation removes a conversation and everything in it
func (s *Server) HandleDeleteConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		conversationID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetChatActor(), &actors.DeleteConversationMsg{
			UserID:         userID,
			ConversationID: conversationID,
		}, http.StatusOK)
	}
}

// HandleDeleteMessage removes one of the caller's own messages
func (s *Server) HandleDeleteMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		messageID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetChatActor(), &actors.DeleteMessageMsg{
			UserID:    userID,
			MessageID: messageID,
		}, http.StatusOK)
	}
}

// HandleUnreadMessageCount counts unread messages addressed to the caller
func (s *Server) HandleUnreadMessageCount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetChatActor(), &actors.GetUnreadMessageCountMsg{UserID: userID}, http.StatusOK)
	}
}

// HandleSearchMessages searches the caller's message history
func (s *Server) HandleSearchMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetChatActor(), &actors.SearchMessagesMsg{
			UserID: userID,
			Query:  r.URL.Query().Get("query"),
		}, http.StatusOK)
	}
}
