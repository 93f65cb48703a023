package handlers

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"swampbook/internal/engine/actors"
)

// CommentRequest represents a comment submission
type CommentRequest struct {
	Content         string `json:"content"`
	ParentCommentID string `json:"parentCommentId,omitempty"`
}

// HandleCreatePost creates a post from a multipart form: a content field
// plus an optional image file.
func (s *Server) HandleCreatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}

		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}
		content := r.FormValue("content")

		imageURL := ""
		if file, header, err := r.FormFile("image"); err == nil {
			defer file.Close()
			url, appErr := s.storeUpload(file, header, "posts")
			if appErr != nil {
				s.writeAppError(w, appErr)
				return
			}
			imageURL = url
		}

		s.ask(w, s.Engine.GetPostActor(), &actors.CreatePostMsg{
			UserID:   userID,
			Content:  content,
			ImageURL: imageURL,
		}, http.StatusCreated)
	}
}

// HandleFeed returns recent posts by the caller and their friends
func (s *Server) HandleFeed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetPostActor(), &actors.GetFeedMsg{UserID: userID}, http.StatusOK)
	}
}

// HandleUserPosts returns every post by one user
func (s *Server) HandleUserPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetPostActor(), &actors.GetUserPostsMsg{UserID: userID}, http.StatusOK)
	}
}

// HandleGetPost returns a single post
func (s *Server) HandleGetPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetPostActor(), &actors.GetPostMsg{PostID: postID}, http.StatusOK)
	}
}

// HandleDeletePost removes the caller's post and its image file
func (s *Server) HandleDeletePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		postID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}

		result, appErr := s.askActor(s.Engine.GetPostActor(), &actors.DeletePostMsg{
			UserID: userID,
			PostID: postID,
		})
		if appErr != nil {
			s.writeAppError(w, appErr)
			return
		}

		if deleted, ok := result.(*actors.DeletedPost); ok && deleted.ImageURL != "" {
			s.removeUpload(deleted.ImageURL)
		}
		s.writeJSON(w, http.StatusOK, result)
	}
}

// HandleToggleLike flips the caller's like on a post
func (s *Server) HandleToggleLike() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		postID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetPostActor(), &actors.ToggleLikeMsg{
			UserID: userID,
			PostID: postID,
		}, http.StatusOK)
	}
}

// HandleAddComment appends a comment to a post
func (s *Server) HandleAddComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		postID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}

		var req CommentRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		var parentID *uuid.UUID
		if strings.TrimSpace(req.ParentCommentID) != "" {
			parsed, err := uuid.Parse(req.ParentCommentID)
			if err != nil {
				s.writeError(w, http.StatusBadRequest, "Invalid parentCommentId")
				return
			}
			parentID = &parsed
		}

		s.ask(w, s.Engine.GetPostActor(), &actors.AddCommentMsg{
			UserID:          userID,
			PostID:          postID,
			Content:         req.Content,
			ParentCommentID: parentID,
		}, http.StatusCreated)
	}
}

// HandleGetComments returns a post's comments
func (s *Server) HandleGetComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetPostActor(), &actors.GetCommentsMsg{PostID: postID}, http.StatusOK)
	}
}

// HandleUpdateComment edits the caller's comment
func (s *Server) HandleUpdateComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		postID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		commentID, ok := s.pathUUID(w, r, "commentId")
		if !ok {
			return
		}

		var req CommentRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}

		s.ask(w, s.Engine.GetPostActor(), &actors.UpdateCommentMsg{
			UserID:    userID,
			PostID:    postID,
			CommentID: commentID,
			Content:   req.Content,
		}, http.StatusOK)
	}
}

// HandleDeleteComment removes the caller's comment
func (s *Server) HandleDeleteComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		postID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		commentID, ok := s.pathUUID(w, r, "commentId")
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetPostActor(), &actors.DeleteCommentMsg{
			UserID:    userID,
			PostID:    postID,
			CommentID: commentID,
		}, http.StatusOK)
	}
}

// HandleLikeComment records the caller's like on a comment
func (s *Server) HandleLikeComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		postID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		commentID, ok := s.pathUUID(w, r, "commentId")
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetPostActor(), &actors.LikeCommentMsg{
			UserID:    userID,
			PostID:    postID,
			CommentID: commentID,
		}, http.StatusOK)
	}
}

// HandleUnlikeComment removes the caller's like from a comment
func (s *Server) HandleUnlikeComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		postID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		commentID, ok := s.pathUUID(w, r, "commentId")
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetPostActor(), &actors.UnlikeCommentMsg{
			UserID:    userID,
			PostID:    postID,
			CommentID: commentID,
		}, http.StatusOK)
	}
}

// HandleCommentReplies returns the replies nested under one comment
func (s *Server) HandleCommentReplies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		commentID, ok := s.pathUUID(w, r, "commentId")
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetPostActor(), &actors.GetCommentRepliesMsg{
			PostID:    postID,
			CommentID: commentID,
		}, http.StatusOK)
	}
}

// removeUpload deletes a stored file given its public /uploads/ URL.
func (s *Server) removeUpload(url string) {
	rel := strings.TrimPrefix(url, "/uploads/")
	if rel == url || strings.Contains(rel, "..") {
		return
	}
	path := filepath.Join(s.Config.Server.UploadDir, filepath.FromSlash(rel))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to remove upload %s: %v", path, err)
	}
}
