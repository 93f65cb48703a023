package handlers

import (
	"log"
	"net/http"

	"swampbook/internal/api"
	"swampbook/internal/engine/actors"
	"swampbook/internal/middleware"
	"swampbook/internal/models"
	"swampbook/internal/utils"
)

// RegisterRequest represents a new account submission
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// RegisterResponse pairs the created profile with a ready-to-use token
type RegisterResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// LoginRequest represents a login submission
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a new account
func (s *Server) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}

		result, appErr := s.askActor(s.Engine.GetUserActor(), &actors.RegisterUserMsg{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
			FullName: req.FullName,
		})
		if appErr != nil {
			s.writeAppError(w, appErr)
			return
		}
		user := result.(*models.User)

		token, err := middleware.GenerateToken(user.ID)
		if err != nil {
			log.Printf("Failed to generate token for new user %s: %v", user.ID, err)
			s.writeError(w, http.StatusInternalServerError, "Failed to generate token")
			return
		}

		s.writeJSON(w, http.StatusCreated, RegisterResponse{User: user, Token: token})
	}
}

// HandleLogin authenticates a user and issues a JWT
func (s *Server) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}

		result, appErr := s.askActor(s.Engine.GetUserActor(), &actors.LoginMsg{
			Email:    req.Email,
			Password: req.Password,
		})
		if appErr != nil {
			status := utils.AppErrorToHTTPStatus(appErr.Code)
			s.Metrics.IncrementErrors()
			s.writeJSON(w, status, api.LoginResponse{Success: false, Error: appErr.Message})
			return
		}
		user := result.(*models.User)

		token, err := middleware.GenerateToken(user.ID)
		if err != nil {
			log.Printf("Failed to generate token for user %s: %v", user.ID, err)
			s.writeError(w, http.StatusInternalServerError, "Failed to generate token")
			return
		}

		s.writeJSON(w, http.StatusOK, api.LoginResponse{
			Success: true,
			Token:   token,
			UserID:  user.ID.String(),
		})
	}
}

// HandleGetUser returns another user's public profile
func (s *Server) HandleGetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetUserActor(), &actors.GetUserProfileMsg{UserID: userID}, http.StatusOK)
	}
}

// HandleGetMe returns the caller's own profile
func (s *Server) HandleGetMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		s.ask(w, s.Engine.GetUserActor(), &actors.GetUserProfileMsg{UserID: userID}, http.StatusOK)
	}
}

// HandleUpdateMe updates the caller's profile fields
func (s *Server) HandleUpdateMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}

		var update models.ProfileUpdate
		if !s.decodeJSON(w, r, &update) {
			return
		}

		s.ask(w, s.Engine.GetUserActor(), &actors.UpdateProfileMsg{
			UserID: userID,
			Update: &update,
		}, http.StatusOK)
	}
}
