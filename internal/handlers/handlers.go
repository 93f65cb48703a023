package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"swampbook/internal/config"
	"swampbook/internal/database"
	"swampbook/internal/engine"
	"swampbook/internal/middleware"
	"swampbook/internal/utils"
	"swampbook/internal/websocket"
)

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Metrics        *utils.MetricsCollector
	Store          database.Store
	Hub            *websocket.Hub
	Config         *config.Config
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	context *actor.RootContext,
	eng *engine.Engine,
	metrics *utils.MetricsCollector,
	store database.Store,
	hub *websocket.Hub,
	cfg *config.Config,
) *Server {
	return &Server{
		System:         system,
		Context:        context,
		Engine:         eng,
		Metrics:        metrics,
		Store:          store,
		Hub:            hub,
		Config:         cfg,
		RequestTimeout: 5 * time.Second, // Default timeout for actor requests
	}
}

// errorResponse is the JSON body every failed request gets.
type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.Metrics.IncrementErrors()
	s.writeJSON(w, status, errorResponse{Message: message})
}

func (s *Server) writeAppError(w http.ResponseWriter, appErr *utils.AppError) {
	s.Metrics.IncrementErrors()
	s.writeJSON(w, utils.AppErrorToHTTPStatus(appErr.Code), errorResponse{
		Message: appErr.Message,
		Code:    appErr.Code,
	})
}

// askActor sends msg to the actor and waits for its reply. A timeout comes
// back as an AppError like every other failure.
func (s *Server) askActor(pid *actor.PID, msg interface{}) (interface{}, *utils.AppError) {
	future := s.Context.RequestFuture(pid, msg, s.RequestTimeout)
	result, err := future.Result()
	if err != nil {
		log.Printf("Actor request failed: %v", err)
		return nil, utils.NewActorTimeoutError("request")
	}
	if appErr, ok := result.(*utils.AppError); ok {
		return nil, appErr
	}
	return result, nil
}

// ask sends msg, then writes either the payload or the error.
func (s *Server) ask(w http.ResponseWriter, pid *actor.PID, msg interface{}, status int) {
	result, appErr := s.askActor(pid, msg)
	if appErr != nil {
		s.writeAppError(w, appErr)
		return
	}
	s.writeJSON(w, status, result)
}

// callerID pulls the authenticated user out of the request context.
func (s *Server) callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

// pathUUID parses a uuid path variable, writing a 400 when it is malformed.
func (s *Server) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// decodeJSON reads the request body into dst, writing a 400 on garbage.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
