package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthResponse is the /health body
type HealthResponse struct {
	Status     string      `json:"status"`
	Database   string      `json:"database"`
	ServerTime time.Time   `json:"serverTime"`
	Metrics    interface{} `json:"metrics,omitempty"`
}

// HandleHealth reports process and database health, plus request metrics
// when enabled.
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := HealthResponse{
			Status:     "healthy",
			Database:   "connected",
			ServerTime: time.Now(),
		}
		status := http.StatusOK
		if err := s.Store.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
		if s.Config.Server.MetricsEnabled {
			resp.Metrics = s.Metrics.Snapshot()
		}

		s.writeJSON(w, status, resp)
	}
}
