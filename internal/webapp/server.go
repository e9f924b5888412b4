// Package webapp serves the small HTTP surface the connect-Upwork flow
// posts to: saving or clearing the session credential blob and choosing a
// notification mode. These are plain mutations on the user record.
package webapp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/warnigo/upwork-job-notifier-bot/internal/model"
)

// SessionService is the slice of the user service the web surface needs.
type SessionService interface {
	SaveSession(userID, cookies, sessionID string) error
	ClearSession(userID string) error
	SetNotificationMode(userID string, mode model.NotificationMode) error
}

// Server handles the session endpoints.
type Server struct {
	users  SessionService
	mux    *http.ServeMux
	logger *slog.Logger
}

// New creates the web server and registers its routes.
func New(users SessionService, logger *slog.Logger) *Server {
	s := &Server{users: users, mux: http.NewServeMux(), logger: logger}
	s.routes()
	return s
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}
	go func() {
		<-ctx.Done()
		_ = httpSrv.Shutdown(context.Background())
	}()
	s.logger.Info("webapp listening", "addr", addr)
	return httpSrv.ListenAndServe()
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	s.mux.HandleFunc("POST /api/session/save", s.handleSaveSession)
	s.mux.HandleFunc("POST /api/session/clear", s.handleClearSession)
	s.mux.HandleFunc("POST /api/preference", s.handleSetPreference)
}

type saveSessionRequest struct {
	UserID    string `json:"user_id"`
	Cookies   string `json:"cookies"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	var req saveSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Cookies == "" {
		http.Error(w, "user_id and cookies required", http.StatusBadRequest)
		return
	}

	if err := s.users.SaveSession(req.UserID, req.Cookies, req.SessionID); err != nil {
		s.logger.Error("saving session failed", "user", req.UserID, "error", err)
		http.Error(w, "saving session failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"connected": true})
}

type userRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}

	if err := s.users.ClearSession(req.UserID); err != nil {
		s.logger.Error("clearing session failed", "user", req.UserID, "error", err)
		http.Error(w, "clearing session failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"connected": false})
}

type preferenceRequest struct {
	UserID string `json:"user_id"`
	Mode   string `json:"mode"`
}

func (s *Server) handleSetPreference(w http.ResponseWriter, r *http.Request) {
	var req preferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}

	if err := s.users.SetNotificationMode(req.UserID, model.NotificationMode(req.Mode)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mode": req.Mode})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.mux }
