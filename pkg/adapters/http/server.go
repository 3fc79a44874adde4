package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/go-chi/chi/v5"
)

// Server exposes a ports.Executor over the HTTP protocol.
type Server struct {
	Executor ports.Executor
	Logger   *slog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the logger used for request failures.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates a new HTTP handler for the executor.
func NewHandler(executor ports.Executor, opts ...ServerOption) http.Handler {
	server := &Server{
		Executor: executor,
		Logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Post(PathSession, server.OpenSession)
	r.Delete(PathSession+"/{id}", server.ReleaseSession)
	r.Post(PathQuery, server.Query)
	r.Get(PathHealth, server.GetHealth)
	return r
}

// OpenSession handles POST /session.
func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	var hello domain.Handshake
	if err := json.NewDecoder(r.Body).Decode(&hello); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("OpenSession: invalid request body", "error", err)
		return
	}
	hello.Credentials = bearer(r)

	welcome, err := s.Executor.Open(r.Context(), hello)
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, domain.ErrUnauthorized) {
			status = http.StatusUnauthorized
		}
		http.Error(w, err.Error(), status)
		s.Logger.Warn("OpenSession failed", "error", err)
		return
	}

	writeJSON(w, s.Logger, http.StatusOK, welcome)
}

// ReleaseSession handles DELETE /session/{id}.
func (s *Server) ReleaseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Executor.Release(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Query handles POST /query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req domain.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("Query: invalid request body", "error", err)
		return
	}
	if header := r.Header.Get(HeaderSession); header != "" {
		req.Session = header
	}

	resp := s.Executor.Execute(r.Context(), &req)
	writeJSON(w, s.Logger, http.StatusOK, resp)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Logger, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}

func bearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
