// Package dashboard exposes the report store, the navigation state and the
// chat assistant over a JSON HTTP API. Front-ends attach to a session via
// the X-Session-ID header; a blank header mints a new session.
package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/donmccasland/gdc-gemini-munich-demo/api/schemas"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/chat"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/session"
)

// SessionHeader carries the session id on every request and response.
const SessionHeader = "X-Session-ID"

// Server serves the dashboard API for one record shape.
type Server[R schemas.Record] struct {
	sessions  *session.Manager[R]
	assistant *chat.Assistant
	adapter   Adapter[R]
	log       *zap.Logger
	router    *mux.Router
}

// NewServer wires the API routes for the given session manager and adapter.
func NewServer[R schemas.Record](sessions *session.Manager[R], assistant *chat.Assistant, adapter Adapter[R], logger *zap.Logger) *Server[R] {
	s := &Server[R]{
		sessions:  sessions,
		assistant: assistant,
		adapter:   adapter,
		log:       logger.Named("dashboard"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server[R]) Handler() http.Handler { return s.router }

func (s *Server[R]) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/reports", s.handleListReports).Methods(http.MethodGet)
	api.HandleFunc("/reports/{id}", s.handleGetReport).Methods(http.MethodGet)
	api.HandleFunc("/page", s.handleSetPage).Methods(http.MethodPost)
	api.HandleFunc("/reset", s.handleReset).Methods(http.MethodPost)
	api.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	api.HandleFunc("/questions", s.handleQuestions).Methods(http.MethodGet)
	return r
}

// session resolves (or creates) the request's session and echoes its id on
// the response. A false return means the error response was already written.
func (s *Server[R]) session(w http.ResponseWriter, r *http.Request) (*session.Session[R], bool) {
	sess, err := s.sessions.GetOrCreate(r.Header.Get(SessionHeader))
	if err != nil {
		s.log.Error("Session resolution failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to initialize session")
		return nil, false
	}
	w.Header().Set(SessionHeader, sess.ID())
	return sess, true
}

func (s *Server[R]) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
