package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/donmccasland/gdc-gemini-munich-demo/api/schemas"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/chat"
)

// handleListReports returns the listing view: headline stats plus one row
// per report. Visiting it moves the session to the listing page, which
// (re)arms the background refresher.
func (s *Server[R]) handleListReports(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.SetPage(schemas.PageReportSelection)

	records := sess.Store().GetAll()
	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, s.adapter.Row(rec))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID(),
		"page":       sess.Page(),
		"stats":      s.adapter.Stats(records),
		"reports":    rows,
	})
}

// handleGetReport opens one report: marks it selected, moves the session to
// the detail view and returns the record plus its rendered document.
func (s *Server[R]) handleGetReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	rec, found := sess.Store().GetByID(id)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("report %s not found", id))
		return
	}
	sess.Select(id)

	markdown, err := s.adapter.Render(rec)
	if err != nil {
		s.log.Error("Report rendering failed", zap.String("report_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID(),
		"page":       sess.Page(),
		"report":     rec,
		"markdown":   markdown,
	})
}

func (s *Server[R]) handleSetPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Page schemas.Page `json:"page"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !schemas.ValidPage(req.Page) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown page %q", req.Page))
		return
	}

	sess.SetPage(req.Page)
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID(),
		"page":       sess.Page(),
	})
}

// handleReset shrinks the session's backlog back to the configured sample
// of the seed population.
func (s *Server[R]) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := sess.ResetBacklog(); err != nil {
		s.log.Error("Backlog reset failed", zap.String("session_id", sess.ID()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to reset reports")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID(),
		"size":       sess.Store().Len(),
	})
}

func (s *Server[R]) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := sess.Logout(); err != nil {
		s.log.Error("Logout failed", zap.String("session_id", sess.ID()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to log out")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID(),
		"page":       sess.Page(),
		"size":       sess.Store().Len(),
	})
}

// handleQuestions returns the canned question set for the session's current
// page; a page query parameter overrides it.
func (s *Server[R]) handleQuestions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	page := sess.Page()
	if p := schemas.Page(r.URL.Query().Get("page")); p != "" {
		if !schemas.ValidPage(p) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown page %q", p))
			return
		}
		page = p
	}

	questions := chat.PredefinedQuestions(page)
	if questions == nil {
		questions = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page":      page,
		"questions": questions,
	})
}
