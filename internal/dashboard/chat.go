package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/donmccasland/gdc-gemini-munich-demo/api/schemas"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/chat"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/session"
)

type chatRequest struct {
	Query string `json:"query"`
}

// chatEvent is one server-sent event of the assistant stream. Delta events
// carry raw text chunks; the final event carries the full answer with
// report ids rewritten into dashboard links.
type chatEvent struct {
	Delta  string `json:"delta,omitempty"`
	Answer string `json:"answer,omitempty"`
	Error  string `json:"error,omitempty"`
	Done   bool   `json:"done,omitempty"`
}

// handleChat answers one question about the session's visible data. The
// reply is streamed as server-sent events when the connection supports
// flushing, and returned as a single JSON document otherwise.
func (s *Server[R]) handleChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	chatReq, err := s.buildChatRequest(sess, req.Query)
	if err != nil {
		s.log.Error("Chat context assembly failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to assemble chat context")
		return
	}

	flusher, streaming := w.(http.Flusher)
	if streaming {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()
	}

	onChunk := func(chunk string) error {
		if !streaming {
			return nil
		}
		return writeEvent(w, flusher, chatEvent{Delta: chunk})
	}

	answer, err := s.assistant.Ask(r.Context(), chatReq, onChunk)
	if err != nil {
		s.log.Error("Chat generation failed", zap.String("session_id", sess.ID()), zap.Error(err))
		if streaming {
			_ = writeEvent(w, flusher, chatEvent{Error: "generation failed", Done: true})
		} else {
			writeError(w, http.StatusBadGateway, "generation failed")
		}
		return
	}

	sess.AppendTurn(req.Query, answer)

	if streaming {
		_ = writeEvent(w, flusher, chatEvent{Answer: answer, Done: true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID(),
		"answer":     answer,
	})
}

// buildChatRequest attaches the visible data: the opened report on the
// detail view, the whole collection everywhere else.
func (s *Server[R]) buildChatRequest(sess *session.Session[R], query string) (chat.Request, error) {
	page := sess.Page()

	var attached any = sess.Store().GetAll()
	if page == schemas.PageReportView {
		if rec, found := sess.Store().GetByID(sess.SelectedID()); found {
			attached = rec
		}
	}

	data, err := json.Marshal(attached)
	if err != nil {
		return chat.Request{}, fmt.Errorf("marshal attached data: %w", err)
	}

	idSet := sess.Store().GetIDs()
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	return chat.Request{
		Page:         page,
		AttachedJSON: string(data),
		History:      sess.History(),
		Query:        query,
		KnownIDs:     ids,
	}, nil
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, ev chatEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
