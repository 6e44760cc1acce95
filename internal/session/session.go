// Package session owns per-user dashboard state: the report store, the
// active page, the selected report, the conversation history and the
// background refresher. State is process-local and dies with the session.
package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/donmccasland/gdc-gemini-munich-demo/api/schemas"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/scheduler"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/store"
)

// Session is one user's dashboard state. Exactly one live instance backs a
// session id for its whole lifetime; handlers re-attach to it on every
// request instead of rebuilding it.
type Session[R schemas.Record] struct {
	id  string
	mgr *Manager[R]

	mu         sync.Mutex
	store      *store.Store[R]
	page       schemas.Page
	selectedID string
	history    []schemas.ChatMessage
	refresher  *scheduler.Refresher[R]
	log        *zap.Logger
}

// ID returns the session identifier.
func (s *Session[R]) ID() string { return s.id }

// Store returns the session's report store.
func (s *Session[R]) Store() *store.Store[R] { return s.store }

// Page returns the currently active page.
func (s *Session[R]) Page() schemas.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// SelectedID returns the id of the currently opened report, if any.
func (s *Session[R]) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

// Select marks a report as opened and moves the session to the report view.
func (s *Session[R]) Select(id string) {
	s.mu.Lock()
	s.selectedID = id
	s.mu.Unlock()
	s.SetPage(schemas.PageReportView)
}

// SetPage navigates the session. Leaving the listing view stops the
// refresher immediately; entering it starts a fresh one, since a stopped
// refresher never resumes.
func (s *Session[R]) SetPage(page schemas.Page) {
	s.mu.Lock()
	if s.page == page {
		s.mu.Unlock()
		return
	}
	s.page = page
	if page != schemas.PageReportView {
		s.selectedID = ""
	}
	old := s.refresher
	s.refresher = nil
	if page == schemas.PageReportSelection {
		s.refresher = s.newRefresherLocked()
	}
	fresh := s.refresher
	s.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	if fresh != nil {
		fresh.Start(s.mgr.ctx)
	}
}

// History returns a copy of the conversation so far.
func (s *Session[R]) History() []schemas.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schemas.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// AppendTurn records one user/assistant exchange, trimming the history to
// the configured limit from the front.
func (s *Session[R]) AppendTurn(user, assistant string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history,
		schemas.ChatMessage{Role: schemas.RoleUser, Content: user},
		schemas.ChatMessage{Role: schemas.RoleAssistant, Content: assistant},
	)
	if limit := s.mgr.historyLimit; limit > 0 && len(s.history) > limit {
		s.history = s.history[len(s.history)-limit:]
	}
}

// ResetBacklog shrinks the collection back to a sample of the seed
// population, discarding synthetic growth.
func (s *Session[R]) ResetBacklog() error {
	return s.store.ShrinkTo(s.mgr.resetSize)
}

// Logout shrinks the backlog, clears the conversation and returns the
// session to the listing view.
func (s *Session[R]) Logout() error {
	s.mu.Lock()
	s.history = nil
	s.selectedID = ""
	s.mu.Unlock()

	if err := s.store.ShrinkTo(s.mgr.resetSize); err != nil {
		return err
	}
	s.SetPage(schemas.PageReportSelection)
	return nil
}

// newRefresherLocked builds a refresher bound to this session. Caller holds
// s.mu.
func (s *Session[R]) newRefresherLocked() *scheduler.Refresher[R] {
	opts := s.mgr.refreshOpts
	if notify := s.mgr.notify; notify != nil {
		id := s.id
		opts.Notify = func(recordID string) { notify(id, recordID) }
	}
	return scheduler.New(s.store, s.Page, opts, s.log)
}

// stop halts background work without touching state. Used on teardown.
func (s *Session[R]) stop() {
	s.mu.Lock()
	r := s.refresher
	s.refresher = nil
	s.mu.Unlock()
	if r != nil {
		r.Stop()
	}
}
