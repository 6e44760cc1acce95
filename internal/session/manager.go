package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/donmccasland/gdc-gemini-munich-demo/api/schemas"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/scheduler"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/store"
)

// StoreFactory builds the report store backing a new session.
type StoreFactory[R schemas.Record] func(ctx context.Context) (*store.Store[R], error)

// Options configure a Manager.
type Options struct {
	// ResetSize is the target size for reset-backlog and logout.
	ResetSize int
	// HistoryLimit bounds the stored conversation length; 0 is unlimited.
	HistoryLimit int
	// Refresh configures each session's background refresher.
	Refresh scheduler.Options
	// Notify, when set, receives (sessionID, recordID) for every appended
	// record.
	Notify func(sessionID, recordID string)
}

// Manager owns every live session. Handlers resolve their session through
// it instead of reaching for ambient globals.
type Manager[R schemas.Record] struct {
	ctx          context.Context
	factory      StoreFactory[R]
	refreshOpts  scheduler.Options
	resetSize    int
	historyLimit int
	notify       func(sessionID, recordID string)
	log          *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session[R]
}

// NewManager builds a session manager. ctx is the root lifetime for all
// background refreshers; cancelling it stops every session's refresh loop.
func NewManager[R schemas.Record](ctx context.Context, factory StoreFactory[R], opts Options, logger *zap.Logger) *Manager[R] {
	return &Manager[R]{
		ctx:          ctx,
		factory:      factory,
		refreshOpts:  opts.Refresh,
		resetSize:    opts.ResetSize,
		historyLimit: opts.HistoryLimit,
		notify:       opts.Notify,
		log:          logger.Named("sessions"),
		sessions:     map[string]*Session[R]{},
	}
}

// GetOrCreate returns the live session for id, creating it on first access.
// A blank id mints a new one. Creation loads the seed file and starts the
// refresher, since new sessions begin on the listing view.
func (m *Manager[R]) GetOrCreate(id string) (*Session[R], error) {
	if id == "" {
		id = uuid.NewString()
	}

	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return sess, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[id]; ok {
		return sess, nil
	}

	st, err := m.factory(m.ctx)
	if err != nil {
		return nil, fmt.Errorf("create session %s: %w", id, err)
	}

	sess = &Session[R]{
		id:    id,
		mgr:   m,
		store: st,
		page:  schemas.PageReportSelection,
		log:   m.log.With(zap.String("session_id", id)),
	}
	sess.refresher = sess.newRefresherLocked()
	m.sessions[id] = sess

	sess.refresher.Start(m.ctx)
	m.log.Info("Session created", zap.String("session_id", id))
	return sess, nil
}

// Get returns the session for id, if it exists.
func (m *Manager[R]) Get(id string) (*Session[R], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Close stops every session's background work. Called on shutdown.
func (m *Manager[R]) Close() {
	m.mu.Lock()
	sessions := make([]*Session[R], 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = map[string]*Session[R]{}
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.stop()
	}
}
