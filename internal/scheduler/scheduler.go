// Package scheduler runs the background refresh loop that keeps a session's
// report backlog growing while the user watches the listing view.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/donmccasland/gdc-gemini-munich-demo/api/schemas"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/store"
)

// PageFunc reports the session's currently active page. It is re-checked at
// the top of every cycle so the refresher exits as soon as the user
// navigates away from the listing view.
type PageFunc func() schemas.Page

// Options configure a Refresher.
type Options struct {
	// Interval is the pause between generation cycles.
	Interval time.Duration
	// Cap is the collection size at which the refresher stops permanently.
	Cap int
	// GenerateTimeout bounds a single generation call; 0 means no timeout.
	GenerateTimeout time.Duration
	// Notify, when set, is called with each appended record so the
	// presentation layer can push an update. Must not block.
	Notify func(id string)
}

// Refresher periodically appends one generated record to the store while the
// session stays on the listing view and the collection is below the cap.
// A Refresher is single-use: once stopped (cap reached, page left, or
// cancelled) it never resumes; the session starts a fresh one when the
// listing view becomes active again.
type Refresher[R schemas.Record] struct {
	st   *store.Store[R]
	page PageFunc
	opts Options
	log  *zap.Logger

	mu     sync.Mutex
	state  lifecycle
	cancel context.CancelFunc
	done   chan struct{}
}

// lifecycle tracks the single-use Start/Stop progression under r.mu.
type lifecycle int

const (
	lifecycleIdle lifecycle = iota
	lifecycleRunning
	lifecycleStopped
)

// New builds a Refresher bound to the given store and page check.
func New[R schemas.Record](st *store.Store[R], page PageFunc, opts Options, logger *zap.Logger) *Refresher[R] {
	return &Refresher[R]{
		st:   st,
		page: page,
		opts: opts,
		log:  logger.Named("refresher"),
		done: make(chan struct{}),
	}
}

// Start launches the refresh loop. Subsequent calls, and calls after Stop,
// are no-ops.
func (r *Refresher[R]) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != lifecycleIdle {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.state = lifecycleRunning
	go r.run(runCtx, cancel)
}

// Stop cancels the loop and waits for it to exit. Safe to call more than
// once, concurrently with Start, and before Start.
func (r *Refresher[R]) Stop() {
	r.mu.Lock()
	switch r.state {
	case lifecycleIdle:
		// Never started: mark the instance dead so a later Start is a no-op,
		// and close done ourselves since no loop will.
		r.state = lifecycleStopped
		close(r.done)
		r.mu.Unlock()
		return
	case lifecycleRunning:
		r.state = lifecycleStopped
		r.cancel()
	}
	r.mu.Unlock()
	<-r.done
}

// Done is closed when the loop has exited for any reason.
func (r *Refresher[R]) Done() <-chan struct{} {
	return r.done
}

func (r *Refresher[R]) run(ctx context.Context, cancel context.CancelFunc) {
	defer close(r.done)
	defer cancel()

	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	for {
		if p := r.page(); p != schemas.PageReportSelection {
			r.log.Debug("Listing view no longer active, refresher exiting", zap.String("page", string(p)))
			return
		}
		if r.st.Len() >= r.opts.Cap {
			// Terminal: this instance never resumes, even if the backlog is
			// reset later.
			r.log.Info("Report cap reached, refresher stopping", zap.Int("cap", r.opts.Cap))
			return
		}

		r.cycle(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// cycle performs one generation attempt. A failed cycle appends nothing; the
// next cycle still fires after the normal interval.
func (r *Refresher[R]) cycle(ctx context.Context) {
	genCtx := ctx
	if r.opts.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, r.opts.GenerateTimeout)
		defer cancel()
	}

	rec, err := r.st.AppendGenerated(genCtx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.log.Warn("Refresh cycle produced no record", zap.Error(err))
		return
	}

	r.log.Info("Appended generated report",
		zap.String("record_id", rec.RecordID()),
		zap.Int("backlog_size", r.st.Len()),
	)
	if r.opts.Notify != nil {
		r.opts.Notify(rec.RecordID())
	}
}
