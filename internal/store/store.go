// Package store owns the canonical in-memory report collection for one user
// session: seeded from a JSON file, grown by a generator, kept sorted by
// date descending after every mutation.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/donmccasland/gdc-gemini-munich-demo/api/schemas"
)

// Generator synthesizes one fresh, schema-valid record. Implementations may
// call a hosted generation API; failures are surfaced to the caller as
// generation errors.
type Generator[R schemas.Record] interface {
	GenerateOne(ctx context.Context) (R, error)
}

// Options configure a Store.
type Options struct {
	// SeedPath is the JSON array file the collection is bootstrapped from,
	// and the population reset re-samples.
	SeedPath string
	// InitialSample down-samples the seed on first load; 0 keeps everything.
	InitialSample int
	// InitialBatch is how many records to synthesize when the seed file is
	// missing or empty.
	InitialBatch int
	// RetryCap bounds the duplicate-id retry loop in AppendGenerated.
	RetryCap int
}

// Store holds one session's mutable, ordered report collection. All record
// ids are unique and the collection is sorted by sort key descending after
// load, append and shrink. A single mutex serializes mutations because the
// refresher runs on its own goroutine; readers get stable snapshots because
// every mutation replaces the backing slice instead of editing it.
type Store[R schemas.Record] struct {
	mu   sync.RWMutex
	opts Options
	gen  Generator[R]
	log  *zap.Logger

	records []R
}

// Load parses the seed file at path into validated records. The result
// order is unspecified; callers sort. A missing file yields ErrSeedNotFound;
// the first invalid record aborts the whole load with a SchemaError.
func Load[R schemas.Record](path string) ([]R, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSeedNotFound, path)
		}
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	var records []R
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, &SchemaError{Index: i, Err: err}
		}
	}
	return records, nil
}

// New creates the store for a session. Seed problems are downgraded to a
// logged warning and an empty collection; if the seed produced nothing and a
// generator is available, an initial batch is synthesized instead.
func New[R schemas.Record](ctx context.Context, opts Options, gen Generator[R], logger *zap.Logger) (*Store[R], error) {
	if opts.RetryCap <= 0 {
		opts.RetryCap = 5
	}

	s := &Store[R]{
		opts: opts,
		gen:  gen,
		log:  logger.Named("store"),
	}

	records, err := Load[R](opts.SeedPath)
	switch {
	case errors.Is(err, ErrSeedNotFound):
		s.log.Warn("Seed file not found, starting empty", zap.String("path", opts.SeedPath))
	case err != nil:
		s.log.Error("Error loading seed file, starting empty", zap.String("path", opts.SeedPath), zap.Error(err))
	}

	if opts.InitialSample > 0 && len(records) > opts.InitialSample {
		records = sample(records, opts.InitialSample)
	}

	sortRecords(records)
	s.records = records

	if len(s.records) == 0 && gen != nil && opts.InitialBatch > 0 {
		if err := s.synthesizeInitialBatch(ctx); err != nil {
			return nil, err
		}
	}

	s.log.Info("Report store initialized",
		zap.String("seed_path", opts.SeedPath),
		zap.Int("records", len(s.records)),
	)
	return s, nil
}

// GetAll returns the currently-sorted collection. Mutations swap in a fresh
// backing slice, so the returned slice never changes after the call; callers
// still must not write to it.
func (s *Store[R]) GetAll() []R {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records
}

// Len reports the current collection size.
func (s *Store[R]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// GetIDs returns the set of all current record ids, rebuilt per call.
func (s *Store[R]) GetIDs() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make(map[string]struct{}, len(s.records))
	for _, rec := range s.records {
		ids[rec.RecordID()] = struct{}{}
	}
	return ids
}

// GetByID looks a record up by id. Collections stay small (a few hundred),
// so a linear scan is fine.
func (s *Store[R]) GetByID(id string) (R, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.RecordID() == id {
			return rec, true
		}
	}
	var zero R
	return zero, false
}

// AppendGenerated obtains one fresh record from the generator, retrying on
// id collision up to the configured cap, inserts it and re-sorts the
// collection descending. The new record is returned.
func (s *Store[R]) AppendGenerated(ctx context.Context) (R, error) {
	var zero R
	if s.gen == nil {
		return zero, fmt.Errorf("no generator configured")
	}

	for attempt := 0; attempt < s.opts.RetryCap; attempt++ {
		rec, err := s.gen.GenerateOne(ctx)
		if err != nil {
			return zero, fmt.Errorf("generate report: %w", err)
		}
		if err := rec.Validate(); err != nil {
			return zero, fmt.Errorf("generated record failed validation: %w", err)
		}

		if err := s.insert(rec); err != nil {
			s.log.Debug("Generated record id collides, regenerating",
				zap.String("record_id", rec.RecordID()),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		return rec, nil
	}

	return zero, fmt.Errorf("append after %d attempts: %w", s.opts.RetryCap, ErrDuplicateID)
}

// ShrinkTo resets the collection to a uniform random sample of n records
// drawn from a freshly reloaded seed population, discarding any synthetic
// growth. A no-op when n is not below the current size.
func (s *Store[R]) ShrinkTo(n int) error {
	if n < 0 {
		return fmt.Errorf("shrink target must not be negative, got %d", n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n >= len(s.records) {
		return nil
	}

	seed, err := Load[R](s.opts.SeedPath)
	if err != nil && !errors.Is(err, ErrSeedNotFound) {
		return fmt.Errorf("reload seed for shrink: %w", err)
	}

	if len(seed) > n {
		seed = sample(seed, n)
	}
	sortRecords(seed)
	s.records = seed

	s.log.Info("Report collection reset", zap.Int("target", n), zap.Int("size", len(s.records)))
	return nil
}

// insert adds the record if its id is unused and restores descending order.
// The collection is rebuilt copy-on-write: slices already handed out by
// GetAll keep their contents while the refresher appends concurrently.
func (s *Store[R]) insert(rec R) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records {
		if existing.RecordID() == rec.RecordID() {
			return ErrDuplicateID
		}
	}
	next := make([]R, 0, len(s.records)+1)
	next = append(next, s.records...)
	next = append(next, rec)
	sortRecords(next)
	s.records = next
	return nil
}

// sortRecords orders a collection by sort key descending, ties broken by id
// so repeated queries always observe the same order.
func sortRecords[R schemas.Record](records []R) {
	sort.Slice(records, func(i, j int) bool {
		ti, tj := records[i].SortKey(), records[j].SortKey()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return records[i].RecordID() < records[j].RecordID()
	})
}

func (s *Store[R]) synthesizeInitialBatch(ctx context.Context) error {
	s.log.Info("Seed empty, synthesizing initial batch", zap.Int("count", s.opts.InitialBatch))
	for i := 0; i < s.opts.InitialBatch; i++ {
		if _, err := s.AppendGenerated(ctx); err != nil {
			return fmt.Errorf("synthesize initial batch (record %d): %w", i+1, err)
		}
	}
	return nil
}

// sample draws n elements uniformly at random without replacement.
func sample[R any](records []R, n int) []R {
	out := make([]R, 0, n)
	for _, idx := range rand.Perm(len(records))[:n] {
		out = append(out, records[idx])
	}
	return out
}
