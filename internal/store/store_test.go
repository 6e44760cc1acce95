package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/donmccasland/gdc-gemini-munich-demo/api/schemas"
)

// -- Helpers --

func makeReport(id string, year int, month time.Month, day int) *schemas.FraudReport {
	return &schemas.FraudReport{
		ReportID:   id,
		ReportDate: schemas.NewDate(year, month, day),
	}
}

func writeSeed(t *testing.T, reports []*schemas.FraudReport) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	data, err := json.Marshal(reports)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func reportIDs(reports []*schemas.FraudReport) []string {
	ids := make([]string, 0, len(reports))
	for _, r := range reports {
		ids = append(ids, r.ReportID)
	}
	return ids
}

// stubGenerator hands out a fixed sequence of reports, then repeats the
// last one. It counts calls so tests can assert retry behavior.
type stubGenerator struct {
	mu      sync.Mutex
	reports []*schemas.FraudReport
	err     error
	calls   int
}

func (g *stubGenerator) GenerateOne(_ context.Context) (*schemas.FraudReport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	if len(g.reports) == 0 {
		return makeReport(fmt.Sprintf("GEN%06d", g.calls), 2025, time.June, 1), nil
	}
	r := g.reports[0]
	if len(g.reports) > 1 {
		g.reports = g.reports[1:]
	}
	return r, nil
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// -- Test Cases --

func TestLoad(t *testing.T) {
	t.Run("should load every record of a valid seed file", func(t *testing.T) {
		path := writeSeed(t, []*schemas.FraudReport{
			makeReport("A1", 2025, time.January, 10),
			makeReport("B2", 2025, time.February, 20),
		})

		records, err := Load[*schemas.FraudReport](path)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("should return ErrSeedNotFound for a missing file", func(t *testing.T) {
		_, err := Load[*schemas.FraudReport](filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSeedNotFound)
	})

	t.Run("should reject malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seed.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"not":"an array"`), 0o644))

		_, err := Load[*schemas.FraudReport](path)
		require.Error(t, err)
	})

	t.Run("should abort on the first invalid record", func(t *testing.T) {
		path := writeSeed(t, []*schemas.FraudReport{
			makeReport("A1", 2025, time.January, 10),
			{ReportDate: schemas.NewDate(2025, time.March, 1)}, // no id
			makeReport("C3", 2025, time.March, 3),
		})

		_, err := Load[*schemas.FraudReport](path)
		require.Error(t, err)

		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, 1, schemaErr.Index)
	})
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("should sort records by date descending", func(t *testing.T) {
		path := writeSeed(t, []*schemas.FraudReport{
			makeReport("OLD", 2025, time.January, 1),
			makeReport("NEW", 2025, time.March, 1),
			makeReport("MID", 2025, time.February, 1),
		})

		s, err := New[*schemas.FraudReport](ctx, Options{SeedPath: path}, nil, logger)
		require.NoError(t, err)
		assert.Equal(t, []string{"NEW", "MID", "OLD"}, reportIDs(s.GetAll()))
	})

	t.Run("should break date ties by ascending id", func(t *testing.T) {
		path := writeSeed(t, []*schemas.FraudReport{
			makeReport("BBB", 2025, time.March, 1),
			makeReport("AAA", 2025, time.March, 1),
		})

		s, err := New[*schemas.FraudReport](ctx, Options{SeedPath: path}, nil, logger)
		require.NoError(t, err)
		assert.Equal(t, []string{"AAA", "BBB"}, reportIDs(s.GetAll()))
	})

	t.Run("should down-sample a larger seed population", func(t *testing.T) {
		seed := []*schemas.FraudReport{
			makeReport("A", 2025, time.January, 1),
			makeReport("B", 2025, time.January, 2),
			makeReport("C", 2025, time.January, 3),
			makeReport("D", 2025, time.January, 4),
			makeReport("E", 2025, time.January, 5),
		}
		path := writeSeed(t, seed)

		s, err := New[*schemas.FraudReport](ctx, Options{SeedPath: path, InitialSample: 2}, nil, logger)
		require.NoError(t, err)
		require.Equal(t, 2, s.Len())

		seedIDs := map[string]bool{"A": true, "B": true, "C": true, "D": true, "E": true}
		for _, id := range reportIDs(s.GetAll()) {
			assert.True(t, seedIDs[id], "sampled id %s must come from the seed", id)
		}
	})

	t.Run("should keep everything when the sample size is zero", func(t *testing.T) {
		path := writeSeed(t, []*schemas.FraudReport{
			makeReport("A", 2025, time.January, 1),
			makeReport("B", 2025, time.January, 2),
		})

		s, err := New[*schemas.FraudReport](ctx, Options{SeedPath: path}, nil, logger)
		require.NoError(t, err)
		assert.Equal(t, 2, s.Len())
	})

	t.Run("should start empty when the seed file is missing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.json")

		s, err := New[*schemas.FraudReport](ctx, Options{SeedPath: path}, nil, logger)
		require.NoError(t, err)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("should start empty when the seed file is corrupt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seed.json")
		require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

		s, err := New[*schemas.FraudReport](ctx, Options{SeedPath: path}, nil, logger)
		require.NoError(t, err)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("should synthesize an initial batch when the seed yields nothing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.json")
		gen := &stubGenerator{}

		s, err := New[*schemas.FraudReport](ctx, Options{SeedPath: path, InitialBatch: 3}, gen, logger)
		require.NoError(t, err)
		assert.Equal(t, 3, s.Len())
		assert.Equal(t, 3, gen.callCount())
	})
}

func TestAppendGenerated(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	newStore := func(t *testing.T, seed []*schemas.FraudReport, gen Generator[*schemas.FraudReport], retryCap int) *Store[*schemas.FraudReport] {
		t.Helper()
		s, err := New[*schemas.FraudReport](ctx, Options{
			SeedPath: writeSeed(t, seed),
			RetryCap: retryCap,
		}, gen, logger)
		require.NoError(t, err)
		return s
	}

	t.Run("should insert the generated record and keep descending order", func(t *testing.T) {
		gen := &stubGenerator{reports: []*schemas.FraudReport{makeReport("MID", 2025, time.February, 15)}}
		s := newStore(t, []*schemas.FraudReport{
			makeReport("NEW", 2025, time.March, 1),
			makeReport("OLD", 2025, time.January, 1),
		}, gen, 0)

		rec, err := s.AppendGenerated(ctx)
		require.NoError(t, err)
		assert.Equal(t, "MID", rec.ReportID)
		assert.Equal(t, []string{"NEW", "MID", "OLD"}, reportIDs(s.GetAll()))
	})

	t.Run("should retry on a duplicate id and keep the collection intact", func(t *testing.T) {
		gen := &stubGenerator{reports: []*schemas.FraudReport{
			makeReport("DUP", 2025, time.February, 1),
			makeReport("FRESH", 2025, time.February, 2),
		}}
		s := newStore(t, []*schemas.FraudReport{makeReport("DUP", 2025, time.January, 1)}, gen, 5)

		rec, err := s.AppendGenerated(ctx)
		require.NoError(t, err)
		assert.Equal(t, "FRESH", rec.ReportID)
		assert.Equal(t, 2, s.Len())
		assert.Equal(t, 2, gen.callCount())
	})

	t.Run("should give up after the retry cap", func(t *testing.T) {
		gen := &stubGenerator{reports: []*schemas.FraudReport{makeReport("DUP", 2025, time.February, 1)}}
		s := newStore(t, []*schemas.FraudReport{makeReport("DUP", 2025, time.January, 1)}, gen, 3)

		_, err := s.AppendGenerated(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDuplicateID)
		assert.Equal(t, 3, gen.callCount())
		assert.Equal(t, 1, s.Len())
	})

	t.Run("should propagate generator errors", func(t *testing.T) {
		genErr := errors.New("backend unavailable")
		gen := &stubGenerator{err: genErr}
		s := newStore(t, []*schemas.FraudReport{makeReport("A", 2025, time.January, 1)}, gen, 3)

		_, err := s.AppendGenerated(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, genErr)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("should reject generated records that fail validation", func(t *testing.T) {
		gen := &stubGenerator{reports: []*schemas.FraudReport{{ReportID: "NO-DATE"}}}
		s := newStore(t, []*schemas.FraudReport{makeReport("A", 2025, time.January, 1)}, gen, 3)

		_, err := s.AppendGenerated(ctx)
		require.Error(t, err)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("should fail without a generator", func(t *testing.T) {
		s := newStore(t, []*schemas.FraudReport{makeReport("A", 2025, time.January, 1)}, nil, 0)

		_, err := s.AppendGenerated(ctx)
		require.Error(t, err)
	})
}

func TestShrinkTo(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("should be a no-op when the target is not below the current size", func(t *testing.T) {
		path := writeSeed(t, []*schemas.FraudReport{
			makeReport("A", 2025, time.January, 1),
			makeReport("B", 2025, time.January, 2),
		})
		s, err := New[*schemas.FraudReport](ctx, Options{SeedPath: path}, nil, logger)
		require.NoError(t, err)

		require.NoError(t, s.ShrinkTo(2))
		assert.Equal(t, 2, s.Len())
		require.NoError(t, s.ShrinkTo(10))
		assert.Equal(t, 2, s.Len())
	})

	t.Run("should resample from the reloaded seed population", func(t *testing.T) {
		seed := []*schemas.FraudReport{
			makeReport("A", 2025, time.January, 1),
			makeReport("B", 2025, time.January, 2),
			makeReport("C", 2025, time.January, 3),
			makeReport("D", 2025, time.January, 4),
			makeReport("E", 2025, time.January, 5),
		}
		gen := &stubGenerator{}
		s, err := New[*schemas.FraudReport](ctx, Options{SeedPath: writeSeed(t, seed)}, gen, logger)
		require.NoError(t, err)
		for i := 0; i < 2; i++ {
			_, err := s.AppendGenerated(ctx)
			require.NoError(t, err)
		}
		require.Equal(t, 7, s.Len())

		require.NoError(t, s.ShrinkTo(3))
		assert.Equal(t, 3, s.Len())

		seedIDs := map[string]bool{"A": true, "B": true, "C": true, "D": true, "E": true}
		for _, id := range reportIDs(s.GetAll()) {
			assert.True(t, seedIDs[id], "resampled id %s must come from the seed", id)
		}
	})

	t.Run("should cap the result at the seed population size", func(t *testing.T) {
		seed := []*schemas.FraudReport{
			makeReport("A", 2025, time.January, 1),
			makeReport("B", 2025, time.January, 2),
			makeReport("C", 2025, time.January, 3),
		}
		gen := &stubGenerator{}
		s, err := New[*schemas.FraudReport](ctx, Options{SeedPath: writeSeed(t, seed)}, gen, logger)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			_, err := s.AppendGenerated(ctx)
			require.NoError(t, err)
		}
		require.Equal(t, 6, s.Len())

		require.NoError(t, s.ShrinkTo(5))
		assert.Equal(t, 3, s.Len())
	})

	t.Run("should reject negative targets", func(t *testing.T) {
		path := writeSeed(t, []*schemas.FraudReport{makeReport("A", 2025, time.January, 1)})
		s, err := New[*schemas.FraudReport](ctx, Options{SeedPath: path}, nil, logger)
		require.NoError(t, err)

		assert.Error(t, s.ShrinkTo(-1))
	})
}

func TestLookups(t *testing.T) {
	ctx := context.Background()
	path := writeSeed(t, []*schemas.FraudReport{
		makeReport("A", 2025, time.January, 1),
		makeReport("B", 2025, time.January, 2),
	})
	s, err := New[*schemas.FraudReport](ctx, Options{SeedPath: path}, nil, zap.NewNop())
	require.NoError(t, err)

	t.Run("should find a record by id", func(t *testing.T) {
		rec, ok := s.GetByID("A")
		require.True(t, ok)
		assert.Equal(t, "A", rec.ReportID)
	})

	t.Run("should report a missing id", func(t *testing.T) {
		_, ok := s.GetByID("NOPE")
		assert.False(t, ok)
	})

	t.Run("should return the full id set", func(t *testing.T) {
		ids := s.GetIDs()
		assert.Len(t, ids, 2)
		assert.Contains(t, ids, "A")
		assert.Contains(t, ids, "B")
	})
}

func TestSnapshots(t *testing.T) {
	ctx := context.Background()

	t.Run("should keep a returned slice stable across later appends", func(t *testing.T) {
		path := writeSeed(t, []*schemas.FraudReport{
			makeReport("A", 2025, time.January, 1),
			makeReport("B", 2025, time.January, 2),
		})
		s, err := New[*schemas.FraudReport](ctx, Options{SeedPath: path}, &stubGenerator{}, zap.NewNop())
		require.NoError(t, err)

		snapshot := s.GetAll()
		require.Equal(t, []string{"B", "A"}, reportIDs(snapshot))

		for i := 0; i < 5; i++ {
			_, err := s.AppendGenerated(ctx)
			require.NoError(t, err)
		}
		require.NoError(t, s.ShrinkTo(1))

		assert.Equal(t, []string{"B", "A"}, reportIDs(snapshot),
			"appends and shrinks must not touch slices already handed out")
	})

	t.Run("should let readers iterate while the refresher appends", func(t *testing.T) {
		path := writeSeed(t, []*schemas.FraudReport{
			makeReport("A", 2025, time.January, 1),
		})
		s, err := New[*schemas.FraudReport](ctx, Options{SeedPath: path}, &stubGenerator{}, zap.NewNop())
		require.NoError(t, err)

		appended := make(chan struct{})
		go func() {
			defer close(appended)
			for i := 0; i < 50; i++ {
				if _, err := s.AppendGenerated(ctx); err != nil {
					return
				}
			}
		}()

		readerDone := make(chan struct{})
		go func() {
			defer close(readerDone)
			for {
				select {
				case <-appended:
					return
				default:
				}
				records := s.GetAll()
				for i := 1; i < len(records); i++ {
					if records[i-1].SortKey().Before(records[i].SortKey()) {
						t.Error("snapshot out of order")
						return
					}
				}
			}
		}()

		<-appended
		<-readerDone
		assert.Equal(t, 51, s.Len())
	})
}
