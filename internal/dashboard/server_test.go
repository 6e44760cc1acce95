package dashboard

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/donmccasland/gdc-gemini-munich-demo/api/schemas"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/chat"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/llmclient"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/scheduler"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/session"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/store"
)

// -- Test Setup Helpers --

type harness struct {
	server   *httptest.Server
	sessions *session.Manager[*schemas.FraudReport]
}

func newHarness(t *testing.T, seedCount int, llm llmclient.Client) *harness {
	t.Helper()

	seed := make([]*schemas.FraudReport, 0, seedCount)
	for i := 0; i < seedCount; i++ {
		amount := float64(1000 * (i + 1))
		currency := "EUR"
		seed = append(seed, &schemas.FraudReport{
			ReportID:   fmt.Sprintf("SEED%02d", i),
			ReportDate: schemas.NewDate(2025, time.January, i+1),
			PreparedBy: "Fraud Detection Unit",
			ClientName: fmt.Sprintf("Client %d", i),
			Transactions: []schemas.Transaction{{
				TransactionID: fmt.Sprintf("TX%06d", i),
				Datetime:      time.Date(2025, time.January, i+1, 12, 0, 0, 0, time.UTC),
				Amount:        &amount,
				Currency:      &currency,
			}},
			TotalNumberOfTransactions: 10,
		})
	}
	data, err := json.Marshal(seed)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	factory := func(ctx context.Context) (*store.Store[*schemas.FraudReport], error) {
		return store.New[*schemas.FraudReport](ctx, store.Options{SeedPath: path}, nil, zap.NewNop())
	}
	sessions := session.NewManager(context.Background(), factory, session.Options{
		ResetSize: 2,
		Refresh:   scheduler.Options{Interval: time.Hour, Cap: 1000},
	}, zap.NewNop())
	t.Cleanup(sessions.Close)

	if llm == nil {
		llm = llmclient.NewStaticClient()
	}
	assistant := chat.New(llm, 0.3, zap.NewNop())

	adapter, err := NewFraudAdapter()
	require.NoError(t, err)

	srv := NewServer(sessions, assistant, adapter, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &harness{server: ts, sessions: sessions}
}

func (h *harness) do(t *testing.T, method, path, sessionID string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, h.server.URL+path, reader)
	require.NoError(t, err)
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var payload map[string]any
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	}
	return resp, payload
}

// -- Test Cases --

func TestListReports(t *testing.T) {
	h := newHarness(t, 3, nil)

	resp, payload := h.do(t, http.MethodGet, "/api/reports", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sessionID := resp.Header.Get(SessionHeader)
	require.NotEmpty(t, sessionID, "a fresh session id must be minted and echoed")

	assert.Equal(t, string(schemas.PageReportSelection), payload["page"])

	reports, ok := payload["reports"].([]any)
	require.True(t, ok)
	require.Len(t, reports, 3)
	first := reports[0].(map[string]any)
	assert.Equal(t, "SEED02", first["report_id"], "listing is sorted by date descending")

	stats, ok := payload["stats"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, stats["total_reports"])
	assert.EqualValues(t, 3, stats["total_fraud_transactions"])
	assert.EqualValues(t, 30, stats["total_transactions"])
	assert.InDelta(t, 10.0, stats["fraud_percentage"].(float64), 0.001)

	// A second request with the same header attaches to the same session.
	resp2, _ := h.do(t, http.MethodGet, "/api/reports", sessionID, nil)
	assert.Equal(t, sessionID, resp2.Header.Get(SessionHeader))
}

func TestGetReport(t *testing.T) {
	h := newHarness(t, 3, nil)

	t.Run("should return the record and its rendered document", func(t *testing.T) {
		resp, payload := h.do(t, http.MethodGet, "/api/reports/SEED01", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		report, ok := payload["report"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "SEED01", report["report_id"])

		markdown, ok := payload["markdown"].(string)
		require.True(t, ok)
		assert.Contains(t, markdown, "SEED01")
		assert.Contains(t, markdown, "## Executive Summary")

		sess, found := h.sessions.Get(resp.Header.Get(SessionHeader))
		require.True(t, found)
		assert.Equal(t, schemas.PageReportView, sess.Page())
		assert.Equal(t, "SEED01", sess.SelectedID())
	})

	t.Run("should 404 on unknown ids", func(t *testing.T) {
		resp, payload := h.do(t, http.MethodGet, "/api/reports/NOPE", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, payload["error"], "NOPE")
	})
}

func TestSetPage(t *testing.T) {
	h := newHarness(t, 1, nil)

	t.Run("should navigate to a valid page", func(t *testing.T) {
		resp, payload := h.do(t, http.MethodPost, "/api/page", "", map[string]any{"page": "map_view"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "map_view", payload["page"])
	})

	t.Run("should reject unknown pages", func(t *testing.T) {
		resp, _ := h.do(t, http.MethodPost, "/api/page", "", map[string]any{"page": "settings"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("should reject malformed bodies", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, h.server.URL+"/api/page", strings.NewReader("{"))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestResetAndLogout(t *testing.T) {
	h := newHarness(t, 5, nil)

	t.Run("reset should shrink the backlog to the configured size", func(t *testing.T) {
		resp, payload := h.do(t, http.MethodPost, "/api/reset", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 2, payload["size"])
	})

	t.Run("logout should also return to the listing view", func(t *testing.T) {
		resp, _ := h.do(t, http.MethodGet, "/api/reports/SEED01", "", nil)
		sessionID := resp.Header.Get(SessionHeader)

		resp2, payload := h.do(t, http.MethodPost, "/api/logout", sessionID, nil)
		require.Equal(t, http.StatusOK, resp2.StatusCode)
		assert.Equal(t, string(schemas.PageReportSelection), payload["page"])
		assert.EqualValues(t, 2, payload["size"])

		sess, found := h.sessions.Get(sessionID)
		require.True(t, found)
		assert.Empty(t, sess.History())
	})
}

func TestQuestions(t *testing.T) {
	h := newHarness(t, 1, nil)

	t.Run("should default to the session's current page", func(t *testing.T) {
		resp, payload := h.do(t, http.MethodGet, "/api/questions", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		questions, ok := payload["questions"].([]any)
		require.True(t, ok)
		assert.Len(t, questions, 1, "listing view has one canned question")
	})

	t.Run("should honor the page override", func(t *testing.T) {
		resp, payload := h.do(t, http.MethodGet, "/api/questions?page=report_view", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		questions, ok := payload["questions"].([]any)
		require.True(t, ok)
		assert.Len(t, questions, 5)
	})

	t.Run("should reject unknown pages", func(t *testing.T) {
		resp, _ := h.do(t, http.MethodGet, "/api/questions?page=bogus", "", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestChat(t *testing.T) {
	h := newHarness(t, 2, nil)

	t.Run("should stream events and record the turn", func(t *testing.T) {
		body, err := json.Marshal(map[string]any{"query": "what stands out?"})
		require.NoError(t, err)

		req, err := http.NewRequest(http.MethodPost, h.server.URL+"/api/chat", bytes.NewReader(body))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

		var events []chatEvent
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var ev chatEvent
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
			events = append(events, ev)
		}
		require.NoError(t, scanner.Err())
		require.NotEmpty(t, events)

		final := events[len(events)-1]
		assert.True(t, final.Done)
		assert.Empty(t, final.Error)
		assert.Contains(t, final.Answer, "what stands out?")

		var streamed strings.Builder
		for _, ev := range events[:len(events)-1] {
			streamed.WriteString(ev.Delta)
		}
		assert.NotEmpty(t, streamed.String())

		sess, found := h.sessions.Get(resp.Header.Get(SessionHeader))
		require.True(t, found)
		history := sess.History()
		require.Len(t, history, 2)
		assert.Equal(t, "what stands out?", history[0].Content)
		assert.Equal(t, final.Answer, history[1].Content)
	})

	t.Run("should reject empty queries", func(t *testing.T) {
		resp, _ := h.do(t, http.MethodPost, "/api/chat", "", map[string]any{"query": ""})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, 0, nil)

	resp, payload := h.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", payload["status"])
}
