// Package chat implements the dashboard assistant: it forwards the
// currently visible report data plus the conversation history to the
// text-generation endpoint and streams the reply back.
package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/donmccasland/gdc-gemini-munich-demo/api/schemas"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/llmclient"
)

const systemPrompt = "You are a fraud analysis assistant embedded in a reporting dashboard. " +
	"Answer questions about the attached report data concisely and accurately. " +
	"When you reference a specific report, mention its id."

// Request is one assistant invocation, assembled by the serving layer from
// session state.
type Request struct {
	// Page decides how the attached data is introduced.
	Page schemas.Page
	// AttachedJSON is the JSON of the visible data: all reports on the
	// listing view, the opened report on the detail view.
	AttachedJSON string
	// History carries the prior conversation turns.
	History []schemas.ChatMessage
	// Query is the user's question.
	Query string
	// KnownIDs are the session's current record ids; occurrences in the
	// answer are rewritten into dashboard links.
	KnownIDs []string
}

// Assistant answers questions about visible dashboard data.
type Assistant struct {
	client      llmclient.Client
	temperature float32
	logger      *zap.Logger
}

// New builds an Assistant on top of the given generation client.
func New(client llmclient.Client, temperature float32, logger *zap.Logger) *Assistant {
	return &Assistant{
		client:      client,
		temperature: temperature,
		logger:      logger.Named("assistant"),
	}
}

// Ask streams the assistant's reply through onChunk and returns the full
// answer with report ids rewritten into links. The caller records the turn
// in session history on success.
func (a *Assistant) Ask(ctx context.Context, req Request, onChunk llmclient.StreamFunc) (string, error) {
	if strings.TrimSpace(req.Query) == "" {
		return "", fmt.Errorf("question must not be empty")
	}

	full, err := a.client.GenerateStream(ctx, llmclient.GenerationRequest{
		SystemPrompt: systemPrompt,
		History:      req.History,
		UserPrompt:   buildPrompt(req),
		Options:      llmclient.GenerationOptions{Temperature: a.temperature},
	}, onChunk)
	if err != nil {
		a.logger.Error("Assistant generation failed", zap.Error(err))
		return "", fmt.Errorf("generate answer: %w", err)
	}

	return ReplaceReportIDsWithLinks(full, req.KnownIDs), nil
}

// buildPrompt attaches the visible data ahead of the user's question. The
// data may have changed since earlier turns, so the model is told to
// re-check its answers against it.
func buildPrompt(req Request) string {
	var dataDesc string
	switch req.Page {
	case schemas.PageReportView:
		dataDesc = "Here is the data of the currently inspected report:"
	default:
		dataDesc = "Here is the data of all available reports:"
	}

	return fmt.Sprintf(
		"%s\n%s\n\nThe data may have been updated since the last message in the conversation, "+
			"so please make sure you check your answers - if they are still applicable.\n\nUser Query: %s",
		dataDesc, req.AttachedJSON, req.Query,
	)
}

const reportLinkTemplate = `<a href="?report_id=%s" target="_self" rel="noopener noreferrer">%s</a>`

// ReplaceReportIDsWithLinks rewrites every known report id in text into a
// dashboard link so answers become navigable.
func ReplaceReportIDsWithLinks(text string, ids []string) string {
	for _, id := range ids {
		if id == "" {
			continue
		}
		text = strings.ReplaceAll(text, id, fmt.Sprintf(reportLinkTemplate, id, id))
	}
	return text
}
