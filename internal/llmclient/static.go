package llmclient

import (
	"context"
	"fmt"
	"strings"
)

// StaticClient is an offline Client used when no API key is configured. It
// does not understand the prompt; it acknowledges it with a fixed-form
// answer so demo environments stay interactive.
type StaticClient struct{}

// NewStaticClient builds the offline client.
func NewStaticClient() *StaticClient { return &StaticClient{} }

// Generate implements Client.
func (c *StaticClient) Generate(_ context.Context, req GenerationRequest) (string, error) {
	return c.answer(req), nil
}

// GenerateStream implements Client. The canned answer is delivered in a
// handful of chunks so streaming consumers exercise their full path.
func (c *StaticClient) GenerateStream(ctx context.Context, req GenerationRequest, onChunk StreamFunc) (string, error) {
	full := c.answer(req)
	const chunkSize = 48
	for i := 0; i < len(full); i += chunkSize {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		end := i + chunkSize
		if end > len(full) {
			end = len(full)
		}
		if onChunk != nil {
			if err := onChunk(full[i:end]); err != nil {
				return "", fmt.Errorf("stream callback: %w", err)
			}
		}
	}
	return full, nil
}

func (c *StaticClient) answer(req GenerationRequest) string {
	query := req.UserPrompt
	if i := strings.LastIndex(query, "User Query:"); i >= 0 {
		query = strings.TrimSpace(query[i+len("User Query:"):])
	}
	return fmt.Sprintf(
		"The generation backend is running in offline mode, so no model was consulted. "+
			"Your question was: %q. Configure an API key to receive real answers.",
		query,
	)
}
