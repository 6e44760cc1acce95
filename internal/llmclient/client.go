package llmclient

import (
	"context"
	"encoding/json"

	"github.com/donmccasland/gdc-gemini-munich-demo/api/schemas"
)

// GenerationOptions tune a single generation call.
type GenerationOptions struct {
	Temperature float32
	// ForceJSONFormat asks the endpoint for an application/json response.
	ForceJSONFormat bool
	// ResponseSchema constrains JSON output to the given schema, when the
	// backend supports it.
	ResponseSchema json.RawMessage
}

// GenerationRequest is one call to the text-generation endpoint. History
// carries the prior conversation turns; UserPrompt is the final user turn.
type GenerationRequest struct {
	SystemPrompt string
	History      []schemas.ChatMessage
	UserPrompt   string
	Options      GenerationOptions
}

// StreamFunc receives one chunk of streamed output. Returning an error
// aborts the stream.
type StreamFunc func(chunk string) error

// Client is the contract with the hosted text-generation service.
type Client interface {
	// Generate returns the full response in one piece.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// GenerateStream delivers the response incrementally through onChunk and
	// returns the accumulated full text.
	GenerateStream(ctx context.Context, req GenerationRequest, onChunk StreamFunc) (string, error)
}
