package ai

import (
	"context"
	"strings"
)

// CompletionRequest represents a prompt to the AI.
type CompletionRequest struct {
	Prompt      string
	System      string
	Temperature float32
	MaxTokens   int
	// Model overrides the provider's configured model when set.
	Model string
}

// CompletionResponse represents the AI's answer.
type CompletionResponse struct {
	Text  string
	Usage TokenUsage
	Model string
}

// TokenUsage tracks costs.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Provider is the interface for all AI backends.
type Provider interface {
	ID() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// StreamChunk is one piece of a streamed completion. The last chunk has
// Done set, or Err when the stream failed.
type StreamChunk struct {
	Text  string
	Done  bool
	Usage *TokenUsage
	Err   error
}

// StreamingProvider streams completions as a finite sequence of chunks. The
// channel is closed after the final chunk and cannot be restarted.
type StreamingProvider interface {
	Provider
	Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)
}

// Collect drains a stream into a single string.
func Collect(chunks <-chan StreamChunk) (string, error) {
	var b strings.Builder
	for c := range chunks {
		if c.Err != nil {
			return b.String(), c.Err
		}
		b.WriteString(c.Text)
	}
	return b.String(), nil
}
