package ai

import (
	"context"
	"strings"
	"sync"

	"github.com/felixgeelhaar/agentforge/pkg/domain/ai"
)

// MockProvider returns canned responses in order, repeating the last one.
// It is used by the "mock" provider setting and in tests.
type MockProvider struct {
	Model     string
	Responses []string
	Err       error

	mu       sync.Mutex
	calls    int
	requests []ai.CompletionRequest
}

func (m *MockProvider) ID() string {
	return "mock:" + m.Model
}

func (m *MockProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}

	text := "mock response"
	if n := len(m.Responses); n > 0 {
		idx := m.calls - 1
		if idx >= n {
			idx = n - 1
		}
		text = m.Responses[idx]
	}
	return &ai.CompletionResponse{Text: text, Model: m.Model}, nil
}

// Stream emits the next canned response word by word.
func (m *MockProvider) Stream(ctx context.Context, req ai.CompletionRequest) (<-chan ai.StreamChunk, error) {
	resp, err := m.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	words := strings.SplitAfter(resp.Text, " ")
	chunks := make(chan ai.StreamChunk, len(words)+1)
	for _, w := range words {
		chunks <- ai.StreamChunk{Text: w}
	}
	chunks <- ai.StreamChunk{Done: true}
	close(chunks)
	return chunks, nil
}

// Calls reports how many completions were requested.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns a copy of every request received.
func (m *MockProvider) Requests() []ai.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ai.CompletionRequest(nil), m.requests...)
}

var _ ai.StreamingProvider = (*MockProvider)(nil)
