package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	infraAI "github.com/felixgeelhaar/agentforge/pkg/ai"
	"github.com/felixgeelhaar/agentforge/pkg/domain/ai"
)

func TestOllamaProvider_Basic(t *testing.T) {
	p := infraAI.NewOllamaProvider("", "")
	if p.ID() != "ollama:llama3" {
		t.Errorf("expected ID ollama:llama3, got %s", p.ID())
	}
}

func TestOllamaProvider_Validation(t *testing.T) {
	p := infraAI.NewOllamaProvider("invalid model;", "http://127.0.0.1:1")
	if _, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "hi"}); err == nil {
		t.Error("expected error for invalid model name")
	}
	p = infraAI.NewOllamaProvider("llama3", "http://127.0.0.1:1")
	if _, err := p.Complete(context.Background(), ai.CompletionRequest{Temperature: -1}); err == nil {
		t.Error("expected error for negative temperature")
	}
}

func TestOllamaProvider_Complete(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = fmt.Fprint(w, `{"response":"{\"ok\":true}","done":true,"prompt_eval_count":7,"eval_count":3}`)
	}))
	defer server.Close()

	p := infraAI.NewOllamaProvider("llama3", server.URL)
	resp, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "Return JSON", System: "sys", MaxTokens: 50})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != `{"ok":true}` || resp.Usage.InputTokens != 7 || resp.Usage.OutputTokens != 3 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if got["format"] != "json" || got["stream"] != false {
		t.Errorf("request body = %v", got)
	}
}

func TestOllamaProvider_Stream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, `{"response":"Hel","done":false}`)
		_, _ = fmt.Fprintln(w, `not json`)
		_, _ = fmt.Fprintln(w, `{"response":"lo","done":false}`)
		_, _ = fmt.Fprintln(w, `{"response":"","done":true,"eval_count":2}`)
	}))
	defer server.Close()

	p := infraAI.NewOllamaProvider("llama3", server.URL)
	chunks, err := p.Stream(context.Background(), ai.CompletionRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	text, err := ai.Collect(chunks)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if text != "Hello" {
		t.Errorf("streamed text = %q, want Hello", text)
	}
}

func TestOllamaProvider_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	p := infraAI.NewOllamaProvider("missing", server.URL)
	if _, err := p.Stream(context.Background(), ai.CompletionRequest{Prompt: "hi"}); err == nil {
		t.Error("expected error for 404")
	}
}

func TestAnthropicProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = fmt.Fprint(w, `{"content":[{"text":"hello"}],"usage":{"input_tokens":4,"output_tokens":1}}`)
	}))
	defer server.Close()

	p := infraAI.NewAnthropicProvider("", "test-key")
	p.BaseURL = server.URL

	resp, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != "hello" || resp.Usage.InputTokens != 4 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestAnthropicProvider_NoKey(t *testing.T) {
	p := infraAI.NewAnthropicProvider("", "")
	if _, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "hi"}); err == nil {
		t.Error("expected error without api key")
	}
}

func TestOpenAIProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body struct {
			Messages []struct{ Role string } `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			t.Errorf("messages = %+v, want system then user", body.Messages)
		}
		_, _ = fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"hello"}}],"usage":{"prompt_tokens":5,"completion_tokens":1}}`)
	}))
	defer server.Close()

	p := infraAI.NewOpenAIProvider("", "test-key")
	p.BaseURL = server.URL

	resp, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "hi", System: "sys"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != "hello" || resp.Usage.InputTokens != 5 || resp.Model != "gpt-4o" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestOpenAIProvider_Stream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range []string{
			`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
			``,
			`data: {"choices":[{"delta":{"content":"lo"}}]}`,
			`data: {"choices":[],"usage":{"prompt_tokens":3,"completion_tokens":2}}`,
			`data: [DONE]`,
		} {
			_, _ = fmt.Fprintln(w, line)
		}
	}))
	defer server.Close()

	p := infraAI.NewOpenAIProvider("gpt-test", "test-key")
	p.BaseURL = server.URL

	chunks, err := p.Stream(context.Background(), ai.CompletionRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	var text string
	var last ai.StreamChunk
	for c := range chunks {
		if c.Err != nil {
			t.Fatalf("chunk error: %v", c.Err)
		}
		text += c.Text
		last = c
	}
	if text != "Hello" {
		t.Errorf("text = %q, want Hello", text)
	}
	if !last.Done || last.Usage == nil || last.Usage.OutputTokens != 2 {
		t.Errorf("last chunk = %+v, want done with usage", last)
	}
}

func TestOpenAIProvider_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := infraAI.NewOpenAIProvider("", "test-key")
	p.BaseURL = server.URL
	if _, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "hi"}); err == nil {
		t.Error("expected error for 429")
	}
	if _, err := infraAI.NewOpenAIProvider("", "").Complete(context.Background(), ai.CompletionRequest{Prompt: "hi"}); err == nil {
		t.Error("expected error without api key")
	}
}

func TestMockProvider(t *testing.T) {
	m := &infraAI.MockProvider{Model: "m", Responses: []string{"first", "second words"}}
	ctx := context.Background()

	r1, _ := m.Complete(ctx, ai.CompletionRequest{Prompt: "a"})
	r2, _ := m.Complete(ctx, ai.CompletionRequest{Prompt: "b"})
	chunks, err := m.Stream(ctx, ai.CompletionRequest{Prompt: "c"})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	r3, _ := ai.Collect(chunks)

	if r1.Text != "first" || r2.Text != "second words" || r3 != "second words" {
		t.Errorf("responses = %q, %q, %q", r1.Text, r2.Text, r3)
	}
	if m.Calls() != 3 || m.Requests()[2].Prompt != "c" {
		t.Errorf("calls = %d, requests = %+v", m.Calls(), m.Requests())
	}
}

type faultyProvider struct {
	attempts int
	maxFail  int
}

func (f *faultyProvider) ID() string { return "faulty" }
func (f *faultyProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	f.attempts++
	if f.attempts <= f.maxFail {
		return nil, errors.New("transient error")
	}
	return &ai.CompletionResponse{Text: "success"}, nil
}

func TestResilientProvider_Retry(t *testing.T) {
	faulty := &faultyProvider{maxFail: 1}
	p := infraAI.NewResilientProviderWithConfig(faulty, infraAI.ResilienceConfig{RetryDelay: time.Millisecond})

	resp, err := p.Complete(context.Background(), ai.CompletionRequest{})
	if err != nil {
		t.Fatalf("expected success after retry, got: %v", err)
	}
	if resp.Text != "success" || faulty.attempts != 2 {
		t.Errorf("text=%q attempts=%d", resp.Text, faulty.attempts)
	}
}

type slowProvider struct{}

func (s *slowProvider) ID() string { return "slow" }
func (s *slowProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(100 * time.Millisecond):
		return &ai.CompletionResponse{Text: "too late"}, nil
	}
}

func TestResilientProvider_Timeout(t *testing.T) {
	p := infraAI.NewResilientProviderWithConfig(&slowProvider{}, infraAI.ResilienceConfig{RetryDelay: time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := p.Complete(ctx, ai.CompletionRequest{}); err == nil {
		t.Error("expected timeout error")
	}
}

func TestResilientProvider_StreamFallback(t *testing.T) {
	p := infraAI.NewResilientProvider(&faultyProvider{})
	chunks, err := p.Stream(context.Background(), ai.CompletionRequest{})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if text, _ := ai.Collect(chunks); text != "success" {
		t.Errorf("text = %q", text)
	}
}

func TestResilientProvider_Defaults(t *testing.T) {
	p := infraAI.NewResilientProviderWithConfig(&infraAI.MockProvider{Model: "x"}, infraAI.ResilienceConfig{})
	if p.Config() != infraAI.DefaultResilienceConfig() {
		t.Errorf("zero config should get defaults, got %+v", p.Config())
	}
	if p.ID() != "mock:x" {
		t.Errorf("ID = %q", p.ID())
	}
}

func TestNewProvider(t *testing.T) {
	for _, name := range []string{"", "ollama", "mock", "anthropic", "openai"} {
		if _, err := infraAI.NewProvider(infraAI.Settings{Provider: name}); err != nil {
			t.Errorf("NewProvider(%q): %v", name, err)
		}
	}
	if _, err := infraAI.NewProvider(infraAI.Settings{Provider: "skynet"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}
