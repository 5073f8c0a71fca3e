package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/felixgeelhaar/agentforge/pkg/domain/ai"
)

const openAIBaseURL = "https://api.openai.com/v1"

// OpenAIProvider talks to the chat completions API. BaseURL can point at any
// compatible server (vLLM, LM Studio, llama.cpp).
type OpenAIProvider struct {
	Model   string
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewOpenAIProvider(model string, apiKey string) *OpenAIProvider {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIProvider{
		Model:   model,
		APIKey:  apiKey,
		BaseURL: openAIBaseURL,
		Client:  http.DefaultClient,
	}
}

func (p *OpenAIProvider) ID() string {
	return "openai:" + p.Model
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float32         `json:"temperature,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage openAIUsage `json:"usage"`
}

type openAIStreamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *openAIUsage `json:"usage"`
}

func (p *OpenAIProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	resp, err := p.post(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read body

	var out openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode openai response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("openai api returned no choices")
	}

	return &ai.CompletionResponse{
		Text:  out.Choices[0].Message.Content,
		Model: p.model(req),
		Usage: ai.TokenUsage{
			InputTokens:  out.Usage.PromptTokens,
			OutputTokens: out.Usage.CompletionTokens,
		},
	}, nil
}

// Stream reads the server-sent events of a streamed chat completion. The
// stream ends at the "[DONE]" event.
func (p *OpenAIProvider) Stream(ctx context.Context, req ai.CompletionRequest) (<-chan ai.StreamChunk, error) {
	resp, err := p.post(ctx, req, true)
	if err != nil {
		return nil, err
	}

	chunks := make(chan ai.StreamChunk)
	go func() {
		defer close(chunks)
		defer resp.Body.Close() //nolint:errcheck // best-effort close on read body

		var usage *ai.TokenUsage
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			data, ok := strings.CutPrefix(scanner.Text(), "data:")
			if !ok {
				continue
			}
			data = strings.TrimSpace(data)
			if data == "[DONE]" {
				chunks <- ai.StreamChunk{Done: true, Usage: usage}
				return
			}
			var event openAIStreamEvent
			if err := json.Unmarshal([]byte(data), &event); err != nil {
				continue
			}
			if event.Usage != nil {
				usage = &ai.TokenUsage{
					InputTokens:  event.Usage.PromptTokens,
					OutputTokens: event.Usage.CompletionTokens,
				}
			}
			if len(event.Choices) > 0 && event.Choices[0].Delta.Content != "" {
				select {
				case chunks <- ai.StreamChunk{Text: event.Choices[0].Delta.Content}:
				case <-ctx.Done():
					chunks <- ai.StreamChunk{Err: ctx.Err()}
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			chunks <- ai.StreamChunk{Err: err}
			return
		}
		chunks <- ai.StreamChunk{Done: true, Usage: usage}
	}()
	return chunks, nil
}

func (p *OpenAIProvider) post(ctx context.Context, req ai.CompletionRequest, stream bool) (*http.Response, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("openai API key not provided (set AGENTFORGE_AI_API_KEY or OPENAI_API_KEY)")
	}

	messages := make([]openAIMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(openAIRequest{
		Model:       p.model(req),
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(p.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai api call failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close() //nolint:errcheck // best-effort close on read body
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("openai api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}

func (p *OpenAIProvider) model(req ai.CompletionRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return p.Model
}

var _ ai.StreamingProvider = (*OpenAIProvider)(nil)
