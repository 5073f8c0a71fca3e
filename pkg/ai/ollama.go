package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/agentforge/pkg/domain/ai"
)

const ollamaBaseURL = "http://localhost:11434"

type OllamaProvider struct {
	Model   string
	BaseURL string
	Client  *http.Client
}

func NewOllamaProvider(model, baseURL string) *OllamaProvider {
	if model == "" {
		model = "llama3"
	}
	if baseURL == "" {
		baseURL = ollamaBaseURL
	}
	return &OllamaProvider{Model: model, BaseURL: strings.TrimRight(baseURL, "/"), Client: http.DefaultClient}
}

func (p *OllamaProvider) ID() string {
	return "ollama:" + p.Model
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// ollamaResponse is both the non-streaming body and one NDJSON stream line.
type ollamaResponse struct {
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
}

var safeModelName = regexp.MustCompile(`^[a-zA-Z0-9:._-]+$`)

func (p *OllamaProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	resp, err := p.post(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var oResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return nil, fmt.Errorf("failed to decode ollama response: %w", err)
	}

	return &ai.CompletionResponse{
		Text:  oResp.Response,
		Model: p.model(req),
		Usage: ai.TokenUsage{InputTokens: oResp.PromptEvalCount, OutputTokens: oResp.EvalCount},
	}, nil
}

// Stream reads the NDJSON response line by line. Malformed lines are
// skipped.
func (p *OllamaProvider) Stream(ctx context.Context, req ai.CompletionRequest) (<-chan ai.StreamChunk, error) {
	resp, err := p.post(ctx, req, true)
	if err != nil {
		return nil, err
	}

	chunks := make(chan ai.StreamChunk, 100)
	go func() {
		defer close(chunks)
		defer resp.Body.Close()

		reader := bufio.NewReader(resp.Body)
		for {
			select {
			case <-ctx.Done():
				chunks <- ai.StreamChunk{Err: ctx.Err()}
				return
			default:
			}

			line, err := reader.ReadBytes('\n')
			if len(bytes.TrimSpace(line)) > 0 {
				var event ollamaResponse
				if jsonErr := json.Unmarshal(line, &event); jsonErr == nil {
					if event.Done {
						chunks <- ai.StreamChunk{
							Text: event.Response,
							Done: true,
							Usage: &ai.TokenUsage{
								InputTokens:  event.PromptEvalCount,
								OutputTokens: event.EvalCount,
							},
						}
						return
					}
					if event.Response != "" {
						chunks <- ai.StreamChunk{Text: event.Response}
					}
				}
			}
			if err != nil {
				if err != io.EOF {
					chunks <- ai.StreamChunk{Err: err}
				} else {
					chunks <- ai.StreamChunk{Done: true}
				}
				return
			}
		}
	}()

	return chunks, nil
}

func (p *OllamaProvider) post(ctx context.Context, req ai.CompletionRequest, stream bool) (*http.Response, error) {
	model := p.model(req)
	if !safeModelName.MatchString(model) {
		return nil, fmt.Errorf("invalid model name: %s", model)
	}
	if req.Temperature < 0 {
		return nil, fmt.Errorf("invalid temperature")
	}

	format := ""
	if strings.Contains(req.Prompt, "JSON") || strings.Contains(req.System, "JSON") {
		format = "json"
	}
	oReq := ollamaRequest{
		Model:  model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: stream,
		Format: format,
	}
	if req.Temperature != 0 || req.MaxTokens > 0 {
		oReq.Options = map[string]any{}
		if req.Temperature != 0 {
			oReq.Options["temperature"] = req.Temperature
		}
		if req.MaxTokens > 0 {
			oReq.Options["num_predict"] = req.MaxTokens
		}
	}

	body, err := json.Marshal(oReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	hReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	hReq.Header.Set("Content-Type", "application/json")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(hReq)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ollama API: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ollama API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}

func (p *OllamaProvider) model(req ai.CompletionRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return p.Model
}

var _ ai.StreamingProvider = (*OllamaProvider)(nil)
