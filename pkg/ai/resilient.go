package ai

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"

	"github.com/felixgeelhaar/agentforge/pkg/domain/ai"
)

// ResilienceConfig controls retries and the per-call timeout.
type ResilienceConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		MaxRetries: 2,
		RetryDelay: time.Second,
		Timeout:    300 * time.Second,
	}
}

// ResilientProvider wraps a provider with fortify retry and timeout.
type ResilientProvider struct {
	inner ai.Provider
	cfg   ResilienceConfig
}

func NewResilientProvider(inner ai.Provider) *ResilientProvider {
	return NewResilientProviderWithConfig(inner, DefaultResilienceConfig())
}

// NewResilientProviderWithConfig fills zero fields of cfg from the defaults.
func NewResilientProviderWithConfig(inner ai.Provider, cfg ResilienceConfig) *ResilientProvider {
	def := DefaultResilienceConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &ResilientProvider{inner: inner, cfg: cfg}
}

func (p *ResilientProvider) ID() string {
	return p.inner.ID()
}

func (p *ResilientProvider) Config() ResilienceConfig {
	return p.cfg
}

func (p *ResilientProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	r := retry.New[*ai.CompletionResponse](retry.Config{
		MaxAttempts:   p.cfg.MaxRetries,
		InitialDelay:  p.cfg.RetryDelay,
		BackoffPolicy: retry.BackoffExponential,
	})
	t := timeout.New[*ai.CompletionResponse](timeout.Config{
		DefaultTimeout: p.cfg.Timeout,
	})

	return t.Execute(ctx, p.cfg.Timeout, func(ctx context.Context) (*ai.CompletionResponse, error) {
		return r.Do(ctx, func(ctx context.Context) (*ai.CompletionResponse, error) {
			return p.inner.Complete(ctx, req)
		})
	})
}

// Stream retries opening the stream. Once chunks flow, failures are
// delivered on the channel and not retried. Providers without streaming
// support fall back to a single-chunk stream.
func (p *ResilientProvider) Stream(ctx context.Context, req ai.CompletionRequest) (<-chan ai.StreamChunk, error) {
	sp, ok := p.inner.(ai.StreamingProvider)
	if !ok {
		resp, err := p.Complete(ctx, req)
		if err != nil {
			return nil, err
		}
		chunks := make(chan ai.StreamChunk, 2)
		chunks <- ai.StreamChunk{Text: resp.Text}
		chunks <- ai.StreamChunk{Done: true, Usage: &resp.Usage}
		close(chunks)
		return chunks, nil
	}

	r := retry.New[<-chan ai.StreamChunk](retry.Config{
		MaxAttempts:   p.cfg.MaxRetries,
		InitialDelay:  p.cfg.RetryDelay,
		BackoffPolicy: retry.BackoffExponential,
	})
	return r.Do(ctx, func(ctx context.Context) (<-chan ai.StreamChunk, error) {
		return sp.Stream(ctx, req)
	})
}

var _ ai.StreamingProvider = (*ResilientProvider)(nil)
