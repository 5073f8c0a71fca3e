package ai

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/agentforge/pkg/domain/ai"
)

// Settings selects and configures a provider.
type Settings struct {
	Provider   string
	Model      string
	BaseURL    string
	APIKey     string
	Resilience ResilienceConfig
}

// NewProvider builds the named provider wrapped in a ResilientProvider.
// An empty provider name means ollama.
func NewProvider(s Settings) (ai.StreamingProvider, error) {
	var inner ai.Provider
	switch s.Provider {
	case "ollama", "":
		inner = NewOllamaProvider(s.Model, s.BaseURL)
	case "mock":
		inner = &MockProvider{Model: s.Model}
	case "anthropic":
		key := s.APIKey
		if key == "" {
			key = os.Getenv("ANTHROPIC_API_KEY")
		}
		p := NewAnthropicProvider(s.Model, key)
		if s.BaseURL != "" {
			p.BaseURL = s.BaseURL
		}
		inner = p
	case "openai":
		key := s.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		p := NewOpenAIProvider(s.Model, key)
		if s.BaseURL != "" {
			p.BaseURL = s.BaseURL
		}
		inner = p
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", s.Provider)
	}
	return NewResilientProviderWithConfig(inner, s.Resilience), nil
}
