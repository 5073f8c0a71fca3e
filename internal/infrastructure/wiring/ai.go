package wiring

import (
	"github.com/felixgeelhaar/agentforge/internal/infrastructure/config"
	infraai "github.com/felixgeelhaar/agentforge/pkg/ai"
	domainai "github.com/felixgeelhaar/agentforge/pkg/domain/ai"
)

// LoadAIProvider builds the configured provider with retries and timeout.
func LoadAIProvider(cfg *config.Config) (domainai.StreamingProvider, error) {
	return infraai.NewProvider(cfg.ProviderSettings())
}
