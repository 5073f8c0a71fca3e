// Package wiring assembles application services for a workspace root.
package wiring

import (
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/agentforge/internal/infrastructure/config"
	infraai "github.com/felixgeelhaar/agentforge/pkg/ai"
	"github.com/felixgeelhaar/agentforge/pkg/application"
	domainai "github.com/felixgeelhaar/agentforge/pkg/domain/ai"
	"github.com/felixgeelhaar/agentforge/pkg/domain/testcase"
	"github.com/felixgeelhaar/agentforge/pkg/storage"
)

// AppServices exposes the application services wired to one workspace.
type AppServices struct {
	Workspace *Workspace
	Config    *config.Config
	Logger    *slog.Logger
	// Tests is nil until the workspace is initialized.
	Tests    *storage.TestCaseStore
	Provider domainai.StreamingProvider

	Compile *application.CompileService
	Gate    *application.GateService
	Assist  *application.AssistService
	Batch   *application.BatchService
}

// BuildAppServices wires every service for root. When the configured AI
// provider cannot be built, ollama is used instead and the provider error
// is returned next to the usable services.
func BuildAppServices(root string, cfg *config.Config, logger *slog.Logger) (*AppServices, error) {
	if cfg == nil {
		d := config.Defaults()
		cfg = &d
	}
	if logger == nil {
		logger = slog.Default()
	}
	ws := NewWorkspace(root)

	provider, err := LoadAIProvider(cfg)
	var loadErr error
	if err != nil {
		loadErr = fmt.Errorf("AI provider config fallback: %w", err)
		fallback := cfg.ProviderSettings()
		fallback.Provider, fallback.Model = "ollama", "llama3"
		if provider, err = infraai.NewProvider(fallback); err != nil {
			return nil, fmt.Errorf("fallback AI provider failed: %w", err)
		}
	}

	svc := &AppServices{
		Workspace: ws,
		Config:    cfg,
		Logger:    logger,
		Provider:  provider,
	}

	var (
		tests  testcase.Repository
		source application.TestCaseSource
	)
	if ws.Repo.IsInitialized() {
		store, err := storage.OpenTestCaseStore(ws.TestCasesPath())
		if err != nil {
			return nil, err
		}
		svc.Tests, tests, source = store, store, store
	}

	svc.Compile = application.NewCompileService(ws.Repo, ws.History, logger)
	svc.Gate = application.NewGateService(ws.Repo, source, ws.History, logger)
	svc.Assist = application.NewAssistService(ws.Repo, provider, tests, logger)
	svc.Batch = application.NewBatchService(OpenRepo, cfg.Batch.Parallel, logger)
	return svc, loadErr
}

// Close releases the test-case database.
func (s *AppServices) Close() error {
	if s == nil || s.Tests == nil {
		return nil
	}
	return s.Tests.Close()
}
