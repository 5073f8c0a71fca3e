package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/agentforge/internal/infrastructure/config"
	"github.com/felixgeelhaar/agentforge/internal/infrastructure/telemetry"
	"github.com/felixgeelhaar/agentforge/internal/infrastructure/wiring"
	"github.com/spf13/cobra"
)

// loadServices reads the workspace config, installs logging and telemetry
// and wires the application services. The returned func releases them.
func loadServices(cmd *cobra.Command) (*wiring.AppServices, func(), error) {
	root, err := getProjectRoot()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(config.Path(root))
	if err != nil {
		return nil, nil, NewCLIError("failed to load configuration", "Check .agentforge/config.yaml and AGENTFORGE_* variables", err)
	}

	logger := telemetry.ConfigureSlog(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)

	shutdown := telemetry.ShutdownFunc(telemetry.Noop)
	if cfg.Telemetry.Enabled {
		shutdown, err = telemetry.Init("agentforge", Version, telemetry.Config{
			Exporter:     cfg.Telemetry.Exporter,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			OTLPInsecure: cfg.Telemetry.OTLPInsecure,
			Output:       cmd.ErrOrStderr(),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start telemetry: %w", err)
		}
	}

	services, loadErr := wiring.BuildAppServices(root, cfg, logger)
	if services == nil {
		_ = shutdown(context.Background())
		return nil, nil, fmt.Errorf("failed to build services: %w", loadErr)
	}
	if loadErr != nil {
		logger.Warn("using fallback AI provider", "error", loadErr)
	}

	release := func() {
		_ = services.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}
	return services, release, nil
}

// loadWorkspace is loadServices for commands that need an initialized
// workspace.
func loadWorkspace(cmd *cobra.Command) (*wiring.AppServices, func(), error) {
	services, release, err := loadServices(cmd)
	if err != nil {
		return nil, nil, err
	}
	if !services.Workspace.Repo.IsInitialized() {
		release()
		return nil, nil, NewCLIError("no agentforge workspace found in "+services.Workspace.Root, "Run 'agentforge init' first", nil)
	}
	return services, release, nil
}

func getProjectRoot() (string, error) {
	if projectPath != "" {
		abs, err := filepath.Abs(projectPath)
		if err != nil {
			return "", fmt.Errorf("invalid project path %q: %w", projectPath, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("project path %q: %w", abs, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("project path %q is not a directory", abs)
		}
		return abs, nil
	}
	return os.Getwd()
}
