package cli

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/agentforge/internal/infrastructure/config"
	"github.com/felixgeelhaar/agentforge/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/agentforge/pkg/domain/capability"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
	"github.com/felixgeelhaar/agentforge/pkg/storage"
	"github.com/spf13/cobra"
)

var (
	initProvider string
	initModel    string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an agentforge workspace with a starter specification",
	Long: `Create .agentforge/ in the project root with an empty specification
template, an all-off capabilities file, the default configuration and the
test case database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		ws := wiring.NewWorkspace(root)
		if ws.Repo.IsInitialized() {
			return NewCLIError("workspace already initialized in "+ws.Repo.Dir(), "Edit .agentforge/spec.yaml and run 'agentforge compile'", nil)
		}

		if err := ws.Repo.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize workspace: %w", err)
		}
		starter := spec.Normalize(spec.Specification{}).Specification
		if err := ws.Repo.SaveSpec(&starter); err != nil {
			return fmt.Errorf("failed to write starter spec: %w", err)
		}
		if err := ws.Repo.SaveCapabilities(capability.Config{}); err != nil {
			return fmt.Errorf("failed to write capabilities: %w", err)
		}

		cfg := config.Defaults()
		if initProvider != "" {
			cfg.AI.Provider = initProvider
		}
		if initModel != "" {
			cfg.AI.Model = initModel
		}
		if err := config.Save(config.Path(root), &cfg); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		store, err := storage.OpenTestCaseStore(ws.TestCasesPath())
		if err != nil {
			return fmt.Errorf("failed to create test case database: %w", err)
		}
		if err := store.Close(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Initialized agentforge workspace in %s\n", ws.Repo.Dir())
		fmt.Fprintf(out, "  %s\n  %s\n  %s\n  %s\n", storage.SpecFile, storage.CapabilitiesFile, storage.ConfigFile, storage.TestCasesDB)
		fmt.Fprintln(out, "\nNext: describe your agent in .agentforge/spec.yaml (or run 'agentforge fill mission'), then 'agentforge compile'.")
		if p := cfg.AI.Provider; (p == "anthropic" || p == "openai") && cfg.AI.APIKey == "" && os.Getenv(config.EnvPrefix+"AI_API_KEY") == "" {
			fmt.Fprintf(out, "Set %sAI_API_KEY to use the %s provider.\n", config.EnvPrefix, p)
		}
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initProvider, "provider", "", "AI provider to write to config.yaml (ollama, anthropic, openai, mock)")
	initCmd.Flags().StringVar(&initModel, "model", "", "AI model to write to config.yaml")
	RootCmd.AddCommand(initCmd)
}
