package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	projectPath  string
	outputFormat string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "agentforge",
	Version: Version,
	Short:   "Compile agent specifications into tested prompt packages",
	Long: `AgentForge compiles a structured agent specification into a five-layer
prompt package, lints and scores it, and gates publishing on quality and tests.

Typical flow:
  agentforge init
  $EDITOR .agentforge/spec.yaml
  agentforge compile
  agentforge tests generate
  agentforge publish`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch outputFormat {
		case "text", "json":
			return nil
		}
		return NewCLIError(fmt.Sprintf("unsupported output format %q", outputFormat), "Use --output text or --output json", nil)
	},
}

// Execute runs the command tree until it completes or the process is
// interrupted. Failures are printed with their hint to stderr.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := RootCmd.ExecuteContext(ctx)
	if err != nil {
		err = MapError(err)
		printError(RootCmd.ErrOrStderr(), err)
	}
	return err
}

// ExitCode returns the process exit status for err.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) && cliErr.ExitCode != 0 {
		return cliErr.ExitCode
	}
	return 1
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	var cliErr *CLIError
	if errors.As(err, &cliErr) && cliErr.Hint != "" {
		fmt.Fprintf(w, "Hint: %s\n", cliErr.Hint)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&projectPath, "project", "C", "", "Workspace root (default: current directory)")
	RootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text, json)")
	RootCmd.SetVersionTemplate(fmt.Sprintf("agentforge {{.Version}} (commit %s, built %s)\n", Commit, Date))
}
