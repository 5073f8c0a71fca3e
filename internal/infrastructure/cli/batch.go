package cli

import (
	"fmt"
	"path/filepath"

	"github.com/felixgeelhaar/agentforge/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/agentforge/pkg/application"
	"github.com/spf13/cobra"
)

var batchParallel int

type batchLine struct {
	Root    string `json:"root"`
	OK      bool   `json:"ok"`
	RunID   string `json:"run_id,omitempty"`
	Score   int    `json:"score,omitempty"`
	Message string `json:"error,omitempty"`
}

var batchCmd = &cobra.Command{
	Use:   "batch <dir>...",
	Short: "Compile several workspaces concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer release()

		roots := make([]string, 0, len(args))
		for _, a := range args {
			abs, err := filepath.Abs(a)
			if err != nil {
				return fmt.Errorf("invalid workspace path %q: %w", a, err)
			}
			roots = append(roots, abs)
		}

		batch := services.Batch
		if batchParallel > 0 {
			batch = application.NewBatchService(wiring.OpenRepo, batchParallel, services.Logger)
		}
		results := batch.CompileAll(cmd.Context(), roots)

		lines := make([]batchLine, 0, len(results))
		failed := 0
		for _, r := range results {
			l := batchLine{Root: r.Root, OK: r.Err == nil}
			if r.Err != nil {
				failed++
				l.Message = MapError(r.Err).Error()
			} else {
				l.RunID = r.Build.RunID
				l.Score = r.Build.Output.QualityScore.Overall
			}
			lines = append(lines, l)
		}

		out := cmd.OutOrStdout()
		if jsonOutput() {
			if err := printJSON(out, lines); err != nil {
				return err
			}
		} else {
			for _, l := range lines {
				if l.OK {
					fmt.Fprintf(out, "%s %s (score %d)\n", statusOK.Render("✓"), l.Root, l.Score)
				} else {
					fmt.Fprintf(out, "%s %s: %s\n", statusError.Render("✗"), l.Root, l.Message)
				}
			}
			fmt.Fprintf(out, "\n%d compiled, %d failed\n", len(lines)-failed, failed)
		}

		if failed > 0 {
			return NewCLIError(fmt.Sprintf("%d of %d workspace(s) failed to compile", failed, len(lines)), "", nil)
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchParallel, "parallel", 0, "Concurrent compiles (default from batch.parallel)")
	RootCmd.AddCommand(batchCmd)
}
