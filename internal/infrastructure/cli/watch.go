package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/felixgeelhaar/agentforge/internal/infrastructure/watch"
	"github.com/felixgeelhaar/agentforge/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/agentforge/pkg/domain/gate"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lint"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recompile whenever the specification, capabilities or knowledge map change",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		out := cmd.OutOrStdout()
		recompile := func(ctx context.Context, files []string) {
			if len(files) > 0 {
				fmt.Fprintf(out, "\n%s changed at %s\n", strings.Join(files, ", "), time.Now().Format("15:04:05"))
			}
			compileOnce(ctx, services, out)
		}

		w, err := watch.New(services.Config.DebounceInterval(), nil, recompile, services.Logger)
		if err != nil {
			return err
		}
		if err := w.Add(services.Workspace.Repo.Dir()); err != nil {
			return err
		}

		fmt.Fprintf(out, "Watching %s for changes (Ctrl+C to stop)\n", services.Workspace.Repo.Dir())
		recompile(cmd.Context(), nil)

		if err := w.Run(cmd.Context()); err != nil && cmd.Context().Err() == nil {
			return err
		}
		return nil
	},
}

// compileOnce compiles and prints a one-line outcome. Failures are printed,
// never returned, so the watch loop keeps running.
func compileOnce(ctx context.Context, services *wiring.AppServices, out io.Writer) {
	build, err := services.Compile.Compile(ctx, nil)
	if err != nil {
		printError(out, MapError(err))
		return
	}
	o := build.Output
	fmt.Fprintf(out, "%s score %s, %s\n",
		statusOK.Render("✓ compiled"),
		scoreStyle(o.QualityScore.Overall, gate.MinQualityScore).Render(fmt.Sprintf("%d", o.QualityScore.Overall)),
		countsLine(lint.Count(o.LintFindings)))
}

func init() {
	RootCmd.AddCommand(watchCmd)
}
