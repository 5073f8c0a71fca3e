package cli

import (
	"fmt"
	"path/filepath"

	"github.com/felixgeelhaar/agentforge/pkg/domain/capability"
	"github.com/felixgeelhaar/agentforge/pkg/domain/gate"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lint"
	"github.com/felixgeelhaar/agentforge/pkg/storage"
	"github.com/spf13/cobra"
)

var (
	compileEnable  []string
	compileDisable []string
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile the specification into a prompt package",
	Long: `Validate the specification, render the five prompt layers, lint and
score them, and write the result to .agentforge/build/.

--enable and --disable override capability toggles for this run only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		toggles, err := toolToggles(compileEnable, compileDisable)
		if err != nil {
			return err
		}

		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		build, err := services.Compile.Compile(cmd.Context(), toggles)
		if err != nil {
			return MapError(err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput() {
			return printJSON(out, build)
		}

		o := build.Output
		score := o.QualityScore.Overall
		fmt.Fprintf(out, "%s spec %s (run %s)\n", statusOK.Render("Compiled"), shortHash(build.SpecHash), build.RunID)
		fmt.Fprintf(out, "Quality score:  %s\n", scoreStyle(score, gate.MinQualityScore).Render(fmt.Sprintf("%d/100", score)))
		fmt.Fprintf(out, "Completeness:   %d%%\n", o.Completeness.Overall)
		fmt.Fprintf(out, "Lint findings:  %s\n", countsLine(lint.Count(o.LintFindings)))
		fmt.Fprintf(out, "Policies:       %d\n", len(o.Policies))
		fmt.Fprintf(out, "Prompt package: %d characters in %s\n",
			o.PromptPackage.TotalLength(), filepath.Join(storage.WorkspaceDir, storage.BuildDir))

		for _, c := range o.Capabilities {
			if !c.Valid {
				fmt.Fprintf(out, "%s capability %s is missing %v\n", statusWarn.Render("!"), c.Capability, c.Blockers)
			}
		}
		if len(o.Suggestions) > 0 {
			fmt.Fprintf(out, "\nNext: %s\n", o.Suggestions[0].Message)
		}
		return nil
	},
}

func toolToggles(enable, disable []string) (map[string]bool, error) {
	if len(enable) == 0 && len(disable) == 0 {
		return nil, nil
	}
	toggles := make(map[string]bool, len(enable)+len(disable))
	for _, names := range []struct {
		list []string
		on   bool
	}{{enable, true}, {disable, false}} {
		for _, name := range names.list {
			if _, err := capability.Lookup(name); err != nil {
				return nil, MapError(fmt.Errorf("%q: %w", name, err))
			}
			toggles[name] = names.on
		}
	}
	return toggles, nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func init() {
	compileCmd.Flags().StringSliceVar(&compileEnable, "enable", nil, "Capability leaves to switch on for this run (e.g. web_search)")
	compileCmd.Flags().StringSliceVar(&compileDisable, "disable", nil, "Capability leaves to switch off for this run")
	RootCmd.AddCommand(compileCmd)
}
