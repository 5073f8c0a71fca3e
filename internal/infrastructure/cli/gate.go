package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/agentforge/pkg/application"
	"github.com/felixgeelhaar/agentforge/pkg/domain"
	"github.com/felixgeelhaar/agentforge/pkg/domain/gate"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lifecycle"
	"github.com/spf13/cobra"
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Evaluate the publish gate without publishing",
	Long: `Compile the spec afresh and check it against the publish thresholds:
quality score of at least 70, no critical lint findings and at least one
test case. Exits with status 2 when the gate fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		res, err := services.Gate.Check(cmd.Context())
		if err != nil {
			return MapError(err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput() {
			if err := printJSON(out, res); err != nil {
				return err
			}
		} else {
			printGate(out, res)
		}
		if !res.Passed {
			return &CLIError{Message: "publish gate failed", ExitCode: ExitGateFailed}
		}
		return nil
	},
}

func printGate(w io.Writer, res gate.Result) {
	d := res.Details
	fmt.Fprintf(w, "%s %s\n\n", titleStyle.Render("Publish gate:"), passFail(res.Passed))
	fmt.Fprintf(w, "  %s quality score     %d (min %d)\n", passFail(d.QualityScore.Passed), d.QualityScore.Value, d.QualityScore.Threshold)
	fmt.Fprintf(w, "  %s critical findings %d (max %d)\n", passFail(d.CriticalFindings.Passed), d.CriticalFindings.Value, d.CriticalFindings.Threshold)
	fmt.Fprintf(w, "  %s test cases        %d (min %d)\n", passFail(d.TestCases.Passed), d.TestCases.Value, d.TestCases.Threshold)
	if r := d.TestPassRate; r != nil && r.Value != nil {
		fmt.Fprintf(w, "  %s pass rate         %.0f%% (target %.0f%%, informational)\n", passFail(r.Passed), *r.Value, r.Threshold)
	}
	if len(res.Reasons) > 0 {
		fmt.Fprintln(w)
		for _, reason := range res.Reasons {
			fmt.Fprintf(w, "  - %s\n", reason)
		}
	}
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the compiled package when the publish gate passes",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		res, err := services.Gate.Publish(cmd.Context())
		out := cmd.OutOrStdout()
		if err != nil {
			if errors.Is(err, application.ErrGateFailed) && !jsonOutput() {
				printGate(out, res)
				fmt.Fprintln(out)
			}
			return MapError(err)
		}

		if jsonOutput() {
			return printJSON(out, map[string]any{"published": true, "gate": res})
		}
		fmt.Fprintf(out, "%s quality score %d, %d test case(s).\n",
			statusOK.Render("Published."), res.Details.QualityScore.Value, res.Details.TestCases.Value)
		return nil
	},
}

var lifecycleCmd = &cobra.Command{
	Use:   "lifecycle [edit|archive|restore]",
	Short: "Show the lifecycle state or move it with an event",
	Long: `Without arguments, print the current lifecycle state and the events it
accepts. compile and publish are driven by their own commands.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{lifecycle.EventEdit, lifecycle.EventArchive, lifecycle.EventRestore},
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		var rec *lifecycle.Record
		if len(args) == 1 {
			rec, err = services.Gate.Transition(cmd.Context(), args[0])
		} else {
			rec, err = services.Workspace.Repo.LoadLifecycle()
		}
		if err != nil {
			return MapError(err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput() {
			return printJSON(out, rec)
		}
		fmt.Fprintf(out, "State: %s\n", titleStyle.Render(rec.State))
		if rec.SpecHash != "" {
			fmt.Fprintf(out, "Spec:  %s\n", shortHash(rec.SpecHash))
		}
		fmt.Fprintf(out, "Since: %s\n", rec.UpdatedAt.Format("2006-01-02 15:04:05"))
		if events := lifecycle.ValidEvents(rec.State); len(events) > 0 {
			fmt.Fprintf(out, "Next:  %s\n", mutedStyle.Render(strings.Join(events, ", ")))
		}
		return nil
	},
}

var historyVerify bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show compile, gate and lifecycle history",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		history := services.Workspace.History
		out := cmd.OutOrStdout()
		if historyVerify {
			violations, err := history.VerifyIntegrity()
			if err != nil {
				return err
			}
			if len(violations) > 0 {
				for _, v := range violations {
					fmt.Fprintf(out, "%s %s\n", statusError.Render("✗"), v)
				}
				return NewCLIError("history integrity check failed", "The history log was edited by hand or truncated", nil)
			}
			fmt.Fprintln(out, statusOK.Render("History chain intact."))
			return nil
		}

		entries, err := history.LoadAll()
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(out, entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "No history yet.")
			return nil
		}
		for _, e := range entries {
			line := fmt.Sprintf("%s  %-9s", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Type)
			switch e.Type {
			case domain.HistoryLifecycle:
				line += " → " + e.Detail
			default:
				line += fmt.Sprintf(" score %3d  critical %d  %s", e.Score, e.Critical, passFail(e.Passed))
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().BoolVar(&historyVerify, "verify", false, "Verify the hash chain of the history log")
	RootCmd.AddCommand(gateCmd, publishCmd, lifecycleCmd, historyCmd)
}
