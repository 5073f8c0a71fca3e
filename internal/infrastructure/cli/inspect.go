package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/agentforge/pkg/domain/gate"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lint"
	"github.com/felixgeelhaar/agentforge/pkg/domain/policy"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
	"github.com/spf13/cobra"
)

var (
	lintStrict         bool
	completenessFields bool
)

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Run the lint rules against the specification and rendered layers",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		o, err := services.Compile.Assess(cmd.Context())
		if err != nil {
			return MapError(err)
		}
		counts := lint.Count(o.LintFindings)

		out := cmd.OutOrStdout()
		if jsonOutput() {
			if err := printJSON(out, map[string]any{"findings": o.LintFindings, "counts": counts}); err != nil {
				return err
			}
		} else if len(o.LintFindings) == 0 {
			fmt.Fprintln(out, statusOK.Render("No lint findings."))
		} else {
			fmt.Fprintln(out, findingsTable(o.LintFindings))
			fmt.Fprintln(out, countsLine(counts))
		}

		if lintStrict && counts[lint.SeverityCritical] > 0 {
			return &CLIError{
				Message:  fmt.Sprintf("%d critical lint finding(s)", counts[lint.SeverityCritical]),
				Hint:     "Fix critical findings before publishing",
				ExitCode: ExitLintFailed,
			}
		}
		return nil
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Show the quality score and improvement suggestions",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		o, err := services.Compile.Assess(cmd.Context())
		if err != nil {
			return MapError(err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput() {
			return printJSON(out, map[string]any{"quality_score": o.QualityScore, "suggestions": o.Suggestions})
		}

		q := o.QualityScore
		fmt.Fprintf(out, "%s %s\n\n", titleStyle.Render("Quality score:"),
			scoreStyle(q.Overall, gate.MinQualityScore).Render(fmt.Sprintf("%d/100", q.Overall)))
		for _, row := range []struct {
			label string
			value int
		}{
			{"Spec completeness", q.SpecCompleteness},
			{"Instruction clarity", q.InstructionClarity},
			{"Safety clarity", q.SafetyClarity},
			{"Output contract", q.OutputContractStrength},
		} {
			fmt.Fprintf(out, "  %-20s %s %3d\n", row.label, bar(row.value), row.value)
		}

		if len(o.Suggestions) > 0 {
			fmt.Fprintf(out, "\n%s\n", titleStyle.Render("Suggestions:"))
			for _, s := range o.Suggestions {
				fmt.Fprintf(out, "  [%s] %s\n", s.Priority, s.Message)
			}
		}
		return nil
	},
}

var completenessCmd = &cobra.Command{
	Use:   "completeness",
	Short: "Show per-block completeness and the fields blocking compilation",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		s, err := services.Workspace.Repo.LoadSpec()
		if err != nil {
			return MapError(err)
		}
		n := spec.Normalize(*s)
		res := spec.Completeness(&n.Specification)
		blockers := spec.DetectBlockers(&n.Specification)

		out := cmd.OutOrStdout()
		if completenessFields {
			return printFields(out, &n.Specification)
		}
		if jsonOutput() {
			return printJSON(out, map[string]any{"completeness": res, "blockers": blockers})
		}

		fmt.Fprintf(out, "%s %d%%\n\n", titleStyle.Render("Completeness:"), res.Overall)
		for _, block := range spec.ScoredBlocks() {
			score := res.BlockScores[block]
			fmt.Fprintf(out, "  %-13s %s %3d%%\n", block, bar(score), score)
		}
		printBlockers(out, blockers)
		return nil
	},
}

// printFields lists every field path with whether it is filled.
func printFields(w io.Writer, s *spec.Specification) error {
	paths := spec.FieldPaths()
	if jsonOutput() {
		filled := make(map[string]bool, len(paths))
		for _, p := range paths {
			filled[p] = spec.IsFilled(s, p)
		}
		return printJSON(w, filled)
	}
	for _, p := range paths {
		mark := statusError.Render("missing")
		if spec.IsFilled(s, p) {
			mark = statusOK.Render("filled ")
		}
		fmt.Fprintf(w, "  %s %s\n", mark, p)
	}
	return nil
}

func printBlockers(w io.Writer, blockers []spec.Blocker) {
	if len(blockers) == 0 {
		fmt.Fprintf(w, "\n%s\n", statusOK.Render("Nothing blocks compilation."))
		return
	}
	fmt.Fprintf(w, "\n%s\n", titleStyle.Render("Blockers:"))
	for _, b := range blockers {
		style := statusWarn
		if b.Level == spec.BlockerError {
			style = statusError
		}
		fmt.Fprintf(w, "  %s %s\n", style.Render(fmt.Sprintf("%-7s", b.Level)), b.Message)
	}
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the specification against the minimal validity gate",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		s, err := services.Workspace.Repo.LoadSpec()
		if err != nil {
			return MapError(err)
		}
		res := spec.Validate(spec.Normalize(*s))

		out := cmd.OutOrStdout()
		if jsonOutput() {
			if err := printJSON(out, res); err != nil {
				return err
			}
		} else {
			if res.Valid {
				fmt.Fprintln(out, statusOK.Render("Specification is valid."))
			}
			for _, e := range res.Errors {
				fmt.Fprintf(out, "%s %s\n", statusError.Render("error  "), e)
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(out, "%s %s\n", statusWarn.Render("warning"), w)
			}
		}
		return MapError(res.Err())
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the requirement graph in dependency order",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		o, err := services.Compile.Assess(cmd.Context())
		if err != nil {
			return MapError(err)
		}
		g := o.Graph

		out := cmd.OutOrStdout()
		if jsonOutput() {
			return printJSON(out, g)
		}

		order, err := g.TopologicalOrder()
		if err != nil {
			return err
		}
		for _, id := range order {
			node, _ := g.Node(id)
			header := titleStyle.Render(id)
			if len(node.DependsOn) > 0 {
				header += mutedStyle.Render(" ← " + strings.Join(node.DependsOn, ", "))
			}
			if unlocks := g.Dependents(id); len(unlocks) > 0 {
				header += mutedStyle.Render(" → unlocks " + strings.Join(unlocks, ", "))
			}
			fmt.Fprintln(out, header)
			for _, r := range node.Requirements {
				fmt.Fprintf(out, "  - %s\n", r)
			}
		}
		sum := g.Summary()
		fmt.Fprintf(out, "\n%d nodes, %d edges, %d requirements\n", sum.Nodes, sum.Edges, sum.Requirements)
		return nil
	},
}

var policyOrder = []policy.Priority{
	policy.PriorityMust,
	policy.PriorityMustNot,
	policy.PriorityShould,
	policy.PriorityNiceToHave,
}

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "List the priority-tagged policies derived from the specification",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		o, err := services.Compile.Assess(cmd.Context())
		if err != nil {
			return MapError(err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput() {
			return printJSON(out, o.Policies)
		}
		if len(o.Policies) == 0 {
			fmt.Fprintln(out, "No policies. Fill in the specification first.")
			return nil
		}

		grouped := policy.ByPriority(o.Policies)
		for _, p := range policyOrder {
			list := grouped[p]
			if len(list) == 0 {
				continue
			}
			fmt.Fprintf(out, "%s (%d)\n", titleStyle.Render(strings.ToUpper(string(p))), len(list))
			for _, pol := range list {
				fmt.Fprintf(out, "  %-18s %s\n", mutedStyle.Render(pol.ID), pol.Statement)
			}
		}
		return nil
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the specification file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(spec.SchemaJSON))
		return err
	},
}

func init() {
	lintCmd.Flags().BoolVar(&lintStrict, "strict", false, "Exit non-zero when critical findings exist")
	completenessCmd.Flags().BoolVar(&completenessFields, "fields", false, "List every field path and whether it is filled")
	RootCmd.AddCommand(lintCmd, scoreCmd, completenessCmd, validateCmd, graphCmd, policiesCmd, schemaCmd)
}
