package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/felixgeelhaar/agentforge/pkg/domain/capability"
	"github.com/spf13/cobra"
)

var capabilitiesCmd = &cobra.Command{
	Use:     "capabilities",
	Aliases: []string{"caps"},
	Short:   "Inspect and toggle agent capabilities",
}

var capabilitiesCheckCmd = &cobra.Command{
	Use:   "check [capability]",
	Short: "Check that the spec fills the fields enabled capabilities require",
	Args:  cobra.MaximumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return completeCapabilities(cmd, args, toComplete)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		repo := services.Workspace.Repo
		s, err := repo.LoadSpec()
		if err != nil {
			return MapError(err)
		}

		var results []capability.CheckResult
		if len(args) == 1 {
			if _, err := capability.Lookup(args[0]); err != nil {
				return MapError(fmt.Errorf("%q: %w", args[0], err))
			}
			results = []capability.CheckResult{capability.CheckRequirements(args[0], s)}
		} else {
			caps, err := repo.LoadCapabilities()
			if err != nil {
				return err
			}
			results = capability.CheckAll(caps, s)
		}

		out := cmd.OutOrStdout()
		if jsonOutput() {
			return printJSON(out, results)
		}
		if len(results) == 0 {
			fmt.Fprintln(out, "No capabilities are enabled.")
			return nil
		}
		for _, r := range results {
			fmt.Fprintf(out, "%s %s\n", passFail(r.Valid), r.Capability)
			for _, b := range r.Blockers {
				fmt.Fprintf(out, "     missing %s\n", b)
			}
		}
		return nil
	},
}

var capabilitiesRecommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "List every capability with its requirements and current blockers",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		repo := services.Workspace.Repo
		s, err := repo.LoadSpec()
		if err != nil {
			return MapError(err)
		}
		caps, err := repo.LoadCapabilities()
		if err != nil {
			return err
		}
		recs := capability.Recommendations(caps, s)

		out := cmd.OutOrStdout()
		if jsonOutput() {
			return printJSON(out, recs)
		}
		category := ""
		for _, r := range recs {
			if r.Category != category {
				category = r.Category
				fmt.Fprintln(out, titleStyle.Render(category))
			}
			state := mutedStyle.Render("off")
			if r.Enabled {
				state = statusOK.Render("on ")
			}
			ready := statusOK.Render("ready")
			if len(r.Blockers) > 0 {
				ready = statusWarn.Render("needs " + strings.Join(r.Blockers, ", "))
			}
			fmt.Fprintf(out, "  %s %-20s %s\n", state, r.Capability, ready)
		}
		return nil
	},
}

func toggleCommand(use, short string, on bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <capability>...",
		Short: short,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeCapabilities,
		RunE: func(cmd *cobra.Command, args []string) error {
			services, release, err := loadWorkspace(cmd)
			if err != nil {
				return err
			}
			defer release()

			repo := services.Workspace.Repo
			caps, err := repo.LoadCapabilities()
			if err != nil {
				return err
			}
			toggles := make(map[string]bool, len(args))
			for _, name := range args {
				leaf, err := capability.Lookup(name)
				if err != nil {
					return MapError(fmt.Errorf("%q: %w", name, err))
				}
				toggles[name] = on
				if on {
					enableCategory(&caps, leaf.Category)
				}
			}
			caps = caps.WithToggles(toggles)
			if err := repo.SaveCapabilities(caps); err != nil {
				return fmt.Errorf("failed to save capabilities: %w", err)
			}

			verb := "Disabled"
			if on {
				verb = "Enabled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, strings.Join(args, ", "))
			return nil
		},
	}
}

// completeCapabilities offers the catalog leaves not already named on the
// command line.
func completeCapabilities(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var names []string
	for _, leaf := range capability.Leaves() {
		if slices.Contains(args, leaf.Name) || !strings.HasPrefix(leaf.Name, toComplete) {
			continue
		}
		names = append(names, leaf.Name+"\t"+leaf.Description)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// enableCategory switches on the category a leaf belongs to, since a leaf
// only takes effect inside an enabled category.
func enableCategory(c *capability.Config, category string) {
	switch category {
	case capability.CategoryInformation:
		c.Information.Enabled = true
	case capability.CategoryProduction:
		c.Production.Enabled = true
	case capability.CategoryDecisionSupport:
		c.DecisionSupport.Enabled = true
	case capability.CategoryAutomation:
		c.Automation.Enabled = true
	}
}

func init() {
	capabilitiesCmd.AddCommand(
		capabilitiesCheckCmd,
		capabilitiesRecommendCmd,
		toggleCommand("enable", "Switch capabilities on in capabilities.yaml", true),
		toggleCommand("disable", "Switch capabilities off in capabilities.yaml", false),
	)
	RootCmd.AddCommand(capabilitiesCmd)
}
