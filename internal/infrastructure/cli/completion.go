package cli

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:       "completion <bash|zsh|fish|powershell>",
	Short:     "Generate shell completion scripts",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return RootCmd.GenBashCompletionV2(out, true)
		case "zsh":
			return RootCmd.GenZshCompletion(out)
		case "fish":
			return RootCmd.GenFishCompletion(out, true)
		default:
			return RootCmd.GenPowerShellCompletionWithDesc(out)
		}
	},
}

func init() {
	RootCmd.AddCommand(completionCmd)
}
