package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/agentforge/pkg/application"
	"github.com/felixgeelhaar/agentforge/pkg/domain/ai"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
	"github.com/spf13/cobra"
)

var fillNotes string

var fillCmd = &cobra.Command{
	Use:       "fill <block>",
	Short:     "Draft one specification block with the AI provider",
	Long:      `Ask the configured AI provider to write one block of the specification from your notes and the blocks already filled in. The answer is schema-checked before it is merged and saved.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: spec.Blocks(),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		block := args[0]
		s, err := services.Assist.FillBlock(cmd.Context(), block, fillNotes)
		if err != nil {
			return MapError(err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput() {
			return printJSON(out, s)
		}
		res := spec.Completeness(s)
		fmt.Fprintf(out, "Updated %s in .agentforge/spec.yaml\n", titleStyle.Render(block))
		if score, ok := res.BlockScores[block]; ok {
			fmt.Fprintf(out, "%s is now %d%% complete (overall %d%%)\n", block, score, res.Overall)
		}
		fmt.Fprintln(out, mutedStyle.Render("Review the draft before compiling."))
		return nil
	},
}

var sandboxCmd = &cobra.Command{
	Use:   "sandbox [message]",
	Short: "Chat with the compiled agent",
	Long: `Send a message to the configured AI provider with the compiled prompt
package as system prompt and stream the reply. Without a message, read one
message per line from stdin until EOF or "exit".`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		out := cmd.OutOrStdout()
		if len(args) == 1 {
			return MapError(streamReply(cmd, services.Assist, args[0], out))
		}

		fmt.Fprintln(out, mutedStyle.Render("Sandbox ready. Type a message, or exit to quit."))
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				fmt.Fprintln(out)
				return scanner.Err()
			}
			msg := strings.TrimSpace(scanner.Text())
			switch msg {
			case "":
				continue
			case "exit", "quit":
				return nil
			}
			if err := streamReply(cmd, services.Assist, msg, out); err != nil {
				return MapError(err)
			}
			fmt.Fprintln(out)
		}
	},
}

func streamReply(cmd *cobra.Command, assist *application.AssistService, msg string, out io.Writer) error {
	chunks, err := assist.Sandbox(cmd.Context(), msg)
	if err != nil {
		return err
	}
	var usage *ai.TokenUsage
	for c := range chunks {
		if c.Err != nil {
			fmt.Fprintln(out)
			return c.Err
		}
		fmt.Fprint(out, c.Text)
		if c.Done {
			usage = c.Usage
		}
	}
	fmt.Fprintln(out)
	if usage != nil {
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("(%d in / %d out tokens)", usage.InputTokens, usage.OutputTokens)))
	}
	return nil
}

func init() {
	fillCmd.Flags().StringVar(&fillNotes, "notes", "", "Free-form notes describing what the block should say")
	RootCmd.AddCommand(fillCmd, sandboxCmd)
}
