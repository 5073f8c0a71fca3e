package cli

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/agentforge/pkg/domain/testcase"
	"github.com/spf13/cobra"
)

var (
	testsCount    int
	testsExpected string
	testsTags     []string
	testsPassed   bool
	testsFailed   bool
	testsOutput   string
)

var testsCmd = &cobra.Command{
	Use:   "tests",
	Short: "Manage the test cases that feed the publish gate",
}

var testsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Ask the AI provider to draft test cases from the specification",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		cases, err := services.Assist.GenerateTestCases(cmd.Context(), testsCount)
		if err != nil {
			return MapError(fmt.Errorf("failed to generate test cases: %w", err))
		}

		out := cmd.OutOrStdout()
		if jsonOutput() {
			return printJSON(out, cases)
		}
		fmt.Fprintf(out, "Generated %d test case(s):\n", len(cases))
		printCases(cmd, cases)
		return nil
	},
}

var testsAddCmd = &cobra.Command{
	Use:   "add <input>",
	Short: "Add a test case by hand",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(testsExpected) == "" {
			return NewCLIError("--expect is required", "Describe the behavior the agent should show for this input", nil)
		}
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		tc := testcase.Case{
			Input:            strings.TrimSpace(args[0]),
			ExpectedBehavior: strings.TrimSpace(testsExpected),
			Tags:             testsTags,
		}
		if err := services.Tests.AddTestCase(cmd.Context(), &tc); err != nil {
			return fmt.Errorf("failed to add test case: %w", err)
		}
		if jsonOutput() {
			return printJSON(cmd.OutOrStdout(), tc)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added test case %s\n", tc.ID)
		return nil
	},
}

var testsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored test cases",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		ctx := cmd.Context()
		cases, err := services.Tests.ListTestCases(ctx)
		if err != nil {
			return err
		}
		rate, err := services.Tests.PassRate(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput() {
			return printJSON(out, map[string]any{"test_cases": cases, "pass_rate": rate})
		}
		if len(cases) == 0 {
			fmt.Fprintln(out, "No test cases. Run 'agentforge tests generate' or 'agentforge tests add'.")
			return nil
		}
		printCases(cmd, cases)
		if rate != nil {
			fmt.Fprintf(out, "\nPass rate: %.0f%%\n", *rate)
		} else {
			fmt.Fprintln(out, "\nPass rate: not run yet")
		}
		return nil
	},
}

var testsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a test case and its runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		if err := services.Tests.DeleteTestCase(cmd.Context(), args[0]); err != nil {
			return NewCLIError("failed to delete test case "+args[0], "Run 'agentforge tests list' to see test case ids", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted test case %s\n", args[0])
		return nil
	},
}

var testsRecordCmd = &cobra.Command{
	Use:   "record <id>",
	Short: "Record a manual run result for a test case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if testsPassed == testsFailed {
			return NewCLIError("pass exactly one of --pass or --fail", "", nil)
		}
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		run := testcase.Run{TestCaseID: args[0], Passed: testsPassed, Output: testsOutput}
		if err := services.Tests.RecordRun(cmd.Context(), &run); err != nil {
			return NewCLIError("failed to record run for "+args[0], "Run 'agentforge tests list' to see test case ids", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for %s\n", passFail(run.Passed), args[0])
		return nil
	},
}

var testsRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every test case against the compiled agent and judge the answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		runs, err := services.Assist.RunTestCases(cmd.Context())
		if err != nil {
			return MapError(fmt.Errorf("test run stopped after %d case(s): %w", len(runs), err))
		}

		out := cmd.OutOrStdout()
		if jsonOutput() {
			return printJSON(out, runs)
		}
		passed := 0
		for _, r := range runs {
			if r.Passed {
				passed++
			}
			fmt.Fprintf(out, "%s %s\n", passFail(r.Passed), r.TestCaseID)
		}
		fmt.Fprintf(out, "\n%d/%d passed\n", passed, len(runs))
		return nil
	},
}

func printCases(cmd *cobra.Command, cases []testcase.Case) {
	out := cmd.OutOrStdout()
	for _, tc := range cases {
		fmt.Fprintf(out, "%s %s\n", mutedStyle.Render(tc.ID), tc.Input)
		if tc.ExpectedBehavior != "" {
			fmt.Fprintf(out, "    expect: %s\n", tc.ExpectedBehavior)
		}
		if len(tc.Tags) > 0 {
			fmt.Fprintf(out, "    tags:   %s\n", strings.Join(tc.Tags, ", "))
		}
	}
}

func init() {
	testsGenerateCmd.Flags().IntVarP(&testsCount, "count", "n", 5, "Number of test cases to request")
	testsAddCmd.Flags().StringVar(&testsExpected, "expect", "", "Expected behavior")
	testsAddCmd.Flags().StringSliceVar(&testsTags, "tag", nil, "Tags for the test case")
	testsRecordCmd.Flags().BoolVar(&testsPassed, "pass", false, "Record a passing run")
	testsRecordCmd.Flags().BoolVar(&testsFailed, "fail", false, "Record a failing run")
	testsRecordCmd.Flags().StringVar(&testsOutput, "output-text", "", "Agent answer to store with the run")

	testsCmd.AddCommand(testsGenerateCmd, testsAddCmd, testsListCmd, testsDeleteCmd, testsRecordCmd, testsRunCmd)
	RootCmd.AddCommand(testsCmd)
}
