package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/agentforge/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
)

// resetFlags restores flag variables, which outlive a single Execute.
func resetFlags() {
	projectPath = ""
	outputFormat = "text"
	initProvider, initModel = "", ""
	compileEnable, compileDisable = nil, nil
	lintStrict, completenessFields = false, false
	historyVerify = false
	testsCount, testsExpected, testsTags = 5, "", nil
	testsPassed, testsFailed, testsOutput = false, false, ""
	fillNotes = ""
	batchParallel = 0
}

func runCLI(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()
	return runCLIContext(context.Background(), t, root, "", args...)
}

func runCLIContext(ctx context.Context, t *testing.T, root, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("AGENTFORGE_AI_PROVIDER", "mock")
	resetFlags()

	var out, errOut bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&errOut)
	RootCmd.SetIn(strings.NewReader(stdin))
	RootCmd.SetArgs(append([]string{"--project", root}, args...))
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetIn(nil)
		RootCmd.SetArgs(nil)
	})

	err := RootCmd.ExecuteContext(ctx)
	return out.String(), err
}

// initWorkspace runs init in a fresh directory and optionally replaces the
// starter spec.
func initWorkspace(t *testing.T, s *spec.Specification) string {
	t.Helper()
	root := t.TempDir()
	if _, err := runCLI(t, root, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if s != nil {
		if err := wiring.NewWorkspace(root).Repo.SaveSpec(s); err != nil {
			t.Fatalf("save spec: %v", err)
		}
	}
	return root
}

func requireCLIError(t *testing.T, err error) *CLIError {
	t.Helper()
	var cliErr *CLIError
	if !errors.As(err, &cliErr) {
		t.Fatalf("expected *CLIError, got %T: %v", err, err)
	}
	return cliErr
}
