package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/felixgeelhaar/agentforge/internal/infrastructure/config"
	"github.com/felixgeelhaar/agentforge/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/agentforge/pkg/domain/compiler"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lint"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec/spectest"
)

func dashboardServices(t *testing.T, root string) *wiring.AppServices {
	t.Helper()
	cfg := config.Defaults()
	cfg.AI.Provider = "mock"
	services, err := wiring.BuildAppServices(root, &cfg, nil)
	if err != nil {
		t.Fatalf("BuildAppServices: %v", err)
	}
	t.Cleanup(func() { _ = services.Close() })
	return services
}

func TestDashboard_StarterSpec(t *testing.T) {
	root := initWorkspace(t, nil)
	services := dashboardServices(t, root)

	m := newDashboardModel(context.Background(), services)
	if got := m.View(); got != "Loading workspace..." {
		t.Fatalf("initial view = %q", got)
	}

	updated, _ := m.Update(refreshMsg(loadDashboard(context.Background(), services)))
	view := updated.View()
	for _, want := range []string{"agentforge · draft", "Publish gate: FAIL", "At least one test case is required before publishing", "Lint findings:"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestDashboard_FullSpecWithTests(t *testing.T) {
	full := spectest.Full()
	root := initWorkspace(t, &full)
	if _, err := runCLI(t, root, "tests", "add", "What can you do?", "--expect", "Lists its capabilities"); err != nil {
		t.Fatalf("tests add: %v", err)
	}
	services := dashboardServices(t, root)

	d := loadDashboard(context.Background(), services)
	if d.err != nil {
		t.Fatalf("loadDashboard: %v", d.err)
	}
	if d.testCases != 1 {
		t.Errorf("testCases = %d, want 1", d.testCases)
	}
	if got := lint.Count(d.output.LintFindings)[lint.SeverityCritical]; got != 0 {
		t.Errorf("critical findings = %d, want 0", got)
	}
	if strings.Contains(strings.Join(d.gate.Reasons, "\n"), "test case") {
		t.Errorf("unexpected test case reason: %v", d.gate.Reasons)
	}
}

func TestDashboard_ErrorView(t *testing.T) {
	m := dashboardModel{data: dashboardData{err: errors.New("boom")}}
	if !strings.Contains(m.View(), "Error loading dashboard: boom") {
		t.Errorf("view = %q", m.View())
	}
}

func TestDashboard_Keys(t *testing.T) {
	m := dashboardModel{data: dashboardData{output: &compiler.Output{}}}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should produce a QuitMsg")
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil || !next.(dashboardModel).loading {
		t.Error("r should start a refresh")
	}
}

func TestFindingRows(t *testing.T) {
	if rows := findingRows(nil); rows != nil {
		t.Errorf("rows = %v, want nil", rows)
	}
	rows := findingRows(&compiler.Output{LintFindings: []lint.Finding{
		{RuleID: "r1", Severity: lint.SeverityHigh, Block: "safety", Message: "m"},
	}})
	if len(rows) != 1 || rows[0][2] != "safety" {
		t.Errorf("rows = %v, want the block as field", rows)
	}
}
