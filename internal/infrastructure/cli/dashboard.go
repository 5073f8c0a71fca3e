package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/agentforge/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/agentforge/pkg/domain/compiler"
	"github.com/felixgeelhaar/agentforge/pkg/domain/gate"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lifecycle"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		defer release()

		if os.Getenv("AGENTFORGE_SKIP_DASHBOARD_RUN") == "true" {
			return nil
		}
		p := tea.NewProgram(newDashboardModel(cmd.Context(), services), tea.WithContext(cmd.Context()))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("dashboard run failed: %w", err)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(dashboardCmd)
}

// Styles
var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	PaddingLeft(1).
	PaddingRight(1)

// dashboardData is one snapshot of the workspace.
type dashboardData struct {
	state     string
	output    *compiler.Output
	gate      gate.Result
	testCases int
	err       error
}

type refreshMsg dashboardData

type dashboardModel struct {
	ctx      context.Context
	services *wiring.AppServices
	table    table.Model
	data     dashboardData
	loading  bool
}

func newDashboardModel(ctx context.Context, services *wiring.AppServices) dashboardModel {
	columns := []table.Column{
		{Title: "Severity", Width: 9},
		{Title: "Rule", Width: 26},
		{Title: "Field", Width: 24},
		{Title: "Message", Width: 50},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229"))
	t.SetStyles(s)

	return dashboardModel{ctx: ctx, services: services, table: t, loading: true}
}

// loadDashboard assesses the spec without saving a build and evaluates the
// gate thresholds against it. Nothing is written to history.
func loadDashboard(ctx context.Context, services *wiring.AppServices) dashboardData {
	var d dashboardData

	rec, err := services.Workspace.Repo.LoadLifecycle()
	if err != nil {
		return dashboardData{err: err}
	}
	d.state = rec.State

	if d.output, err = services.Compile.Assess(ctx); err != nil {
		return dashboardData{state: d.state, err: err}
	}

	var rate *float64
	if services.Tests != nil {
		if d.testCases, err = services.Tests.Count(ctx); err != nil {
			return dashboardData{state: d.state, err: err}
		}
		if rate, err = services.Tests.PassRate(ctx); err != nil {
			return dashboardData{state: d.state, err: err}
		}
	}
	d.gate = gate.Evaluate(d.output.QualityScore.Overall, d.output.LintFindings, d.testCases, rate)
	return d
}

func (m dashboardModel) refresh() tea.Msg {
	return refreshMsg(loadDashboard(m.ctx, m.services))
}

func (m dashboardModel) Init() tea.Cmd { return m.refresh }

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, m.refresh
		}
	case refreshMsg:
		m.loading = false
		m.data = dashboardData(msg)
		m.table.SetRows(findingRows(m.data.output))
		return m, nil
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func findingRows(o *compiler.Output) []table.Row {
	if o == nil {
		return nil
	}
	rows := make([]table.Row, 0, len(o.LintFindings))
	for _, f := range o.LintFindings {
		field := f.Field
		if field == "" {
			field = f.Block
		}
		rows = append(rows, table.Row{string(f.Severity), f.RuleID, field, f.Message})
	}
	return rows
}

func (m dashboardModel) View() string {
	if m.loading && m.data.output == nil && m.data.err == nil {
		return "Loading workspace..."
	}
	if m.data.err != nil {
		return fmt.Sprintf("Error loading dashboard: %v\nPress r to retry, q to quit.", MapError(m.data.err))
	}

	o := m.data.output
	q := o.QualityScore
	header := headerStyle.Render(fmt.Sprintf("agentforge · %s", m.data.state))

	var scores strings.Builder
	for _, row := range []struct {
		label string
		value int
	}{
		{"Overall", q.Overall},
		{"Completeness", q.SpecCompleteness},
		{"Clarity", q.InstructionClarity},
		{"Safety", q.SafetyClarity},
		{"Output contract", q.OutputContractStrength},
	} {
		fmt.Fprintf(&scores, "%-16s %s %3d\n", row.label, bar(row.value), row.value)
	}

	gateView := statusOK.Render("Publish gate: PASS")
	if !m.data.gate.Passed {
		gateView = statusError.Render("Publish gate: FAIL") + "\n- " + strings.Join(m.data.gate.Reasons, "\n- ")
	}
	if m.data.state == lifecycle.StatePublished {
		gateView += mutedStyle.Render("  (published)")
	}

	findings := statusOK.Render("\nNo lint findings.")
	if len(o.LintFindings) > 0 {
		findings = "\nLint findings:\n" + m.table.View()
	}

	help := mutedStyle.Render(fmt.Sprintf("\n%d test case(s) · r refresh · q quit", m.data.testCases))

	return baseStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			scores.String(),
			gateView,
			findings,
			help,
		),
	) + "\n"
}
