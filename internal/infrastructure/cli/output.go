package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/felixgeelhaar/agentforge/pkg/domain/lint"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	statusOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	statusError = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func jsonOutput() bool {
	return outputFormat == "json"
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func severityStyle(s lint.Severity) lipgloss.Style {
	switch s {
	case lint.SeverityCritical:
		return statusError.Bold(true)
	case lint.SeverityHigh:
		return statusError
	case lint.SeverityMedium:
		return statusWarn
	}
	return mutedStyle
}

// scoreStyle colors a 0-100 score against the publish threshold.
func scoreStyle(score, threshold int) lipgloss.Style {
	switch {
	case score >= threshold:
		return statusOK
	case score >= threshold/2:
		return statusWarn
	}
	return statusError
}

func passFail(ok bool) string {
	if ok {
		return statusOK.Render("PASS")
	}
	return statusError.Render("FAIL")
}

// bar renders a 20-cell meter for a 0-100 value.
func bar(value int) string {
	filled := value / 5
	if filled < 0 {
		filled = 0
	}
	if filled > 20 {
		filled = 20
	}
	return strings.Repeat("█", filled) + mutedStyle.Render(strings.Repeat("░", 20-filled))
}

func findingsTable(findings []lint.Finding) string {
	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		field := f.Field
		if field == "" {
			field = f.Block
		}
		rows = append(rows, []string{string(f.Severity), f.RuleID, field, f.Message})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("SEVERITY", "RULE", "FIELD", "MESSAGE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			cell := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return cell.Bold(true)
			}
			if col == 0 && row >= 0 && row < len(findings) {
				return severityStyle(findings[row].Severity).Padding(0, 1)
			}
			return cell
		}).
		String()
}

func countsLine(counts map[lint.Severity]int) string {
	return fmt.Sprintf("%d critical, %d high, %d medium, %d low",
		counts[lint.SeverityCritical], counts[lint.SeverityHigh], counts[lint.SeverityMedium], counts[lint.SeverityLow])
}
