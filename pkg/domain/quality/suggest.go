package quality

import "github.com/felixgeelhaar/agentforge/pkg/domain/lint"

type SuggestionType string

const (
	SuggestionFix     SuggestionType = "fix"
	SuggestionImprove SuggestionType = "improve"
	SuggestionAdd     SuggestionType = "add"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Suggestion is one prioritized next step for the spec author.
type Suggestion struct {
	Type       SuggestionType `json:"type"`
	Message    string         `json:"message"`
	Priority   Priority       `json:"priority"`
	Actionable bool           `json:"actionable"`
}

// scoreRules are evaluated in order after the finding-derived suggestions.
var scoreRules = []struct {
	applies    func(Score) bool
	suggestion Suggestion
}{
	{func(s Score) bool { return s.Overall < 50 },
		Suggestion{SuggestionImprove, "Focus on completing required fields before refining details", PriorityHigh, false}},
	{func(s Score) bool { return s.SpecCompleteness < 80 },
		Suggestion{SuggestionAdd, "Fill in missing required fields to raise spec completeness", PriorityHigh, true}},
	{func(s Score) bool { return s.InstructionClarity < 70 },
		Suggestion{SuggestionImprove, "Add more detail to the mission, scope and output contracts", PriorityMedium, true}},
	{func(s Score) bool { return s.SafetyClarity < 70 },
		Suggestion{SuggestionAdd, "Add refusal scenarios and sensitive topics", PriorityHigh, true}},
	{func(s Score) bool { return s.OutputContractStrength < 80 },
		Suggestion{SuggestionAdd, "Add output sections and style rules", PriorityMedium, true}},
}

// Suggest turns critical and high findings into fixes, then appends
// threshold-based suggestions for weak sub-scores.
func Suggest(findings []lint.Finding, score Score) []Suggestion {
	out := make([]Suggestion, 0)
	for _, sev := range []lint.Severity{lint.SeverityCritical, lint.SeverityHigh} {
		priority := PriorityHigh
		if sev == lint.SeverityHigh {
			priority = PriorityMedium
		}
		for _, f := range findings {
			if f.Severity != sev {
				continue
			}
			msg := f.Suggestion
			if msg == "" {
				msg = f.Message
			}
			out = append(out, Suggestion{Type: SuggestionFix, Message: msg, Priority: priority, Actionable: true})
		}
	}

	for _, r := range scoreRules {
		if r.applies(score) {
			out = append(out, r.suggestion)
		}
	}
	return out
}
