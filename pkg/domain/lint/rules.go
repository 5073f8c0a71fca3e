package lint

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/agentforge/pkg/domain/prompt"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
)

const (
	MinMustDo         = 3
	MinBackboneLength = 100
)

// fieldRule fires when a spec field is not filled.
type fieldRule struct {
	id         string
	severity   Severity
	path       string
	message    string
	suggestion string
}

func (r fieldRule) ID() string         { return r.id }
func (r fieldRule) Severity() Severity { return r.severity }

func (r fieldRule) Check(s *spec.Specification, _ prompt.Package) *Finding {
	if spec.IsFilled(s, r.path) {
		return nil
	}
	return &Finding{
		RuleID:     r.id,
		Severity:   r.severity,
		Message:    r.message,
		Block:      spec.MustField(r.path).Block,
		Field:      r.path,
		Suggestion: r.suggestion,
	}
}

// funcRule wraps an arbitrary predicate.
type funcRule struct {
	id       string
	severity Severity
	check    func(s *spec.Specification, layers prompt.Package) *Finding
}

func (r funcRule) ID() string         { return r.id }
func (r funcRule) Severity() Severity { return r.severity }

func (r funcRule) Check(s *spec.Specification, layers prompt.Package) *Finding {
	f := r.check(s, layers)
	if f != nil {
		f.RuleID = r.id
		f.Severity = r.severity
	}
	return f
}

// Default returns the canonical catalog. Rules are grouped by severity.
func Default() *Registry {
	return &Registry{Rules: []Rule{
		fieldRule{"missing-mission-problem", SeverityCritical, "mission.problem",
			"Mission problem statement is missing",
			"Describe the problem the agent solves in one or two sentences"},
		fieldRule{"no-success-criteria", SeverityCritical, "mission.success_criteria",
			"No success criteria defined",
			"Add at least one measurable success criterion"},
		fieldRule{"no-out-of-scope", SeverityCritical, "scope.out_of_scope",
			"No out-of-scope items defined",
			"List what the agent must never do so it can decline off-topic requests"},
		fieldRule{"no-output-format", SeverityCritical, "io_contracts.outputs.format",
			"Output format is not specified",
			"State the output format, e.g. markdown or JSON"},
		fieldRule{"no-input-contracts", SeverityCritical, "io_contracts.inputs",
			"No input contracts defined",
			"Describe at least one input the agent accepts"},

		fieldRule{"no-refusals", SeverityHigh, "safety.refusals",
			"No refusal scenarios defined",
			"Add requests the agent must refuse"},
		fieldRule{"no-good-examples", SeverityHigh, "examples.good",
			"No good examples provided",
			"Add at least one example of an ideal response"},
		funcRule{"contradictory-constraints", SeverityHigh, checkContradictions},

		funcRule{"few-must-do", SeverityMedium, checkMustDo},
		funcRule{"short-system-backbone", SeverityMedium, checkBackbone},
		fieldRule{"missing-audience-tone", SeverityMedium, "audience.tone",
			"Audience tone is not specified",
			"Describe the tone the agent should use"},

		fieldRule{"no-bad-examples", SeverityLow, "examples.bad",
			"No bad examples provided",
			"Add an example of a response to avoid"},
		fieldRule{"no-domain-tags", SeverityLow, "metadata.domain_tags",
			"No domain tags set",
			"Tag the spec with its domain to improve discovery"},
	}}
}

func checkMustDo(s *spec.Specification, _ prompt.Package) *Finding {
	n := countFilled(s.Scope.MustDo)
	if n >= MinMustDo {
		return nil
	}
	return &Finding{
		Message:    fmt.Sprintf("Only %d must-do item(s) defined, at least %d recommended", n, MinMustDo),
		Block:      spec.BlockScope,
		Field:      "scope.must_do",
		Suggestion: "Break the agent's core duties into at least three must-do items",
	}
}

func checkBackbone(_ *spec.Specification, layers prompt.Package) *Finding {
	n := len([]rune(layers.SystemBackbone))
	if n >= MinBackboneLength {
		return nil
	}
	return &Finding{
		Message:    fmt.Sprintf("System backbone is only %d characters long", n),
		Block:      spec.BlockMission,
		Suggestion: "Expand the mission, success criteria and audience description",
	}
}

var brevityWords = []string{"brief", "short", "concise", "one sentence", "terse"}

func checkContradictions(s *spec.Specification, _ prompt.Package) *Finding {
	length := strings.ToLower(s.Constraints.Length)
	citation := strings.ToLower(s.Constraints.CitationPolicy)
	verification := strings.ToLower(s.Constraints.Verification)

	if containsAny(length, brevityWords...) && strings.Contains(citation, "always cite") {
		return &Finding{
			Message:    "Length asks for brief answers while the citation policy requires citing every claim",
			Block:      spec.BlockConstraints,
			Field:      "constraints.length",
			Suggestion: "Relax the length limit or cite only key claims",
		}
	}
	if containsAny(citation, "never cite", "no citations") && containsAny(verification, "source", "cite", "citation") {
		return &Finding{
			Message:    "Citation policy forbids citations while verification relies on sources",
			Block:      spec.BlockConstraints,
			Field:      "constraints.citation_policy",
			Suggestion: "Allow citations or verify without referencing sources",
		}
	}
	return nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func countFilled(items []string) int {
	n := 0
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			n++
		}
	}
	return n
}
