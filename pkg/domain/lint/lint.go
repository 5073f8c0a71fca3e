package lint

import (
	"sort"

	"github.com/felixgeelhaar/agentforge/pkg/domain/prompt"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank orders severities, critical first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Finding is one detected weakness of a (spec, layers) pair.
type Finding struct {
	RuleID     string   `json:"rule_id"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Block      string   `json:"block,omitempty"`
	Field      string   `json:"field,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Rule checks one property of a spec and its rendered layers.
type Rule interface {
	ID() string
	Severity() Severity
	Check(s *spec.Specification, layers prompt.Package) *Finding
}

// Registry is an ordered rule catalog.
type Registry struct {
	Rules []Rule
}

// Run evaluates every rule and returns the findings sorted by severity,
// keeping catalog order within a severity.
func (r *Registry) Run(s *spec.Specification, layers prompt.Package) []Finding {
	findings := make([]Finding, 0)
	for _, rule := range r.Rules {
		if f := rule.Check(s, layers); f != nil {
			findings = append(findings, *f)
		}
	}
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Severity.Rank() < findings[j].Severity.Rank()
	})
	return findings
}

// Lookup returns the rule with the given id.
func (r *Registry) Lookup(id string) (Rule, bool) {
	for _, rule := range r.Rules {
		if rule.ID() == id {
			return rule, true
		}
	}
	return nil, false
}

// Run lints with the default catalog.
func Run(s *spec.Specification, layers prompt.Package) []Finding {
	return Default().Run(s, layers)
}

// Count tallies findings per severity.
func Count(findings []Finding) map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}
