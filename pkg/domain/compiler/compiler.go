// Package compiler runs the full pipeline that turns a specification into a
// prompt package with lint findings, a quality score and suggestions.
//
// Every stage is a pure function over values. Compile fails only when the
// normalized spec does not pass validation.
package compiler

import (
	"github.com/felixgeelhaar/agentforge/pkg/domain/capability"
	"github.com/felixgeelhaar/agentforge/pkg/domain/graph"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lint"
	"github.com/felixgeelhaar/agentforge/pkg/domain/policy"
	"github.com/felixgeelhaar/agentforge/pkg/domain/prompt"
	"github.com/felixgeelhaar/agentforge/pkg/domain/quality"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
)

// Input is everything a compile needs.
type Input struct {
	Spec         spec.Specification   `json:"spec"`
	Capabilities capability.Config    `json:"capabilities"`
	KnowledgeMap *prompt.KnowledgeMap `json:"knowledge_map,omitempty"`
	ToolToggles  map[string]bool      `json:"tool_toggles,omitempty"`
}

// Output is the result of a successful compile.
type Output struct {
	PromptPackage prompt.Package           `json:"prompt_package"`
	LintFindings  []lint.Finding           `json:"lint_findings"`
	QualityScore  quality.Score            `json:"quality_score"`
	Suggestions   []quality.Suggestion     `json:"suggestions"`
	Policies      []policy.Policy          `json:"policies"`
	Completeness  spec.CompletenessResult  `json:"completeness"`
	Validation    spec.ValidationResult    `json:"validation"`
	Graph         *graph.RequirementGraph  `json:"graph"`
	Capabilities  []capability.CheckResult `json:"capability_checks"`
}

// Compile normalizes and validates the spec, then runs every downstream
// stage. An invalid spec yields a *spec.IncompleteError and no output.
func Compile(in Input) (*Output, error) {
	n := spec.Normalize(in.Spec)
	v := spec.Validate(n)
	if err := v.Err(); err != nil {
		return nil, err
	}
	out := run(n, in)
	out.Validation = v
	return out, nil
}

// Assess runs the pipeline without the validation gate. It is used where an
// invalid spec must still be scored, such as the publish gate.
func Assess(in Input) *Output {
	n := spec.Normalize(in.Spec)
	out := run(n, in)
	out.Validation = spec.Validate(n)
	return out
}

func run(n spec.Normalized, in Input) *Output {
	caps := in.Capabilities.WithToggles(in.ToolToggles)
	s := &n.Specification

	g := graph.Build(n)
	policies := policy.Expand(g, caps)
	layers := prompt.Generate(n, caps, in.KnowledgeMap)
	findings := lint.Run(s, layers)
	score := quality.Compute(s, layers, findings)

	return &Output{
		PromptPackage: layers,
		LintFindings:  findings,
		QualityScore:  score,
		Suggestions:   quality.Suggest(findings, score),
		Policies:      policies,
		Completeness:  spec.Completeness(s),
		Graph:         g,
		Capabilities:  capability.CheckAll(caps, s),
	}
}
