// Package gate decides whether a compiled specification may be published.
package gate

import (
	"fmt"

	"github.com/felixgeelhaar/agentforge/pkg/domain/capability"
	"github.com/felixgeelhaar/agentforge/pkg/domain/compiler"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lint"
	"github.com/felixgeelhaar/agentforge/pkg/domain/prompt"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
)

// Thresholds.
const (
	MinQualityScore = 70
	MaxCritical     = 0
	MinTestCases    = 1
	TargetPassRate  = 80.0
	NoSpecReason    = "No specification found"
)

// Check is one threshold comparison.
type Check struct {
	Passed    bool `json:"passed"`
	Value     int  `json:"value"`
	Threshold int  `json:"threshold"`
}

// PassRateCheck is informational and never affects the gate outcome.
type PassRateCheck struct {
	Passed    bool     `json:"passed"`
	Value     *float64 `json:"value"`
	Threshold float64  `json:"threshold"`
}

type Details struct {
	QualityScore     Check          `json:"quality_score"`
	CriticalFindings Check          `json:"critical_findings"`
	TestCases        Check          `json:"test_cases"`
	TestPassRate     *PassRateCheck `json:"test_pass_rate,omitempty"`
}

// Result is the publish decision with one reason per failing check.
type Result struct {
	Passed  bool     `json:"passed"`
	Reasons []string `json:"reasons"`
	Details Details  `json:"details"`
}

// Evaluate applies the thresholds to already computed values. passRate is
// optional and only reported.
func Evaluate(score int, findings []lint.Finding, testCases int, passRate *float64) Result {
	critical := lint.Count(findings)[lint.SeverityCritical]

	d := Details{
		QualityScore:     Check{Passed: score >= MinQualityScore, Value: score, Threshold: MinQualityScore},
		CriticalFindings: Check{Passed: critical <= MaxCritical, Value: critical, Threshold: MaxCritical},
		TestCases:        Check{Passed: testCases >= MinTestCases, Value: testCases, Threshold: MinTestCases},
	}
	if passRate != nil {
		rate := *passRate
		d.TestPassRate = &PassRateCheck{Passed: rate >= TargetPassRate, Value: &rate, Threshold: TargetPassRate}
	}

	reasons := make([]string, 0, 3)
	if !d.QualityScore.Passed {
		reasons = append(reasons, fmt.Sprintf("Quality score %d is below the required %d", score, MinQualityScore))
	}
	if !d.CriticalFindings.Passed {
		reasons = append(reasons, fmt.Sprintf("%d critical lint finding(s) must be resolved", critical))
	}
	if !d.TestCases.Passed {
		reasons = append(reasons, "At least one test case is required before publishing")
	}

	return Result{
		Passed:  d.QualityScore.Passed && d.CriticalFindings.Passed && d.TestCases.Passed,
		Reasons: reasons,
		Details: d,
	}
}

// Input carries the spec snapshot and the externally known test figures.
type Input struct {
	Spec          *spec.Specification
	Capabilities  capability.Config
	KnowledgeMap  *prompt.KnowledgeMap
	TestCaseCount int
	TestPassRate  *float64
}

// CheckPublishGates compiles the spec afresh and evaluates the gate. It
// never returns an error: a missing spec or failed validation is reported
// as a reason.
func CheckPublishGates(in Input) Result {
	if in.Spec == nil {
		return Result{
			Passed:  false,
			Reasons: []string{NoSpecReason},
			Details: Details{
				QualityScore:     Check{Threshold: MinQualityScore},
				CriticalFindings: Check{Threshold: MaxCritical},
				TestCases:        Check{Threshold: MinTestCases},
			},
		}
	}

	out := compiler.Assess(compiler.Input{
		Spec:         *in.Spec,
		Capabilities: in.Capabilities,
		KnowledgeMap: in.KnowledgeMap,
	})
	res := Evaluate(out.QualityScore.Overall, out.LintFindings, in.TestCaseCount, in.TestPassRate)

	if err := out.Validation.Err(); err != nil {
		res.Passed = false
		res.Reasons = append([]string{err.Error()}, res.Reasons...)
	}
	return res
}
