package gate_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/felixgeelhaar/agentforge/pkg/domain/compiler"
	"github.com/felixgeelhaar/agentforge/pkg/domain/gate"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lint"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec/spectest"
)

func TestEvaluate_ScoreJustBelowThreshold(t *testing.T) {
	res := gate.Evaluate(69, nil, 1, nil)

	if res.Passed {
		t.Fatal("score 69 should not pass")
	}
	want := []string{"Quality score 69 is below the required 70"}
	if diff := cmp.Diff(want, res.Reasons); diff != "" {
		t.Errorf("reasons mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluate_Table(t *testing.T) {
	critical := []lint.Finding{{RuleID: "no-output-format", Severity: lint.SeverityCritical}}
	high := []lint.Finding{{RuleID: "no-refusals", Severity: lint.SeverityHigh}}

	tests := []struct {
		name      string
		score     int
		findings  []lint.Finding
		testCases int
		passed    bool
		reasons   int
	}{
		{"all good", 70, nil, 1, true, 0},
		{"high findings do not block", 85, high, 3, true, 0},
		{"critical blocks", 90, critical, 1, false, 1},
		{"no tests", 90, nil, 0, false, 1},
		{"everything wrong", 10, critical, 0, false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := gate.Evaluate(tt.score, tt.findings, tt.testCases, nil)
			if res.Passed != tt.passed || len(res.Reasons) != tt.reasons {
				t.Errorf("got passed=%v reasons=%v, want passed=%v with %d reasons", res.Passed, res.Reasons, tt.passed, tt.reasons)
			}
		})
	}
}

func TestEvaluate_ReasonOrder(t *testing.T) {
	res := gate.Evaluate(10, []lint.Finding{{Severity: lint.SeverityCritical}, {Severity: lint.SeverityCritical}}, 0, nil)
	want := []string{
		"Quality score 10 is below the required 70",
		"2 critical lint finding(s) must be resolved",
		"At least one test case is required before publishing",
	}
	if diff := cmp.Diff(want, res.Reasons); diff != "" {
		t.Errorf("reasons mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluate_PassRateIsInformational(t *testing.T) {
	low := 40.0
	res := gate.Evaluate(90, nil, 2, &low)
	if !res.Passed {
		t.Error("a low pass rate must not block publishing")
	}
	if res.Details.TestPassRate == nil || res.Details.TestPassRate.Passed {
		t.Errorf("pass rate detail = %+v, want reported as failing", res.Details.TestPassRate)
	}

	if res := gate.Evaluate(90, nil, 2, nil); res.Details.TestPassRate != nil {
		t.Error("pass rate detail should be omitted when unknown")
	}
}

func TestCheckPublishGates_NoSpec(t *testing.T) {
	res := gate.CheckPublishGates(gate.Input{TestCaseCount: 5})
	if res.Passed {
		t.Fatal("missing spec should not pass")
	}
	if diff := cmp.Diff([]string{"No specification found"}, res.Reasons); diff != "" {
		t.Errorf("reasons mismatch (-want +got):\n%s", diff)
	}
	if res.Details.QualityScore.Value != 0 || res.Details.TestCases.Value != 0 {
		t.Errorf("details should be zeroed, got %+v", res.Details)
	}
}

func TestCheckPublishGates_InvalidSpec(t *testing.T) {
	s := spectest.MinimalValid()
	s.Safety.Refusals = nil

	res := gate.CheckPublishGates(gate.Input{Spec: &s, TestCaseCount: 1})
	if res.Passed {
		t.Fatal("invalid spec should not pass")
	}
	if !strings.HasPrefix(res.Reasons[0], "Spec incomplete: safety.refusals") {
		t.Errorf("first reason = %q", res.Reasons[0])
	}
}

func TestCheckPublishGates_MatchesCompile(t *testing.T) {
	s := spectest.Full()
	out, err := compiler.Compile(compiler.Input{Spec: s})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	for _, tests := range []int{0, 4} {
		res := gate.CheckPublishGates(gate.Input{Spec: &s, TestCaseCount: tests})

		if res.Details.QualityScore.Value != out.QualityScore.Overall {
			t.Errorf("gate score %d differs from compile score %d", res.Details.QualityScore.Value, out.QualityScore.Overall)
		}
		want := out.QualityScore.Overall >= gate.MinQualityScore && tests > 0
		if res.Passed != want {
			t.Errorf("tests=%d: passed = %v, want %v (reasons %v)", tests, res.Passed, want, res.Reasons)
		}
	}
}

func TestCheckPublishGates_EmptySpecNeverPanics(t *testing.T) {
	res := gate.CheckPublishGates(gate.Input{Spec: &spec.Specification{}})
	if res.Passed || len(res.Reasons) != 4 {
		t.Errorf("empty spec: passed=%v reasons=%v", res.Passed, res.Reasons)
	}
}
