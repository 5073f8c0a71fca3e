// Package quality computes the composite readiness score of a compiled
// specification and turns weaknesses into suggestions.
package quality

import (
	"math"

	"github.com/felixgeelhaar/agentforge/pkg/domain/lint"
	"github.com/felixgeelhaar/agentforge/pkg/domain/prompt"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
)

// Score is a set of bounded 0-100 sub-scores and their penalized aggregate.
type Score struct {
	Overall                int `json:"overall"`
	SpecCompleteness       int `json:"spec_completeness"`
	InstructionClarity     int `json:"instruction_clarity"`
	SafetyClarity          int `json:"safety_clarity"`
	OutputContractStrength int `json:"output_contract_strength"`
	TestCoverage           int `json:"test_coverage"`
}

// Weights of each sub-score in the overall score.
const (
	WeightCompleteness = 0.30
	WeightClarity      = 0.25
	WeightSafety       = 0.15
	WeightOutput       = 0.15
	WeightTestCoverage = 0.15
)

// Penalties per lint finding.
const (
	PenaltyCritical = 10
	PenaltyHigh     = 5
)

// ClarityTargetLength is the layer length that earns full instruction clarity.
const ClarityTargetLength = 2000

// Compute scores a spec, its rendered layers and its lint findings. Test
// coverage is not known at compile time and is always 0 here.
func Compute(s *spec.Specification, layers prompt.Package, findings []lint.Finding) Score {
	score := Score{
		SpecCompleteness:       spec.Completeness(s).Overall,
		InstructionClarity:     instructionClarity(layers),
		SafetyClarity:          safetyClarity(s),
		OutputContractStrength: outputStrength(s),
		TestCoverage:           0,
	}

	counts := lint.Count(findings)
	penalty := float64(PenaltyCritical*counts[lint.SeverityCritical] + PenaltyHigh*counts[lint.SeverityHigh])

	weighted := WeightCompleteness*float64(score.SpecCompleteness) +
		WeightClarity*float64(score.InstructionClarity) +
		WeightSafety*float64(score.SafetyClarity) +
		WeightOutput*float64(score.OutputContractStrength) +
		WeightTestCoverage*float64(score.TestCoverage)

	score.Overall = clamp(int(math.Round(weighted - penalty)))
	return score
}

func instructionClarity(layers prompt.Package) int {
	ratio := float64(layers.TotalLength()) / ClarityTargetLength * 100
	return clamp(int(math.Round(math.Min(100, ratio))))
}

func safetyClarity(s *spec.Specification) int {
	refusals := spec.IsFilled(s, "safety.refusals")
	topics := spec.IsFilled(s, "safety.sensitive_topics")
	switch {
	case refusals && topics:
		return 100
	case refusals:
		return 70
	default:
		return 30
	}
}

func outputStrength(s *spec.Specification) int {
	format := spec.IsFilled(s, "io_contracts.outputs.format")
	sections := spec.IsFilled(s, "io_contracts.outputs.sections")
	style := spec.IsFilled(s, "io_contracts.outputs.style_rules")
	switch {
	case format && sections && style:
		return 100
	case format && sections:
		return 80
	case format:
		return 60
	default:
		return 0
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
