package spec

import "fmt"

// MinCompleteness is the completeness below which validation warns.
const MinCompleteness = 50

// ValidationResult is the outcome of the minimal publishability gate.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate applies the hard gate every compile must pass. Any error makes
// the spec invalid; warnings never do.
func Validate(n Normalized) ValidationResult {
	s := &n.Specification
	res := ValidationResult{Errors: []string{}, Warnings: []string{}}

	if s.Mission.Problem == "" {
		res.Errors = append(res.Errors, "mission.problem is required")
	}
	if len(s.Mission.SuccessCriteria) == 0 {
		res.Errors = append(res.Errors, "mission.success_criteria needs at least one entry")
	}
	if len(s.Scope.MustDo) == 0 {
		res.Errors = append(res.Errors, "scope.must_do needs at least one entry")
	}
	if len(s.Scope.OutOfScope) == 0 {
		res.Errors = append(res.Errors, "scope.out_of_scope needs at least one entry")
	}
	if len(s.IOContracts.Inputs) == 0 {
		res.Errors = append(res.Errors, "io_contracts.inputs needs at least one input")
	}
	if s.IOContracts.Outputs.Format == "" {
		res.Errors = append(res.Errors, "io_contracts.outputs.format is required")
	}
	if len(s.Safety.Refusals) == 0 {
		res.Errors = append(res.Errors, "safety.refusals needs at least one entry")
	}

	if c := Completeness(s); c.Overall < MinCompleteness {
		res.Warnings = append(res.Warnings, fmt.Sprintf("completeness is %d%%, below %d%%", c.Overall, MinCompleteness))
	}
	if len(s.Examples.Good) == 0 {
		res.Warnings = append(res.Warnings, "examples.good is empty")
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// Err returns an *IncompleteError when the result is invalid, nil otherwise.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &IncompleteError{Errors: append([]string(nil), r.Errors...)}
}
