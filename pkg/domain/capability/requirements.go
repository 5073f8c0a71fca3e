package capability

import (
	"fmt"

	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
)

// requirements maps each leaf to the spec fields it needs before it can be
// considered satisfied.
var requirements = map[string][]string{
	"web_search":         {"scope.out_of_scope", "safety.refusals"},
	"document_retrieval": {"scope.must_do", "constraints.citation_policy"},
	"data_lookup":        {"io_contracts.inputs", "constraints.verification"},

	"code_generation":   {"io_contracts.outputs.format", "safety.refusals", "examples.good"},
	"document_drafting": {"io_contracts.outputs.format", "io_contracts.outputs.sections", "audience.tone"},
	"image_generation":  {"safety.refusals", "safety.sensitive_topics"},

	"recommendations": {"mission.success_criteria", "scope.out_of_scope", "audience.persona"},
	"risk_assessment": {"safety.sensitive_topics", "constraints.verification"},
	"comparison":      {"io_contracts.outputs.sections", "constraints.citation_policy"},

	"workflow_execution": {"scope.must_do", "scope.out_of_scope", "safety.refusals", "constraints.verification"},
	"scheduling":         {"io_contracts.inputs", "scope.out_of_scope"},
	"api_calls":          {"io_contracts.inputs", "io_contracts.outputs.format", "safety.refusals"},
}

func init() {
	for _, l := range catalog {
		paths, ok := requirements[l.Name]
		if !ok {
			panic(fmt.Sprintf("capability %s has no requirement entry", l.Name))
		}
		for _, p := range paths {
			spec.MustField(p)
		}
	}
	if len(requirements) != len(catalog) {
		panic("capability requirement table has entries outside the catalog")
	}
}

// Requirements returns the field paths a leaf requires. Unknown names have
// none.
func Requirements(name string) []string {
	return append([]string(nil), requirements[name]...)
}

// CheckResult reports whether a capability's required fields are filled.
type CheckResult struct {
	Capability string   `json:"capability"`
	Valid      bool     `json:"valid"`
	Blockers   []string `json:"blockers"`
}

// Recommendation lists what a capability needs and what is still missing.
type Recommendation struct {
	Capability  string   `json:"capability"`
	DisplayName string   `json:"display_name"`
	Category    string   `json:"category"`
	Enabled     bool     `json:"enabled"`
	Required    []string `json:"required"`
	Blockers    []string `json:"blockers"`
}

// CheckRequirements resolves each required path of the named capability
// against s. Blockers keep the order of the requirement table.
func CheckRequirements(name string, s *spec.Specification) CheckResult {
	blockers := []string{}
	for _, path := range requirements[name] {
		if !spec.IsFilled(s, path) {
			blockers = append(blockers, path)
		}
	}
	return CheckResult{Capability: name, Valid: len(blockers) == 0, Blockers: blockers}
}

// CheckAll checks every enabled leaf in category order. An enabled
// domain_specific category is appended last and is always valid.
func CheckAll(c Config, s *spec.Specification) []CheckResult {
	results := []CheckResult{}
	for _, l := range c.Enabled() {
		results = append(results, CheckRequirements(l.Name, s))
	}
	if c.DomainSpecific.Enabled {
		results = append(results, CheckResult{Capability: CategoryDomainSpecific, Valid: true, Blockers: []string{}})
	}
	return results
}

// Recommendations reports every leaf in the catalog, regardless of toggles,
// with its requirements and current blockers.
func Recommendations(c Config, s *spec.Specification) []Recommendation {
	enabled := make(map[string]bool)
	for _, l := range c.Enabled() {
		enabled[l.Name] = true
	}

	recs := make([]Recommendation, 0, len(catalog))
	for _, l := range catalog {
		res := CheckRequirements(l.Name, s)
		recs = append(recs, Recommendation{
			Capability:  l.Name,
			DisplayName: l.DisplayName,
			Category:    l.Category,
			Enabled:     enabled[l.Name],
			Required:    Requirements(l.Name),
			Blockers:    res.Blockers,
		})
	}
	return recs
}
