package spec

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Block names, in the order they appear in the wire format.
const (
	BlockMission     = "mission"
	BlockAudience    = "audience"
	BlockScope       = "scope"
	BlockIOContracts = "io_contracts"
	BlockConstraints = "constraints"
	BlockSafety      = "safety"
	BlockExamples    = "examples"
	BlockMetadata    = "metadata"
)

// Blocks returns every block name in wire order.
func Blocks() []string {
	return []string{
		BlockMission,
		BlockAudience,
		BlockScope,
		BlockIOContracts,
		BlockConstraints,
		BlockSafety,
		BlockExamples,
		BlockMetadata,
	}
}

// Specification is the user-authored behavioral specification of an agent.
// The pipeline treats it as a value: no stage mutates a Specification in place.
type Specification struct {
	Mission     Mission     `json:"mission" yaml:"mission"`
	Audience    Audience    `json:"audience" yaml:"audience"`
	Scope       Scope       `json:"scope" yaml:"scope"`
	IOContracts IOContracts `json:"io_contracts" yaml:"io_contracts"`
	Constraints Constraints `json:"constraints" yaml:"constraints"`
	Safety      Safety      `json:"safety" yaml:"safety"`
	Examples    Examples    `json:"examples" yaml:"examples"`
	Metadata    Metadata    `json:"metadata" yaml:"metadata"`
}

// Mission states the problem the agent solves.
type Mission struct {
	Problem         string   `json:"problem" yaml:"problem"`
	SuccessCriteria []string `json:"success_criteria" yaml:"success_criteria"`
	NonGoals        []string `json:"non_goals" yaml:"non_goals"`
}

// Audience describes who the agent talks to.
type Audience struct {
	Persona    string `json:"persona" yaml:"persona"`
	SkillLevel string `json:"skill_level" yaml:"skill_level"`
	Language   string `json:"language" yaml:"language"`
	Tone       string `json:"tone" yaml:"tone"`
}

// Scope lists what the agent does, by tier, and what it never does.
type Scope struct {
	MustDo     []string `json:"must_do" yaml:"must_do"`
	ShouldDo   []string `json:"should_do" yaml:"should_do"`
	NiceToHave []string `json:"nice_to_have" yaml:"nice_to_have"`
	OutOfScope []string `json:"out_of_scope" yaml:"out_of_scope"`
}

// IOContracts describes accepted inputs and the expected output shape.
type IOContracts struct {
	Inputs  []InputContract `json:"inputs" yaml:"inputs"`
	Outputs OutputContract  `json:"outputs" yaml:"outputs"`
}

// InputContract is one accepted input.
type InputContract struct {
	Name        string   `json:"name" yaml:"name"`
	Format      string   `json:"format" yaml:"format"`
	Constraints []string `json:"constraints" yaml:"constraints"`
}

// OutputContract is the shape every answer must follow.
type OutputContract struct {
	Format     string   `json:"format" yaml:"format"`
	Sections   []string `json:"sections" yaml:"sections"`
	StyleRules []string `json:"style_rules" yaml:"style_rules"`
}

// Constraints holds free-text operating constraints.
type Constraints struct {
	Length         string `json:"length" yaml:"length"`
	CitationPolicy string `json:"citation_policy" yaml:"citation_policy"`
	Verification   string `json:"verification" yaml:"verification"`
}

// Safety lists refusal scenarios and topics to handle carefully.
type Safety struct {
	Refusals        []string `json:"refusals" yaml:"refusals"`
	SensitiveTopics []string `json:"sensitive_topics" yaml:"sensitive_topics"`
}

// Examples holds example exchanges to imitate or avoid.
type Examples struct {
	Good []string `json:"good" yaml:"good"`
	Bad  []string `json:"bad" yaml:"bad"`
}

// Metadata is descriptive data that does not affect rendering.
type Metadata struct {
	DomainTags []string `json:"domain_tags" yaml:"domain_tags"`
	TemplateID string   `json:"template_id" yaml:"template_id"`
}

// Hash returns a deterministic hash of the spec, used to tell whether a
// compiled package is stale.
func (s *Specification) Hash() string {
	h := sha256.New()
	// Marshalling a struct of strings and slices cannot fail.
	data, _ := json.Marshal(s)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
