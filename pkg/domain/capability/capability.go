package capability

import (
	"errors"
	"strings"
)

// Category names, in evaluation order.
const (
	CategoryInformation     = "information"
	CategoryProduction      = "production"
	CategoryDecisionSupport = "decision_support"
	CategoryAutomation      = "automation"
	CategoryDomainSpecific  = "domain_specific"
)

// ErrUnknownCapability indicates a leaf name that is not in the catalog.
var ErrUnknownCapability = errors.New("unknown capability")

// Config is the capability toggle set of an agent.
type Config struct {
	Information     Information     `json:"information" yaml:"information"`
	Production      Production      `json:"production" yaml:"production"`
	DecisionSupport DecisionSupport `json:"decision_support" yaml:"decision_support"`
	Automation      Automation      `json:"automation" yaml:"automation"`
	DomainSpecific  DomainSpecific  `json:"domain_specific" yaml:"domain_specific"`
}

type Information struct {
	Enabled           bool `json:"enabled" yaml:"enabled"`
	WebSearch         bool `json:"web_search" yaml:"web_search"`
	DocumentRetrieval bool `json:"document_retrieval" yaml:"document_retrieval"`
	DataLookup        bool `json:"data_lookup" yaml:"data_lookup"`
}

type Production struct {
	Enabled          bool `json:"enabled" yaml:"enabled"`
	CodeGeneration   bool `json:"code_generation" yaml:"code_generation"`
	DocumentDrafting bool `json:"document_drafting" yaml:"document_drafting"`
	ImageGeneration  bool `json:"image_generation" yaml:"image_generation"`
}

type DecisionSupport struct {
	Enabled         bool `json:"enabled" yaml:"enabled"`
	Recommendations bool `json:"recommendations" yaml:"recommendations"`
	RiskAssessment  bool `json:"risk_assessment" yaml:"risk_assessment"`
	Comparison      bool `json:"comparison" yaml:"comparison"`
}

type Automation struct {
	Enabled           bool `json:"enabled" yaml:"enabled"`
	WorkflowExecution bool `json:"workflow_execution" yaml:"workflow_execution"`
	Scheduling        bool `json:"scheduling" yaml:"scheduling"`
	APICalls          bool `json:"api_calls" yaml:"api_calls"`
}

// DomainSpecific has no leaves; its tags describe the specialty.
type DomainSpecific struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Tags    []string `json:"tags" yaml:"tags"`
}

// Leaf describes one toggleable capability.
type Leaf struct {
	Name        string
	Category    string
	DisplayName string
	Description string
	toggle      func(c *Config) *bool
	category    func(c *Config) bool
}

// Slug returns the display name in lower-case kebab form, e.g. "web-search".
func (l Leaf) Slug() string {
	return Slugify(l.DisplayName)
}

// Slugify lower-cases s and joins its words with hyphens.
func Slugify(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return strings.Join(fields, "-")
}

func info(c *Config) bool       { return c.Information.Enabled }
func production(c *Config) bool { return c.Production.Enabled }
func decision(c *Config) bool   { return c.DecisionSupport.Enabled }
func automation(c *Config) bool { return c.Automation.Enabled }

// catalog is in category order, then leaf order within a category.
var catalog = []Leaf{
	{Name: "web_search", Category: CategoryInformation, DisplayName: "Web Search",
		Description: "search the public web for current information",
		toggle:      func(c *Config) *bool { return &c.Information.WebSearch }, category: info},
	{Name: "document_retrieval", Category: CategoryInformation, DisplayName: "Document Retrieval",
		Description: "retrieve passages from the attached knowledge sources",
		toggle:      func(c *Config) *bool { return &c.Information.DocumentRetrieval }, category: info},
	{Name: "data_lookup", Category: CategoryInformation, DisplayName: "Data Lookup",
		Description: "look up records in connected data sources",
		toggle:      func(c *Config) *bool { return &c.Information.DataLookup }, category: info},

	{Name: "code_generation", Category: CategoryProduction, DisplayName: "Code Generation",
		Description: "write and explain source code",
		toggle:      func(c *Config) *bool { return &c.Production.CodeGeneration }, category: production},
	{Name: "document_drafting", Category: CategoryProduction, DisplayName: "Document Drafting",
		Description: "draft long-form documents in the requested structure",
		toggle:      func(c *Config) *bool { return &c.Production.DocumentDrafting }, category: production},
	{Name: "image_generation", Category: CategoryProduction, DisplayName: "Image Generation",
		Description: "produce images from text descriptions",
		toggle:      func(c *Config) *bool { return &c.Production.ImageGeneration }, category: production},

	{Name: "recommendations", Category: CategoryDecisionSupport, DisplayName: "Recommendations",
		Description: "recommend a course of action with its rationale",
		toggle:      func(c *Config) *bool { return &c.DecisionSupport.Recommendations }, category: decision},
	{Name: "risk_assessment", Category: CategoryDecisionSupport, DisplayName: "Risk Assessment",
		Description: "identify and rate risks of a proposal",
		toggle:      func(c *Config) *bool { return &c.DecisionSupport.RiskAssessment }, category: decision},
	{Name: "comparison", Category: CategoryDecisionSupport, DisplayName: "Comparison",
		Description: "compare options against explicit criteria",
		toggle:      func(c *Config) *bool { return &c.DecisionSupport.Comparison }, category: decision},

	{Name: "workflow_execution", Category: CategoryAutomation, DisplayName: "Workflow Execution",
		Description: "run multi-step workflows on the user's behalf",
		toggle:      func(c *Config) *bool { return &c.Automation.WorkflowExecution }, category: automation},
	{Name: "scheduling", Category: CategoryAutomation, DisplayName: "Scheduling",
		Description: "create and manage calendar events and reminders",
		toggle:      func(c *Config) *bool { return &c.Automation.Scheduling }, category: automation},
	{Name: "api_calls", Category: CategoryAutomation, DisplayName: "API Calls",
		Description: "call external APIs with structured requests",
		toggle:      func(c *Config) *bool { return &c.Automation.APICalls }, category: automation},
}

// Leaves returns the catalog in category order.
func Leaves() []Leaf {
	return append([]Leaf(nil), catalog...)
}

// Lookup returns the catalog entry for a leaf name.
func Lookup(name string) (Leaf, error) {
	for _, l := range catalog {
		if l.Name == name {
			return l, nil
		}
	}
	return Leaf{}, ErrUnknownCapability
}

// Enabled returns the leaves whose category and own toggle are both on, in
// category order.
func (c Config) Enabled() []Leaf {
	var out []Leaf
	for _, l := range catalog {
		if l.category(&c) && *l.toggle(&c) {
			out = append(out, l)
		}
	}
	return out
}

// WithToggles returns a copy of c where each named leaf toggle is set to the
// given value. Unknown names are ignored. Category switches are untouched.
func (c Config) WithToggles(toggles map[string]bool) Config {
	out := c
	out.DomainSpecific.Tags = append([]string(nil), c.DomainSpecific.Tags...)
	for _, l := range catalog {
		if v, ok := toggles[l.Name]; ok {
			*l.toggle(&out) = v
		}
	}
	return out
}
