// Package spectest provides specification fixtures shared by tests.
package spectest

import "github.com/felixgeelhaar/agentforge/pkg/domain/spec"

// MinimalValid returns the smallest specification that passes validation.
func MinimalValid() spec.Specification {
	return spec.Specification{
		Mission: spec.Mission{
			Problem:         "Help users find answers",
			SuccessCriteria: []string{"Answers cited"},
		},
		Scope: spec.Scope{
			MustDo:     []string{"Answer questions"},
			OutOfScope: []string{"Give medical advice"},
		},
		IOContracts: spec.IOContracts{
			Inputs:  []spec.InputContract{{Name: "question", Format: "text", Constraints: []string{}}},
			Outputs: spec.OutputContract{Format: "plain text"},
		},
		Safety: spec.Safety{
			Refusals: []string{"Medical diagnosis requests"},
		},
	}
}

// Full returns a specification with every scored field filled and no lint
// findings.
func Full() spec.Specification {
	return spec.Specification{
		Mission: spec.Mission{
			Problem:         "Help support engineers triage customer tickets for the billing product",
			SuccessCriteria: []string{"Every ticket gets a category", "Suggested replies cite the knowledge base"},
			NonGoals:        []string{"Issuing refunds"},
		},
		Audience: spec.Audience{
			Persona:    "Tier-1 support engineer",
			SkillLevel: "intermediate",
			Language:   "English",
			Tone:       "calm and precise",
		},
		Scope: spec.Scope{
			MustDo:     []string{"Classify the ticket", "Summarize the customer issue", "Draft a reply"},
			ShouldDo:   []string{"Link related incidents"},
			NiceToHave: []string{"Estimate resolution time"},
			OutOfScope: []string{"Changing account settings"},
		},
		IOContracts: spec.IOContracts{
			Inputs: []spec.InputContract{
				{Name: "ticket", Format: "markdown", Constraints: []string{"max 5000 characters"}},
				{Name: "customer_tier", Format: "enum", Constraints: []string{}},
			},
			Outputs: spec.OutputContract{
				Format:     "markdown",
				Sections:   []string{"Category", "Summary", "Reply"},
				StyleRules: []string{"Use bullet lists for steps"},
			},
		},
		Constraints: spec.Constraints{
			Length:         "under 300 words",
			CitationPolicy: "cite knowledge base articles when used",
			Verification:   "double-check invoice numbers",
		},
		Safety: spec.Safety{
			Refusals:        []string{"Requests for other customers' data"},
			SensitiveTopics: []string{"Payment disputes"},
		},
		Examples: spec.Examples{
			Good: []string{"Category: Billing. Summary: duplicate charge. Reply: apologize and open a refund request."},
			Bad:  []string{"I don't know, ask someone else."},
		},
		Metadata: spec.Metadata{
			DomainTags: []string{"support", "billing"},
			TemplateID: "support-triage",
		},
	}
}
