package spec

import "strings"

// Normalized is a Specification whose strings are trimmed and whose lists
// contain no blank entries. Lists are never nil.
type Normalized struct {
	Specification
}

// Normalize canonicalizes a specification. The input is not modified and
// the result shares no slices with it.
func Normalize(s Specification) Normalized {
	out := Specification{
		Mission: Mission{
			Problem:         strings.TrimSpace(s.Mission.Problem),
			SuccessCriteria: trimList(s.Mission.SuccessCriteria),
			NonGoals:        trimList(s.Mission.NonGoals),
		},
		Audience: Audience{
			Persona:    strings.TrimSpace(s.Audience.Persona),
			SkillLevel: strings.TrimSpace(s.Audience.SkillLevel),
			Language:   strings.TrimSpace(s.Audience.Language),
			Tone:       strings.TrimSpace(s.Audience.Tone),
		},
		Scope: Scope{
			MustDo:     trimList(s.Scope.MustDo),
			ShouldDo:   trimList(s.Scope.ShouldDo),
			NiceToHave: trimList(s.Scope.NiceToHave),
			OutOfScope: trimList(s.Scope.OutOfScope),
		},
		IOContracts: IOContracts{
			Inputs: normalizeInputs(s.IOContracts.Inputs),
			Outputs: OutputContract{
				Format:     strings.TrimSpace(s.IOContracts.Outputs.Format),
				Sections:   trimList(s.IOContracts.Outputs.Sections),
				StyleRules: trimList(s.IOContracts.Outputs.StyleRules),
			},
		},
		Constraints: Constraints{
			Length:         strings.TrimSpace(s.Constraints.Length),
			CitationPolicy: strings.TrimSpace(s.Constraints.CitationPolicy),
			Verification:   strings.TrimSpace(s.Constraints.Verification),
		},
		Safety: Safety{
			Refusals:        trimList(s.Safety.Refusals),
			SensitiveTopics: trimList(s.Safety.SensitiveTopics),
		},
		Examples: Examples{
			Good: trimList(s.Examples.Good),
			Bad:  trimList(s.Examples.Bad),
		},
		Metadata: Metadata{
			DomainTags: trimList(s.Metadata.DomainTags),
			TemplateID: strings.TrimSpace(s.Metadata.TemplateID),
		},
	}
	return Normalized{Specification: out}
}

// normalizeInputs keeps every input, including ones whose fields are all blank.
func normalizeInputs(in []InputContract) []InputContract {
	out := make([]InputContract, 0, len(in))
	for _, ic := range in {
		out = append(out, InputContract{
			Name:        strings.TrimSpace(ic.Name),
			Format:      strings.TrimSpace(ic.Format),
			Constraints: trimList(ic.Constraints),
		})
	}
	return out
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
