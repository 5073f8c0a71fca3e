package spec

import (
	"sort"
	"strings"
)

// Accessor resolves one dotted field path against a specification.
type Accessor struct {
	Path  string
	Block string
	// Filled reports whether the field holds a non-blank string or a
	// non-empty list.
	Filled func(s *Specification) bool
}

func str(get func(s *Specification) string) func(s *Specification) bool {
	return func(s *Specification) bool {
		return strings.TrimSpace(get(s)) != ""
	}
}

func list(get func(s *Specification) []string) func(s *Specification) bool {
	return func(s *Specification) bool {
		for _, v := range get(s) {
			if strings.TrimSpace(v) != "" {
				return true
			}
		}
		return false
	}
}

var fieldRegistry = map[string]Accessor{}

func register(block, field string, filled func(s *Specification) bool) {
	path := block + "." + field
	fieldRegistry[path] = Accessor{Path: path, Block: block, Filled: filled}
}

func init() {
	register(BlockMission, "problem", str(func(s *Specification) string { return s.Mission.Problem }))
	register(BlockMission, "success_criteria", list(func(s *Specification) []string { return s.Mission.SuccessCriteria }))
	register(BlockMission, "non_goals", list(func(s *Specification) []string { return s.Mission.NonGoals }))

	register(BlockAudience, "persona", str(func(s *Specification) string { return s.Audience.Persona }))
	register(BlockAudience, "skill_level", str(func(s *Specification) string { return s.Audience.SkillLevel }))
	register(BlockAudience, "language", str(func(s *Specification) string { return s.Audience.Language }))
	register(BlockAudience, "tone", str(func(s *Specification) string { return s.Audience.Tone }))

	register(BlockScope, "must_do", list(func(s *Specification) []string { return s.Scope.MustDo }))
	register(BlockScope, "should_do", list(func(s *Specification) []string { return s.Scope.ShouldDo }))
	register(BlockScope, "nice_to_have", list(func(s *Specification) []string { return s.Scope.NiceToHave }))
	register(BlockScope, "out_of_scope", list(func(s *Specification) []string { return s.Scope.OutOfScope }))

	register(BlockIOContracts, "inputs", func(s *Specification) bool { return len(s.IOContracts.Inputs) > 0 })
	register(BlockIOContracts, "outputs.format", str(func(s *Specification) string { return s.IOContracts.Outputs.Format }))
	register(BlockIOContracts, "outputs.sections", list(func(s *Specification) []string { return s.IOContracts.Outputs.Sections }))
	register(BlockIOContracts, "outputs.style_rules", list(func(s *Specification) []string { return s.IOContracts.Outputs.StyleRules }))

	register(BlockConstraints, "length", str(func(s *Specification) string { return s.Constraints.Length }))
	register(BlockConstraints, "citation_policy", str(func(s *Specification) string { return s.Constraints.CitationPolicy }))
	register(BlockConstraints, "verification", str(func(s *Specification) string { return s.Constraints.Verification }))

	register(BlockSafety, "refusals", list(func(s *Specification) []string { return s.Safety.Refusals }))
	register(BlockSafety, "sensitive_topics", list(func(s *Specification) []string { return s.Safety.SensitiveTopics }))

	register(BlockExamples, "good", list(func(s *Specification) []string { return s.Examples.Good }))
	register(BlockExamples, "bad", list(func(s *Specification) []string { return s.Examples.Bad }))

	register(BlockMetadata, "domain_tags", list(func(s *Specification) []string { return s.Metadata.DomainTags }))
	register(BlockMetadata, "template_id", str(func(s *Specification) string { return s.Metadata.TemplateID }))

	// The completeness table may only name registered paths.
	for _, b := range blockTable {
		for _, f := range append(append([]string{}, b.required...), b.optional...) {
			MustField(b.block + "." + f)
		}
	}
}

// Field looks up the accessor for a dotted path such as "scope.out_of_scope".
func Field(path string) (Accessor, bool) {
	a, ok := fieldRegistry[path]
	return a, ok
}

// MustField is like Field but panics on an unknown path. It is meant for
// static tables checked at startup.
func MustField(path string) Accessor {
	a, ok := fieldRegistry[path]
	if !ok {
		panic("spec: unknown field path " + path)
	}
	return a
}

// IsFilled reports whether the field at path is filled. Unknown paths are
// never filled.
func IsFilled(s *Specification, path string) bool {
	a, ok := fieldRegistry[path]
	if !ok || s == nil {
		return false
	}
	return a.Filled(s)
}

// FieldPaths returns every registered path, sorted.
func FieldPaths() []string {
	paths := make([]string, 0, len(fieldRegistry))
	for p := range fieldRegistry {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
