package policy

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/agentforge/pkg/domain/capability"
	"github.com/felixgeelhaar/agentforge/pkg/domain/graph"
)

// Priority is the strength of a directive.
type Priority string

const (
	PriorityMust       Priority = "must"
	PriorityShould     Priority = "should"
	PriorityNiceToHave Priority = "nice_to_have"
	PriorityMustNot    Priority = "must_not"
)

// TypeCapability marks policies derived from enabled capabilities rather
// than from a graph node.
const TypeCapability = "capability"

// SourceMetadata is the source of every capability policy.
const SourceMetadata = "metadata"

// Policy is one priority-tagged directive.
type Policy struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Statement string   `json:"statement"`
	Source    string   `json:"source"`
	Priority  Priority `json:"priority"`
}

// tagPriorities maps requirement tags to priorities. REFUSE and AVOID also
// rewrite the statement.
var tagPriorities = map[string]Priority{
	graph.TagMust:   PriorityMust,
	graph.TagShould: PriorityShould,
	graph.TagNice:   PriorityNiceToHave,
	graph.TagOut:    PriorityMustNot,
	graph.TagNot:    PriorityMustNot,
	graph.TagRefuse: PriorityMust,
	graph.TagAvoid:  PriorityShould,
}

// Classify strips a leading tag from a requirement and returns the resulting
// statement and priority. Untagged requirements are PriorityShould.
func Classify(requirement string) (string, Priority) {
	tag, rest, ok := strings.Cut(requirement, ":")
	if !ok {
		return requirement, PriorityShould
	}
	priority, known := tagPriorities[tag]
	if !known {
		return requirement, PriorityShould
	}

	text := strings.TrimSpace(rest)
	switch tag {
	case graph.TagRefuse:
		text = "You must refuse requests related to: " + text
	case graph.TagAvoid:
		text = "Avoid discussing: " + text
	}
	return text, priority
}

// Expand walks the graph in node order, then requirement order, and appends
// one policy per enabled leaf capability.
func Expand(g *graph.RequirementGraph, caps capability.Config) []Policy {
	policies := make([]Policy, 0)
	n := 0
	for _, node := range g.Nodes {
		for _, req := range node.Requirements {
			n++
			statement, priority := Classify(req)
			policies = append(policies, Policy{
				ID:        fmt.Sprintf("%s-%d", node.ID, n),
				Type:      node.ID,
				Statement: statement,
				Source:    node.ID,
				Priority:  priority,
			})
		}
	}

	for _, leaf := range caps.Enabled() {
		policies = append(policies, Policy{
			ID:        leaf.Slug(),
			Type:      TypeCapability,
			Statement: fmt.Sprintf("You have access to the %s capability", leaf.DisplayName),
			Source:    SourceMetadata,
			Priority:  PriorityShould,
		})
	}
	return policies
}

// ByPriority groups policies by priority, keeping their relative order.
func ByPriority(policies []Policy) map[Priority][]Policy {
	out := make(map[Priority][]Policy)
	for _, p := range policies {
		out[p.Priority] = append(out[p.Priority], p)
	}
	return out
}
