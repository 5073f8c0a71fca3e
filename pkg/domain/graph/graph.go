package graph

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
)

// EdgeRequires is the only edge type in a requirement graph.
const EdgeRequires = "requires"

// Requirement tags. A tagged requirement string starts with "<TAG>: ".
const (
	TagMust   = "MUST"
	TagShould = "SHOULD"
	TagNice   = "NICE"
	TagOut    = "OUT"
	TagNot    = "NOT"
	TagRefuse = "REFUSE"
	TagAvoid  = "AVOID"
)

// Node is one block of the specification projected into requirement strings.
type Node struct {
	ID           string   `json:"id"`
	Requirements []string `json:"requirements"`
	DependsOn    []string `json:"depends_on"`
}

// Edge points from a dependency to the node that requires it.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// RequirementGraph holds nodes in declaration order and the edges derived
// from their dependencies.
type RequirementGraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// dependencies is the fixed DAG over the seven scored blocks.
var dependencies = []struct {
	id   string
	deps []string
}{
	{spec.BlockMission, nil},
	{spec.BlockAudience, []string{spec.BlockMission}},
	{spec.BlockScope, []string{spec.BlockMission, spec.BlockAudience}},
	{spec.BlockIOContracts, []string{spec.BlockScope}},
	{spec.BlockConstraints, []string{spec.BlockIOContracts}},
	{spec.BlockSafety, []string{spec.BlockScope, spec.BlockConstraints}},
	{spec.BlockExamples, []string{spec.BlockIOContracts}},
}

// Tag prefixes a requirement with a priority tag.
func Tag(tag, text string) string {
	return tag + ": " + text
}

// Build projects a normalized spec into the seven-node requirement graph.
// It never fails.
func Build(n spec.Normalized) *RequirementGraph {
	s := n.Specification
	reqs := map[string][]string{
		spec.BlockMission:     missionRequirements(s.Mission),
		spec.BlockAudience:    audienceRequirements(s.Audience),
		spec.BlockScope:       scopeRequirements(s.Scope),
		spec.BlockIOContracts: ioRequirements(s.IOContracts),
		spec.BlockConstraints: constraintRequirements(s.Constraints),
		spec.BlockSafety:      safetyRequirements(s.Safety),
		spec.BlockExamples:    exampleRequirements(s.Examples),
	}

	nodes := make([]Node, 0, len(dependencies))
	for _, d := range dependencies {
		nodes = append(nodes, Node{
			ID:           d.id,
			Requirements: reqs[d.id],
			DependsOn:    append([]string{}, d.deps...),
		})
	}
	return New(nodes...)
}

// New assembles a graph from nodes, emitting one edge per declared
// dependency.
func New(nodes ...Node) *RequirementGraph {
	g := &RequirementGraph{Nodes: nodes, Edges: make([]Edge, 0)}
	for _, n := range nodes {
		for _, dep := range n.DependsOn {
			g.Edges = append(g.Edges, Edge{From: dep, To: n.ID, Type: EdgeRequires})
		}
	}
	return g
}

// Node returns the node with the given id.
func (g *RequirementGraph) Node(id string) (Node, error) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, nil
		}
	}
	return Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
}

// Dependents returns the ids of nodes that require id, in declaration order.
func (g *RequirementGraph) Dependents(id string) []string {
	result := make([]string, 0)
	for _, e := range g.Edges {
		if e.From == id {
			result = append(result, e.To)
		}
	}
	return result
}

// HasCycle reports whether any node transitively depends on itself.
func (g *RequirementGraph) HasCycle() bool {
	byID := g.index()
	visited := make(map[string]bool)
	inStack := make(map[string]bool)

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		inStack[id] = true

		for _, dep := range byID[id].DependsOn {
			if !visited[dep] {
				if dfs(dep) {
					return true
				}
			} else if inStack[dep] {
				return true
			}
		}

		inStack[id] = false
		return false
	}

	for _, n := range g.Nodes {
		if !visited[n.ID] && dfs(n.ID) {
			return true
		}
	}
	return false
}

// TopologicalOrder returns node ids with every dependency before its
// dependents. Ties follow declaration order.
func (g *RequirementGraph) TopologicalOrder() ([]string, error) {
	if g.HasCycle() {
		return nil, ErrCyclicDependency
	}

	byID := g.index()
	visited := make(map[string]bool)
	result := make([]string, 0, len(g.Nodes))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, dep := range byID[id].DependsOn {
			visit(dep)
		}
		if _, ok := byID[id]; ok {
			result = append(result, id)
		}
	}

	for _, n := range g.Nodes {
		visit(n.ID)
	}
	return result, nil
}

// Summary counts nodes, edges and requirements.
type Summary struct {
	Nodes        int            `json:"nodes"`
	Edges        int            `json:"edges"`
	Requirements int            `json:"requirements"`
	ByNode       map[string]int `json:"by_node"`
}

func (g *RequirementGraph) Summary() Summary {
	s := Summary{Nodes: len(g.Nodes), Edges: len(g.Edges), ByNode: make(map[string]int)}
	for _, n := range g.Nodes {
		s.Requirements += len(n.Requirements)
		s.ByNode[n.ID] = len(n.Requirements)
	}
	return s
}

func (g *RequirementGraph) index() map[string]Node {
	m := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		m[n.ID] = n
	}
	return m
}

func missionRequirements(m spec.Mission) []string {
	out := make([]string, 0)
	if m.Problem != "" {
		out = append(out, m.Problem)
	}
	out = append(out, m.SuccessCriteria...)
	out = appendTagged(out, TagNot, m.NonGoals)
	return out
}

func audienceRequirements(a spec.Audience) []string {
	out := make([]string, 0, 4)
	out = appendLabeled(out, "Persona", a.Persona)
	out = appendLabeled(out, "Skill level", a.SkillLevel)
	out = appendLabeled(out, "Language", a.Language)
	out = appendLabeled(out, "Tone", a.Tone)
	return out
}

func scopeRequirements(sc spec.Scope) []string {
	out := make([]string, 0)
	out = appendTagged(out, TagMust, sc.MustDo)
	out = appendTagged(out, TagShould, sc.ShouldDo)
	out = appendTagged(out, TagNice, sc.NiceToHave)
	out = appendTagged(out, TagOut, sc.OutOfScope)
	return out
}

func ioRequirements(io spec.IOContracts) []string {
	out := make([]string, 0)
	for _, in := range io.Inputs {
		r := fmt.Sprintf("Input %s (%s)", in.Name, in.Format)
		if len(in.Constraints) > 0 {
			r += ": " + strings.Join(in.Constraints, "; ")
		}
		out = append(out, r)
	}
	out = appendLabeled(out, "Output format", io.Outputs.Format)
	for _, sec := range io.Outputs.Sections {
		out = appendLabeled(out, "Output section", sec)
	}
	for _, rule := range io.Outputs.StyleRules {
		out = appendLabeled(out, "Style rule", rule)
	}
	return out
}

func constraintRequirements(c spec.Constraints) []string {
	out := make([]string, 0, 3)
	out = appendLabeled(out, "Length", c.Length)
	out = appendLabeled(out, "Citation policy", c.CitationPolicy)
	out = appendLabeled(out, "Verification", c.Verification)
	return out
}

func safetyRequirements(s spec.Safety) []string {
	out := make([]string, 0)
	out = appendTagged(out, TagRefuse, s.Refusals)
	out = appendTagged(out, TagAvoid, s.SensitiveTopics)
	return out
}

func exampleRequirements(e spec.Examples) []string {
	out := make([]string, 0)
	for _, g := range e.Good {
		out = appendLabeled(out, "Good example", g)
	}
	for _, b := range e.Bad {
		out = appendLabeled(out, "Bad example", b)
	}
	return out
}

func appendTagged(out []string, tag string, items []string) []string {
	for _, item := range items {
		out = append(out, Tag(tag, item))
	}
	return out
}

func appendLabeled(out []string, label, value string) []string {
	if value == "" {
		return out
	}
	return append(out, label+": "+value)
}
