package policy_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/felixgeelhaar/agentforge/pkg/domain/capability"
	"github.com/felixgeelhaar/agentforge/pkg/domain/graph"
	"github.com/felixgeelhaar/agentforge/pkg/domain/policy"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec/spectest"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		in        string
		statement string
		priority  policy.Priority
	}{
		{"MUST: Answer questions", "Answer questions", policy.PriorityMust},
		{"SHOULD: Link sources", "Link sources", policy.PriorityShould},
		{"NICE: Add emoji", "Add emoji", policy.PriorityNiceToHave},
		{"OUT: Give medical advice", "Give medical advice", policy.PriorityMustNot},
		{"NOT: Replace a doctor", "Replace a doctor", policy.PriorityMustNot},
		{"REFUSE: Diagnosis", "You must refuse requests related to: Diagnosis", policy.PriorityMust},
		{"AVOID: Politics", "Avoid discussing: Politics", policy.PriorityShould},
		{"Answers cited", "Answers cited", policy.PriorityShould},
		{"Tone: friendly", "Tone: friendly", policy.PriorityShould},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			statement, priority := policy.Classify(tt.in)
			if statement != tt.statement || priority != tt.priority {
				t.Errorf("Classify(%q) = (%q, %s), want (%q, %s)", tt.in, statement, priority, tt.statement, tt.priority)
			}
		})
	}
}

func TestExpand_MinimalSpec(t *testing.T) {
	g := graph.Build(spec.Normalize(spectest.MinimalValid()))
	caps := capability.Config{
		Information: capability.Information{Enabled: true, WebSearch: true},
		Automation:  capability.Automation{Enabled: true, APICalls: true},
		Production:  capability.Production{CodeGeneration: true},
	}

	got := policy.Expand(g, caps)

	want := []policy.Policy{
		{ID: "mission-1", Type: "mission", Statement: "Help users find answers", Source: "mission", Priority: policy.PriorityShould},
		{ID: "mission-2", Type: "mission", Statement: "Answers cited", Source: "mission", Priority: policy.PriorityShould},
		{ID: "scope-3", Type: "scope", Statement: "Answer questions", Source: "scope", Priority: policy.PriorityMust},
		{ID: "scope-4", Type: "scope", Statement: "Give medical advice", Source: "scope", Priority: policy.PriorityMustNot},
		{ID: "io_contracts-5", Type: "io_contracts", Statement: "Input question (text)", Source: "io_contracts", Priority: policy.PriorityShould},
		{ID: "io_contracts-6", Type: "io_contracts", Statement: "Output format: plain text", Source: "io_contracts", Priority: policy.PriorityShould},
		{ID: "safety-7", Type: "safety", Statement: "You must refuse requests related to: Medical diagnosis requests", Source: "safety", Priority: policy.PriorityMust},
		{ID: "web-search", Type: "capability", Statement: "You have access to the Web Search capability", Source: "metadata", Priority: policy.PriorityShould},
		{ID: "api-calls", Type: "capability", Statement: "You have access to the API Calls capability", Source: "metadata", Priority: policy.PriorityShould},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("policies mismatch (-want +got):\n%s", diff)
	}
}

func TestExpand_Deterministic(t *testing.T) {
	g := graph.Build(spec.Normalize(spectest.Full()))
	caps := capability.Config{Information: capability.Information{Enabled: true, DocumentRetrieval: true}}

	if diff := cmp.Diff(policy.Expand(g, caps), policy.Expand(g, caps)); diff != "" {
		t.Errorf("Expand is not deterministic:\n%s", diff)
	}
}

func TestByPriority(t *testing.T) {
	g := graph.Build(spec.Normalize(spectest.MinimalValid()))
	grouped := policy.ByPriority(policy.Expand(g, capability.Config{}))

	if len(grouped[policy.PriorityMust]) != 2 {
		t.Errorf("must = %d, want 2", len(grouped[policy.PriorityMust]))
	}
	if len(grouped[policy.PriorityMustNot]) != 1 {
		t.Errorf("must_not = %d, want 1", len(grouped[policy.PriorityMustNot]))
	}
}
