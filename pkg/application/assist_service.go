package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/felixgeelhaar/agentforge/pkg/domain"
	"github.com/felixgeelhaar/agentforge/pkg/domain/ai"
	"github.com/felixgeelhaar/agentforge/pkg/domain/compiler"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
	"github.com/felixgeelhaar/agentforge/pkg/domain/testcase"
)

const testCasesSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["input", "expected_behavior"],
    "properties": {
      "input": { "type": "string", "minLength": 1 },
      "expected_behavior": { "type": "string", "minLength": 1 },
      "tags": { "type": "array", "items": { "type": "string" } }
    }
  }
}`

const verdictSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["passed"],
  "properties": {
    "passed": { "type": "boolean" },
    "reason": { "type": "string" }
  }
}`

var (
	testCasesSchemaLoader = gojsonschema.NewStringLoader(testCasesSchemaJSON)
	verdictSchemaLoader   = gojsonschema.NewStringLoader(verdictSchemaJSON)
)

// ErrInvalidAIResponse is returned when the provider's answer does not match
// the expected JSON shape.
var ErrInvalidAIResponse = errors.New("invalid AI response")

// AssistService uses an AI provider to draft spec blocks, generate and run
// test cases, and chat with the compiled agent.
type AssistService struct {
	repo     domain.WorkspaceRepository
	provider ai.StreamingProvider
	tests    testcase.Repository
	logger   *slog.Logger
}

// NewAssistService wires the service. tests may be nil when test cases are
// not used; logger may be nil.
func NewAssistService(repo domain.WorkspaceRepository, provider ai.StreamingProvider, tests testcase.Repository, logger *slog.Logger) *AssistService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssistService{repo: repo, provider: provider, tests: tests, logger: logger}
}

// FillBlock asks the provider to draft one spec block from notes and the
// rest of the spec, merges the answer and saves the spec. The merged
// document must pass the spec schema.
func (s *AssistService) FillBlock(ctx context.Context, block, notes string) (*spec.Specification, error) {
	if !slices.Contains(spec.Blocks(), block) {
		return nil, fmt.Errorf("unknown spec block %q", block)
	}

	current, err := s.repo.LoadSpec()
	if errors.Is(err, spec.ErrNotFound) {
		current = &spec.Specification{}
	} else if err != nil {
		return nil, err
	}

	specJSON, _ := json.MarshalIndent(current, "", "  ")
	shape, _ := json.Marshal(blockTemplate(block))

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Draft the %q block of this agent specification.\n\n", block)
	fmt.Fprintf(&prompt, "Current specification:\n%s\n\n", specJSON)
	if notes = strings.TrimSpace(notes); notes != "" {
		fmt.Fprintf(&prompt, "Author notes:\n%s\n\n", notes)
	}
	fmt.Fprintf(&prompt, "Return only a JSON object with this shape:\n%s\n", shape)

	resp, err := s.provider.Complete(ctx, ai.CompletionRequest{
		Prompt:      prompt.String(),
		System:      "You help product teams write precise behavioral specifications for AI agents. You answer with JSON only.",
		Temperature: 0.3,
		MaxTokens:   1500,
	})
	if err != nil {
		return nil, err
	}

	merged, err := mergeBlock(current, block, []byte(extractJSONPayload(resp.Text)))
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveSpec(merged); err != nil {
		return nil, fmt.Errorf("failed to save spec: %w", err)
	}

	s.logger.InfoContext(ctx, "spec block drafted",
		"block", block,
		"model", resp.Model,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens)
	return merged, nil
}

// GenerateTestCases asks the provider for n test cases covering the spec
// and stores them.
func (s *AssistService) GenerateTestCases(ctx context.Context, n int) ([]testcase.Case, error) {
	if s.tests == nil {
		return nil, fmt.Errorf("test case store is not configured")
	}
	if n <= 0 {
		n = 5
	}
	current, err := s.repo.LoadSpec()
	if err != nil {
		return nil, err
	}
	specJSON, _ := json.MarshalIndent(spec.Normalize(*current).Specification, "", "  ")

	prompt := fmt.Sprintf("Write %d test cases for the AI agent described by this specification. "+
		"Cover must-do duties, out-of-scope requests and refusals.\n\nSpecification:\n%s\n\n"+
		`Return only a JSON array of objects with "input", "expected_behavior" and optional "tags".`, n, specJSON)

	resp, err := s.provider.Complete(ctx, ai.CompletionRequest{
		Prompt:      prompt,
		System:      "You are a QA engineer for conversational agents. You answer with JSON only.",
		Temperature: 0.4,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, err
	}

	payload := extractJSONPayload(resp.Text)
	if err := validateJSON(testCasesSchemaLoader, payload); err != nil {
		return nil, err
	}
	var drafts []testcase.Case
	if err := json.Unmarshal([]byte(payload), &drafts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAIResponse, err)
	}

	out := make([]testcase.Case, 0, len(drafts))
	for i := range drafts {
		tc := testcase.Case{
			Input:            strings.TrimSpace(drafts[i].Input),
			ExpectedBehavior: strings.TrimSpace(drafts[i].ExpectedBehavior),
			Tags:             drafts[i].Tags,
		}
		if err := s.tests.AddTestCase(ctx, &tc); err != nil {
			return out, err
		}
		out = append(out, tc)
	}

	s.logger.InfoContext(ctx, "test cases generated", "count", len(out), "model", resp.Model)
	return out, nil
}

// RunTestCases sends every stored test case to the compiled agent, asks the
// provider to judge each answer against the expected behavior and records
// the runs.
func (s *AssistService) RunTestCases(ctx context.Context) ([]testcase.Run, error) {
	if s.tests == nil {
		return nil, fmt.Errorf("test case store is not configured")
	}
	system, err := s.systemPrompt()
	if err != nil {
		return nil, err
	}
	cases, err := s.tests.ListTestCases(ctx)
	if err != nil {
		return nil, err
	}

	runs := make([]testcase.Run, 0, len(cases))
	for _, tc := range cases {
		answer, err := s.provider.Complete(ctx, ai.CompletionRequest{System: system, Prompt: tc.Input})
		if err != nil {
			return runs, err
		}
		passed, err := s.judge(ctx, tc, answer.Text)
		if err != nil {
			return runs, err
		}
		run := testcase.Run{TestCaseID: tc.ID, Passed: passed, Output: answer.Text}
		if err := s.tests.RecordRun(ctx, &run); err != nil {
			return runs, err
		}
		runs = append(runs, run)
	}

	s.logger.InfoContext(ctx, "test cases run", "count", len(runs))
	return runs, nil
}

// Sandbox streams the compiled agent's reply to message. The spec must
// compile.
func (s *AssistService) Sandbox(ctx context.Context, message string) (<-chan ai.StreamChunk, error) {
	system, err := s.systemPrompt()
	if err != nil {
		return nil, err
	}
	return s.provider.Stream(ctx, ai.CompletionRequest{System: system, Prompt: message})
}

func (s *AssistService) judge(ctx context.Context, tc testcase.Case, answer string) (bool, error) {
	prompt := fmt.Sprintf("User input:\n%s\n\nExpected behavior:\n%s\n\nAgent answer:\n%s\n\n"+
		`Does the answer show the expected behavior? Return only JSON: {"passed": true|false, "reason": "..."}`,
		tc.Input, tc.ExpectedBehavior, answer)

	resp, err := s.provider.Complete(ctx, ai.CompletionRequest{
		Prompt:      prompt,
		System:      "You are a strict evaluator of AI agent answers. You answer with JSON only.",
		Temperature: 0,
		MaxTokens:   300,
	})
	if err != nil {
		return false, err
	}

	payload := extractJSONPayload(resp.Text)
	if err := validateJSON(verdictSchemaLoader, payload); err != nil {
		return false, err
	}
	var verdict struct {
		Passed bool `json:"passed"`
	}
	if err := json.Unmarshal([]byte(payload), &verdict); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidAIResponse, err)
	}
	return verdict.Passed, nil
}

func (s *AssistService) systemPrompt() (string, error) {
	sp, err := s.repo.LoadSpec()
	if err != nil {
		return "", err
	}
	caps, err := s.repo.LoadCapabilities()
	if err != nil {
		return "", err
	}
	km, err := s.repo.LoadKnowledgeMap()
	if err != nil {
		return "", err
	}
	out, err := compiler.Compile(compiler.Input{Spec: *sp, Capabilities: caps, KnowledgeMap: km})
	if err != nil {
		return "", err
	}
	return out.PromptPackage.SystemPrompt(), nil
}

// blockTemplate is the empty shape of a block, with list fields as [].
func blockTemplate(block string) any {
	n := spec.Normalize(spec.Specification{})
	if block == spec.BlockIOContracts {
		n.IOContracts.Inputs = []spec.InputContract{{Constraints: []string{}}}
	}
	data, _ := json.Marshal(n.Specification)
	var doc map[string]json.RawMessage
	_ = json.Unmarshal(data, &doc)
	return doc[block]
}

// mergeBlock replaces one block of s with payload. The payload may be the
// block itself or an object wrapping it under the block name.
func mergeBlock(s *spec.Specification, block string, payload []byte) (*spec.Specification, error) {
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(payload, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAIResponse, err)
	}
	if inner, ok := wrapped[block]; ok && len(wrapped) == 1 {
		payload = inner
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	doc[block] = payload

	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	out, err := spec.ParseJSON(merged)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAIResponse, err)
	}
	return out, nil
}

func validateJSON(schema gojsonschema.JSONLoader, payload string) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewStringLoader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAIResponse, err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidAIResponse, strings.Join(issues, "; "))
	}
	return nil
}

// extractJSONPayload strips code fences and surrounding prose from a model
// answer.
func extractJSONPayload(text string) string {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	start := strings.IndexAny(clean, "[{")
	if start == -1 {
		return clean
	}
	closer := "}"
	if clean[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(clean, closer)
	if end <= start {
		return clean
	}
	return strings.TrimSpace(clean[start : end+1])
}
