package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/felixgeelhaar/agentforge/internal/infrastructure/config"
	"github.com/felixgeelhaar/agentforge/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/agentforge/pkg/domain/capability"
	"github.com/felixgeelhaar/agentforge/pkg/domain/gate"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lint"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec/spectest"
	"github.com/felixgeelhaar/agentforge/pkg/domain/testcase"
)

func newTestServer(t *testing.T, s *spec.Specification) *Server {
	t.Helper()
	root := t.TempDir()
	ws := wiring.NewWorkspace(root)
	if err := ws.Repo.Initialize(); err != nil {
		t.Fatal(err)
	}
	if s != nil {
		if err := ws.Repo.SaveSpec(s); err != nil {
			t.Fatal(err)
		}
	}
	cfg := config.Defaults()
	cfg.AI.Provider = "mock"
	services, err := wiring.BuildAppServices(root, &cfg, nil)
	if err != nil {
		t.Fatalf("build services: %v", err)
	}
	t.Cleanup(func() { _ = services.Close() })
	return NewServer(services)
}

func TestServer_CompileAndPublish(t *testing.T) {
	full := spectest.Full()
	s := newTestServer(t, &full)
	ctx := context.Background()

	resp, err := s.handleCompile(ctx, CompileArgs{})
	if err != nil {
		t.Fatalf("handleCompile: %v", err)
	}
	compiled := resp.(compileResponse)
	if !compiled.Success || compiled.RunID == "" || compiled.Output == nil {
		t.Fatalf("compile response = %+v", compiled)
	}

	gateResp, err := s.handlePublishGate(ctx, struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	if res := gateResp.(gate.Result); res.Passed {
		t.Error("gate should fail without test cases")
	}

	pub, err := s.handlePublish(ctx, struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	if p := pub.(publishResponse); p.Published || p.Message != "Publish gate failed." {
		t.Errorf("publish = %+v", p)
	}

	if err := s.services.Tests.AddTestCase(ctx, &testcase.Case{Input: "Refund please"}); err != nil {
		t.Fatal(err)
	}
	pub, err = s.handlePublish(ctx, struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	if p := pub.(publishResponse); !p.Published {
		t.Errorf("publish = %+v", p)
	}

	content, err := s.systemPrompt(ctx, systemPromptURI, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(content.Text, "Mission:") {
		t.Errorf("system prompt = %q", content.Text)
	}
}

func TestServer_CompileIncomplete(t *testing.T) {
	s := newTestServer(t, &spec.Specification{Mission: spec.Mission{Problem: "Triage"}})

	resp, err := s.handleCompile(context.Background(), CompileArgs{})
	if err != nil {
		t.Fatalf("incomplete spec should not be a tool error: %v", err)
	}
	compiled := resp.(compileResponse)
	if compiled.Success || len(compiled.Errors) == 0 {
		t.Errorf("compile response = %+v", compiled)
	}
}

func TestServer_NoSpec(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	if _, err := s.handleCompile(ctx, CompileArgs{}); err == nil || !strings.Contains(err.Error(), "No specification found") {
		t.Errorf("compile err = %v", err)
	}
	if _, err := s.handleCompleteness(ctx, struct{}{}); err == nil {
		t.Error("expected error without spec")
	}
	if _, err := s.systemPrompt(ctx, systemPromptURI, nil); err == nil {
		t.Error("expected error without build")
	}
	resp, err := s.handlePublishGate(ctx, struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	if res := resp.(gate.Result); len(res.Reasons) != 1 || res.Reasons[0] != gate.NoSpecReason {
		t.Errorf("gate = %+v", res)
	}
}

func TestServer_LintAndCompleteness(t *testing.T) {
	minimal := spectest.MinimalValid()
	s := newTestServer(t, &minimal)
	ctx := context.Background()

	resp, err := s.handleLint(ctx, struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	lr := resp.(lintResponse)
	if len(lr.Findings) == 0 || lr.Counts[lint.SeverityCritical] != 0 {
		t.Errorf("lint = %+v", lr)
	}

	resp, err = s.handleCompleteness(ctx, struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	cr := resp.(completenessResponse)
	if cr.Overall <= 0 || cr.Overall >= 100 || len(cr.MissingFields) == 0 {
		t.Errorf("completeness = %+v", cr)
	}
}

func TestServer_CheckCapabilities(t *testing.T) {
	minimal := spectest.MinimalValid()
	s := newTestServer(t, &minimal)
	ctx := context.Background()

	resp, err := s.handleCheckCapabilities(ctx, CapabilityArgs{Capability: "web_search"})
	if err != nil {
		t.Fatal(err)
	}
	if res := resp.(capability.CheckResult); res.Capability != "web_search" {
		t.Errorf("result = %+v", res)
	}

	if _, err := s.handleCheckCapabilities(ctx, CapabilityArgs{Capability: "teleport"}); err == nil {
		t.Error("expected error for unknown capability")
	}

	resp, err = s.handleCheckCapabilities(ctx, CapabilityArgs{})
	if err != nil {
		t.Fatal(err)
	}
	if all := resp.([]capability.CheckResult); len(all) != 0 {
		t.Errorf("no capabilities are enabled, got %+v", all)
	}
}
