// Package mcp exposes the compile pipeline and publish gate to MCP clients.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/agentforge/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/agentforge/pkg/application"
	"github.com/felixgeelhaar/agentforge/pkg/domain/capability"
	"github.com/felixgeelhaar/agentforge/pkg/domain/compiler"
	"github.com/felixgeelhaar/agentforge/pkg/domain/gate"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lifecycle"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lint"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
)

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

type Server struct {
	mcpServer *mcp.Server
	services  *wiring.AppServices
}

// mcpErr hides internal details from clients.
func mcpErr(friendly string) error {
	return errors.New(friendly)
}

func NewServer(services *wiring.AppServices) *Server {
	info := mcp.ServerInfo{
		Name:    "agentforge",
		Version: Version,
	}
	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("AgentForge MCP Server"),
			mcp.WithDescription("AgentForge compiles agent specifications into prompt packages and decides whether they may be published."),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Edit .agentforge/spec.yaml, then use the tools to compile, lint, check capabilities and evaluate the publish gate."),
		),
		services: services,
	}
	s.registerTools()
	s.registerResources()
	return s
}

type CompileArgs struct {
	ToolToggles map[string]bool `json:"tool_toggles,omitempty" jsonschema:"description=Per-capability overrides keyed by leaf name such as web_search"`
}

type CapabilityArgs struct {
	Capability string `json:"capability,omitempty" jsonschema:"description=Leaf capability to check; empty checks every enabled capability"`
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("agentforge_compile").
		Description("Compile the workspace spec into the five-layer prompt package and write build artifacts").
		Handler(s.handleCompile)

	s.mcpServer.Tool("agentforge_lint").
		Description("Run the lint rules against the spec and its rendered layers").
		Handler(s.handleLint)

	s.mcpServer.Tool("agentforge_completeness").
		Description("Report the weighted completeness score, missing required fields and blockers").
		Handler(s.handleCompleteness)

	s.mcpServer.Tool("agentforge_check_capabilities").
		Description("Check that the spec fields required by enabled capabilities are filled").
		Handler(s.handleCheckCapabilities)

	s.mcpServer.Tool("agentforge_publish_gate").
		Description("Evaluate the publish gate: quality score, critical findings and test cases").
		Handler(s.handlePublishGate)

	s.mcpServer.Tool("agentforge_publish").
		Description("Publish a compiled spec when the publish gate passes").
		Handler(s.handlePublish)

	s.mcpServer.Tool("agentforge_get_spec").
		Description("Retrieve the current agent specification").
		Handler(s.handleGetSpec)
}

type compileResponse struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors,omitempty"`
	RunID   string   `json:"run_id,omitempty"`
	Hash    string   `json:"spec_hash,omitempty"`
	*compiler.Output
}

func (s *Server) handleCompile(ctx context.Context, args CompileArgs) (any, error) {
	build, err := s.services.Compile.Compile(ctx, args.ToolToggles)
	if err != nil {
		var incomplete *spec.IncompleteError
		if errors.As(err, &incomplete) {
			return compileResponse{Success: false, Errors: incomplete.Errors}, nil
		}
		return nil, s.friendly(err, "Compile failed. Check the spec file for syntax errors.")
	}
	return compileResponse{Success: true, RunID: build.RunID, Hash: build.SpecHash, Output: build.Output}, nil
}

type lintResponse struct {
	Findings []lint.Finding        `json:"findings"`
	Counts   map[lint.Severity]int `json:"counts"`
}

func (s *Server) handleLint(ctx context.Context, _ struct{}) (any, error) {
	out, err := s.services.Compile.Assess(ctx)
	if err != nil {
		return nil, s.friendly(err, "Unable to lint the spec.")
	}
	return lintResponse{Findings: out.LintFindings, Counts: lint.Count(out.LintFindings)}, nil
}

type completenessResponse struct {
	spec.CompletenessResult
	Blockers []spec.Blocker `json:"blockers"`
}

func (s *Server) handleCompleteness(_ context.Context, _ struct{}) (any, error) {
	sp, err := s.services.Workspace.Repo.LoadSpec()
	if err != nil {
		return nil, s.friendly(err, "Unable to read the spec.")
	}
	return completenessResponse{CompletenessResult: spec.Completeness(sp), Blockers: spec.DetectBlockers(sp)}, nil
}

func (s *Server) handleCheckCapabilities(_ context.Context, args CapabilityArgs) (any, error) {
	repo := s.services.Workspace.Repo
	sp, err := repo.LoadSpec()
	if err != nil {
		return nil, s.friendly(err, "Unable to read the spec.")
	}
	if args.Capability != "" {
		if _, err := capability.Lookup(args.Capability); err != nil {
			return nil, mcpErr(fmt.Sprintf("Unknown capability %q.", args.Capability))
		}
		return capability.CheckRequirements(args.Capability, sp), nil
	}
	caps, err := repo.LoadCapabilities()
	if err != nil {
		return nil, mcpErr("Unable to read capabilities.yaml.")
	}
	return capability.CheckAll(caps, sp), nil
}

func (s *Server) handlePublishGate(ctx context.Context, _ struct{}) (any, error) {
	res, err := s.services.Gate.Check(ctx)
	if err != nil {
		return nil, s.friendly(err, "Unable to evaluate the publish gate.")
	}
	return res, nil
}

type publishResponse struct {
	Published bool        `json:"published"`
	Message   string      `json:"message,omitempty"`
	Gate      gate.Result `json:"gate"`
}

func (s *Server) handlePublish(ctx context.Context, _ struct{}) (any, error) {
	res, err := s.services.Gate.Publish(ctx)
	switch {
	case err == nil:
		return publishResponse{Published: true, Gate: res}, nil
	case errors.Is(err, application.ErrGateFailed):
		return publishResponse{Message: "Publish gate failed.", Gate: res}, nil
	case errors.Is(err, application.ErrStaleBuild):
		return publishResponse{Message: "The spec changed since the last compile. Compile again before publishing.", Gate: res}, nil
	case errors.Is(err, lifecycle.ErrTransitionNotAllowed):
		return publishResponse{Message: "Only a compiled spec can be published.", Gate: res}, nil
	}
	return nil, s.friendly(err, "Publish failed.")
}

func (s *Server) handleGetSpec(_ context.Context, _ struct{}) (any, error) {
	sp, err := s.services.Workspace.Repo.LoadSpec()
	if err != nil {
		return nil, s.friendly(err, "Unable to read the spec.")
	}
	return sp, nil
}

// friendly maps known errors to client messages and logs the rest.
func (s *Server) friendly(err error, fallback string) error {
	if errors.Is(err, spec.ErrNotFound) {
		return mcpErr("No specification found. Run 'agentforge init' and edit .agentforge/spec.yaml.")
	}
	var schemaErr *spec.SchemaError
	if errors.As(err, &schemaErr) {
		return mcpErr(schemaErr.Error())
	}
	s.services.Logger.Error("mcp tool failed", "error", err)
	return mcpErr(fallback)
}

func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr, mcp.WithDefaultCORS())
}

func (s *Server) ServeWebSocket(ctx context.Context, addr string) error {
	return mcp.ServeWebSocket(ctx, s.mcpServer, addr)
}

// Close releases the services behind the server.
func (s *Server) Close() error {
	return s.services.Close()
}
