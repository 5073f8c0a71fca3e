package mcp

import (
	"context"

	mcplib "github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
)

const (
	schemaURI       = "agentforge://schema/spec"
	systemPromptURI = "agentforge://build/system-prompt"
)

func (s *Server) registerResources() {
	s.mcpServer.Resource(schemaURI).
		Name(schemaURI).
		Description("JSON schema of the agent specification file").
		MimeType("application/schema+json").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			return &mcplib.ResourceContent{URI: schemaURI, MimeType: "application/schema+json", Text: spec.SchemaJSON}, nil
		})

	s.mcpServer.Resource(systemPromptURI).
		Name(systemPromptURI).
		Description("System prompt of the last successful compile").
		MimeType("text/markdown").
		Handler(s.systemPrompt)
}

func (s *Server) systemPrompt(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
	build, err := s.services.Workspace.Repo.LoadBuild()
	if err != nil {
		return nil, mcpErr("No build found. Run agentforge_compile first.")
	}
	return &mcplib.ResourceContent{
		URI:      systemPromptURI,
		MimeType: "text/markdown",
		Text:     build.Output.PromptPackage.SystemPrompt(),
	}, nil
}
