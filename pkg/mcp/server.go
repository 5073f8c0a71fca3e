// Package mcp embeds the agentforge MCP server in other programs.
package mcp

import (
	"log/slog"

	"github.com/felixgeelhaar/agentforge/internal/infrastructure/config"
	infra "github.com/felixgeelhaar/agentforge/internal/infrastructure/mcp"
	"github.com/felixgeelhaar/agentforge/internal/infrastructure/wiring"
)

// Server exposes the MCP server implementation from the infrastructure layer.
type Server = infra.Server

// NewServer loads the workspace config under root and wires a server for
// it. An unusable AI provider setting falls back to ollama and is logged.
// Call Close when done.
func NewServer(root string) (*Server, error) {
	cfg, err := config.Load(config.Path(root))
	if err != nil {
		return nil, err
	}
	services, err := wiring.BuildAppServices(root, cfg, nil)
	if services == nil {
		return nil, err
	}
	if err != nil {
		slog.Warn("mcp server provider fallback", "error", err)
	}
	return infra.NewServer(services), nil
}
