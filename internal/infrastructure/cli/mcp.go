package cli

import (
	"fmt"
	"os"
	"strings"

	inframcp "github.com/felixgeelhaar/agentforge/internal/infrastructure/mcp"
	"github.com/spf13/cobra"
)

var (
	mcpTransport string
	mcpAddr      string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the AgentForge MCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, release, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer release()

		if os.Getenv("AGENTFORGE_SKIP_MCP_START") == "true" {
			return nil
		}

		inframcp.Version, inframcp.BuildCommit, inframcp.BuildDate = Version, Commit, Date
		server := inframcp.NewServer(services)
		ctx := cmd.Context()
		switch strings.ToLower(mcpTransport) {
		case "stdio", "":
			err = server.ServeStdio(ctx)
		case "http":
			fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on %s (http)\n", mcpAddr)
			err = server.ServeHTTP(ctx, mcpAddr)
		case "ws", "websocket":
			fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on %s (websocket)\n", mcpAddr)
			err = server.ServeWebSocket(ctx, mcpAddr)
		default:
			return NewCLIError("unsupported transport: "+mcpTransport, "Use --transport stdio, http or ws", nil)
		}
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("mcp server stopped: %w", err)
		}
		return nil
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpTransport, "transport", "stdio", "Transport to use (stdio, http, ws)")
	mcpCmd.Flags().StringVar(&mcpAddr, "addr", ":8080", "Address for http/ws transports")
	RootCmd.AddCommand(mcpCmd)
}
