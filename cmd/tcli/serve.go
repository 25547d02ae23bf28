package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/thunderstore/tcli/internal/config"
	tclimcp "github.com/thunderstore/tcli/internal/mcp"
)

// newServeCmd creates the serve command for running as an MCP server.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run as MCP server (stdio transport)",
		Long: `Run tcli as a Model Context Protocol (MCP) server over stdio.

This exposes tcli operations as MCP tools that any MCP-capable agent
environment can use.

Configure in your agent's MCP settings:
  {
    "mcpServers": {
      "tcli": {
        "command": "tcli",
        "args": ["serve"]
      }
    }
  }

Available tools: package_versions, latest_package, resolve_dependencies,
installed_packages, project_dependencies, add_packages`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server := tclimcp.NewServer(buildVersion(), tclimcp.Deps{
				IndexDir:   config.IndexDir(),
				ProjectDir: projectDir(cmd),
			})
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
