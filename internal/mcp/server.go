// Package mcp provides a Model Context Protocol server for tcli.
// It exposes package index and project operations as MCP tools that any
// MCP-capable agent can use.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Deps points the tool handlers at the local index and project.
type Deps struct {
	// IndexDir holds the synced package index.
	IndexDir string
	// ProjectDir is the tcli project the tools operate on.
	ProjectDir string
}

// NewServer creates an MCP server with all tcli tools registered.
func NewServer(version string, deps Deps) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "tcli",
		Version: version,
	}, nil)
	registerTools(server, deps)
	return server
}

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// readOnlyAnnotations returns annotations for read-only tools.
func readOnlyAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false),
	}
}

// writeAnnotations returns annotations for write tools (additive, not destructive).
func writeAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(false),
		OpenWorldHint:   boolPtr(false),
	}
}

// registerTools adds all tcli tools to the server.
func registerTools(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "package_versions",
		Description: "List every indexed version of a package, given its namespace-name identity. Returns versions newest first with their dependencies.",
		Annotations: readOnlyAnnotations(),
	}, handlePackageVersions(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "latest_package",
		Description: "Look up the latest indexed version of a package by namespace-name identity.",
		Annotations: readOnlyAnnotations(),
	}, handleLatestPackage(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_dependencies",
		Description: "Resolve package references against the local index and return the full dependency set in install order. Loose references resolve to their latest version.",
		Annotations: readOnlyAnnotations(),
	}, handleResolve(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "installed_packages",
		Description: "List the packages pinned by the project lockfile, in install order.",
		Annotations: readOnlyAnnotations(),
	}, handleInstalled(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "project_dependencies",
		Description: "List the dependencies declared in the project manifest (Thunderstore.toml).",
		Annotations: readOnlyAnnotations(),
	}, handleProjectDeps(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_packages",
		Description: "Add package references to the project manifest's dependency list. Does not install them; run 'tcli run' or commit the project to install.",
		Annotations: writeAnnotations(),
	}, handleAddPackages(deps))
}
