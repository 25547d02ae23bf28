package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/thunderstore/tcli/internal/index"
	"github.com/thunderstore/tcli/internal/project"
	"github.com/thunderstore/tcli/internal/resolver"
	"github.com/thunderstore/tcli/internal/ts"
)

// PackageInfo is one package version in tool output.
type PackageInfo struct {
	Namespace    string   `json:"namespace"    jsonschema:"package namespace"`
	Name         string   `json:"name"         jsonschema:"package name"`
	Version      string   `json:"version"      jsonschema:"package version"`
	Dependencies []string `json:"dependencies" jsonschema:"direct dependencies as full references"`
}

func toPackageInfo(entry ts.IndexEntry) PackageInfo {
	deps := make([]string, 0, len(entry.Dependencies))
	for _, dep := range entry.Dependencies {
		deps = append(deps, dep.String())
	}
	return PackageInfo{
		Namespace:    entry.Namespace,
		Name:         entry.Name,
		Version:      entry.Version.String(),
		Dependencies: deps,
	}
}

// withIndex opens the local package index for the duration of fn.
func withIndex(deps Deps, fn func(*index.Index) error) error {
	idx, err := index.Open(deps.IndexDir)
	if err != nil {
		if errors.Is(err, index.ErrNotSynced) {
			return errors.New("the package index has not been synced; run 'tcli update-schema' or any install command first")
		}
		return err
	}
	defer idx.Close() //nolint:errcheck
	return fn(idx)
}

// PackageVersionsInput identifies a package by its loose identity.
type PackageVersionsInput struct {
	Namespace string `json:"namespace" jsonschema:"package namespace"`
	Name      string `json:"name"      jsonschema:"package name"`
}

// PackageVersionsOutput lists a package's indexed versions.
type PackageVersionsOutput struct {
	Count    int           `json:"count"    jsonschema:"number of versions"`
	Versions []PackageInfo `json:"versions" jsonschema:"versions, newest first"`
}

func handlePackageVersions(deps Deps) mcp.ToolHandlerFor[PackageVersionsInput, PackageVersionsOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input PackageVersionsInput) (*mcp.CallToolResult, PackageVersionsOutput, error) {
		var out PackageVersionsOutput
		err := withIndex(deps, func(idx *index.Index) error {
			loose := input.Namespace + "-" + input.Name
			for _, entry := range idx.GetVersions(loose) {
				out.Versions = append(out.Versions, toPackageInfo(entry))
			}
			out.Count = len(out.Versions)
			return nil
		})
		return nil, out, err
	}
}

// LatestPackageInput identifies a package by its loose identity.
type LatestPackageInput struct {
	Namespace string `json:"namespace" jsonschema:"package namespace"`
	Name      string `json:"name"      jsonschema:"package name"`
}

// LatestPackageOutput is the latest indexed version of a package.
type LatestPackageOutput struct {
	Package PackageInfo `json:"package" jsonschema:"latest indexed version"`
}

func handleLatestPackage(deps Deps) mcp.ToolHandlerFor[LatestPackageInput, LatestPackageOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input LatestPackageInput) (*mcp.CallToolResult, LatestPackageOutput, error) {
		var out LatestPackageOutput
		err := withIndex(deps, func(idx *index.Index) error {
			loose := input.Namespace + "-" + input.Name
			entry, ok := idx.Latest(loose)
			if !ok {
				return errors.New("package " + loose + " does not exist in the index")
			}
			out.Package = toPackageInfo(entry)
			return nil
		})
		return nil, out, err
	}
}

// ResolveInput is a set of package references to resolve.
type ResolveInput struct {
	Packages []string `json:"packages" jsonschema:"package references, namespace-name or namespace-name-version"`
}

// ResolveOutput is the resolved dependency set.
type ResolveOutput struct {
	Count    int      `json:"count"    jsonschema:"number of packages in the set"`
	Packages []string `json:"packages" jsonschema:"full references in install order"`
}

func handleResolve(deps Deps) mcp.ToolHandlerFor[ResolveInput, ResolveOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input ResolveInput) (*mcp.CallToolResult, ResolveOutput, error) {
		if len(input.Packages) == 0 {
			return nil, ResolveOutput{}, errors.New("specify at least one package reference")
		}

		refs, err := parseReferences(input.Packages)
		if err != nil {
			return nil, ResolveOutput{}, err
		}

		var out ResolveOutput
		err = withIndex(deps, func(idx *index.Index) error {
			graph, err := resolver.Resolve(idx, refs)
			if err != nil {
				return err
			}
			for _, ref := range graph.Digest() {
				out.Packages = append(out.Packages, ref.String())
			}
			out.Count = len(out.Packages)
			return nil
		})
		return nil, out, err
	}
}

// InstalledInput has no parameters.
type InstalledInput struct{}

// InstalledOutput lists the lockfile-pinned packages.
type InstalledOutput struct {
	Count    int      `json:"count"    jsonschema:"number of installed packages"`
	Packages []string `json:"packages" jsonschema:"full references in install order"`
}

func handleInstalled(deps Deps) mcp.ToolHandlerFor[InstalledInput, InstalledOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ InstalledInput) (*mcp.CallToolResult, InstalledOutput, error) {
		proj, err := project.Open(deps.ProjectDir)
		if err != nil {
			return nil, InstalledOutput{}, err
		}
		refs, err := proj.InstalledPackages()
		if err != nil {
			return nil, InstalledOutput{}, err
		}

		out := InstalledOutput{Count: len(refs)}
		for _, ref := range refs {
			out.Packages = append(out.Packages, ref.String())
		}
		return nil, out, nil
	}
}

// ProjectDepsInput has no parameters.
type ProjectDepsInput struct{}

// ProjectDepsOutput lists the manifest's declared dependencies.
type ProjectDepsOutput struct {
	Count    int      `json:"count"    jsonschema:"number of declared dependencies"`
	Packages []string `json:"packages" jsonschema:"declared dependency references"`
}

func handleProjectDeps(deps Deps) mcp.ToolHandlerFor[ProjectDepsInput, ProjectDepsOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ ProjectDepsInput) (*mcp.CallToolResult, ProjectDepsOutput, error) {
		proj, err := project.Open(deps.ProjectDir)
		if err != nil {
			return nil, ProjectDepsOutput{}, err
		}
		manifest, err := proj.Manifest()
		if err != nil {
			return nil, ProjectDepsOutput{}, err
		}

		out := ProjectDepsOutput{Count: len(manifest.Dependencies)}
		for _, ref := range manifest.Dependencies {
			out.Packages = append(out.Packages, ref.String())
		}
		return nil, out, nil
	}
}

// AddPackagesInput is a set of references to declare as dependencies.
type AddPackagesInput struct {
	Packages []string `json:"packages" jsonschema:"package references to add to the manifest"`
}

// AddPackagesOutput reports the manifest's dependency list after the add.
type AddPackagesOutput struct {
	Packages []string `json:"packages" jsonschema:"declared dependencies after the add"`
}

func handleAddPackages(deps Deps) mcp.ToolHandlerFor[AddPackagesInput, AddPackagesOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input AddPackagesInput) (*mcp.CallToolResult, AddPackagesOutput, error) {
		if len(input.Packages) == 0 {
			return nil, AddPackagesOutput{}, errors.New("specify at least one package reference")
		}
		refs, err := parseReferences(input.Packages)
		if err != nil {
			return nil, AddPackagesOutput{}, err
		}

		proj, err := project.Open(deps.ProjectDir)
		if err != nil {
			return nil, AddPackagesOutput{}, err
		}
		if err := proj.AddPackages(refs); err != nil {
			return nil, AddPackagesOutput{}, err
		}

		manifest, err := proj.Manifest()
		if err != nil {
			return nil, AddPackagesOutput{}, err
		}
		var out AddPackagesOutput
		for _, ref := range manifest.Dependencies {
			out.Packages = append(out.Packages, ref.String())
		}
		return nil, out, nil
	}
}

// parseReferences parses reference strings, stopping at the first bad one.
func parseReferences(values []string) ([]ts.Reference, error) {
	refs := make([]ts.Reference, 0, len(values))
	for _, value := range values {
		ref, err := ts.ParseReference(value)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
