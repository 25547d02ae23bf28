package resolver

import (
	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/index"
	"github.com/thunderstore/tcli/internal/ts"
)

// PackageSource supplies index entries during resolution.
// Satisfied by *index.Index.
type PackageSource interface {
	Get(ref ts.Reference) (ts.IndexEntry, bool)
	Latest(looseIdent string) (ts.IndexEntry, bool)
}

var _ PackageSource = (*index.Index)(nil)

// Resolve walks the package index from the requested roots and produces
// the full dependency graph. Loose roots resolve to their latest indexed
// version. A dependency already present at an equal or greater version is
// not walked again, but still gains its edge.
func Resolve(source PackageSource, roots []ts.Reference) (*Graph, error) {
	g := NewGraph()

	pinned := make([]ts.Reference, 0, len(roots))
	for _, root := range roots {
		ref := root
		if ref.IsLoose() {
			entry, ok := source.Latest(ref.LooseIdent())
			if !ok {
				return nil, errors.Errorf("package %s does not exist in the index", ref)
			}
			ref = entry.Reference()
		}
		pinned = append(pinned, ref)
	}

	visited := make(map[string]bool)
	queue := append([]ts.Reference{}, pinned...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current.String()] {
			continue
		}
		visited[current.String()] = true

		entry, ok := source.Get(current)
		if !ok {
			return nil, errors.Errorf("package %s does not exist in the index", current)
		}
		g.Add(current)

		for _, dep := range entry.Dependencies {
			held, exists := g.VersionOf(dep.LooseIdent())
			if exists && held.Version.GreaterThan(dep.Version) {
				// A newer version is already in the graph; keep it and
				// just record the dependency edge.
				g.AddEdge(current, dep)
				continue
			}

			g.Add(dep)
			g.AddEdge(current, dep)
			queue = append(queue, dep)
		}
	}

	for _, root := range pinned {
		g.AddRootEdge(root)
	}

	return g, nil
}
