// Package resolver builds and diffs package dependency graphs.
package resolver

import (
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/ts"
)

// rootIdent is the synthetic root every directly requested package hangs off.
const rootIdent = "@"

// Graph is a directed dependency graph over packages. Nodes are keyed by
// loose identity; each node carries the highest version seen for that
// identity, so version conflicts unify upward.
type Graph struct {
	g    graph.Graph[string, string]
	refs map[string]ts.Reference
}

// NewGraph creates an empty dependency graph with the synthetic root.
func NewGraph() *Graph {
	g := graph.New(graph.StringHash, graph.Directed())
	_ = g.AddVertex(rootIdent)
	return &Graph{
		g:    g,
		refs: make(map[string]ts.Reference),
	}
}

// Add inserts a package node, keeping the higher version when the loose
// identity is already present.
func (d *Graph) Add(ref ts.Reference) {
	loose := ref.LooseIdent()
	if existing, ok := d.refs[loose]; ok {
		if existing.Version.GreaterThan(ref.Version) || existing.Version.Equal(ref.Version) {
			return
		}
		d.refs[loose] = ref
		return
	}
	d.refs[loose] = ref
	_ = d.g.AddVertex(loose)
}

// AddEdge records that parent depends on child. Both must have been added.
func (d *Graph) AddEdge(parent, child ts.Reference) {
	_ = d.g.AddEdge(parent.LooseIdent(), child.LooseIdent())
}

// AddRootEdge marks child as directly requested.
func (d *Graph) AddRootEdge(child ts.Reference) {
	_ = d.g.AddEdge(rootIdent, child.LooseIdent())
}

// VersionOf returns the reference currently held for a loose identity.
func (d *Graph) VersionOf(looseIdent string) (ts.Reference, bool) {
	ref, ok := d.refs[looseIdent]
	return ref, ok
}

// Digest flattens the graph into install order: a depth-first post-order
// walk from the root, so dependencies always precede their dependents.
// Children are visited in sorted order to keep the result stable.
func (d *Graph) Digest() []ts.Reference {
	adjacency, err := d.g.AdjacencyMap()
	if err != nil {
		return nil
	}

	visited := map[string]bool{}
	var order []ts.Reference

	var walk func(node string)
	walk = func(node string) {
		if visited[node] {
			return
		}
		visited[node] = true

		children := make([]string, 0, len(adjacency[node]))
		for child := range adjacency[node] {
			children = append(children, child)
		}
		sort.Strings(children)

		for _, child := range children {
			walk(child)
		}

		if node != rootIdent {
			if ref, ok := d.refs[node]; ok {
				order = append(order, ref)
			}
		}
	}
	walk(rootIdent)

	// Nodes unreachable from the root (a hand-edited lockfile can produce
	// them) are appended so nothing silently drops out of the digest.
	leftovers := make([]string, 0)
	for loose := range d.refs {
		if !visited[loose] {
			leftovers = append(leftovers, loose)
		}
	}
	sort.Strings(leftovers)
	for _, loose := range leftovers {
		order = append(order, d.refs[loose])
	}

	return order
}

// Delta describes the package changes needed to turn one graph into another.
type Delta struct {
	Add []ts.Reference
	Del []ts.Reference
}

// DeltaTo compares the receiver (current state) against target (desired
// state). Version upgrades produce both a Del of the old version and an
// Add of the new one. Result ordering follows the digests.
func (d *Graph) DeltaTo(target *Graph) Delta {
	selfOrder := d.Digest()
	targetOrder := target.Digest()

	selfIdx := make(map[string]int, len(selfOrder))
	for i, ref := range selfOrder {
		selfIdx[ref.LooseIdent()] = i
	}
	targetIdx := make(map[string]int, len(targetOrder))
	for i, ref := range targetOrder {
		targetIdx[ref.LooseIdent()] = i
	}

	var delta Delta
	for _, ref := range selfOrder {
		targetRef, ok := target.refs[ref.LooseIdent()]
		switch {
		case !ok:
			delta.Del = append(delta.Del, ref)
		case ref.Version.LessThan(targetRef.Version):
			delta.Del = append(delta.Del, ref)
			delta.Add = append(delta.Add, targetRef)
		}
	}
	for _, ref := range targetOrder {
		if _, ok := d.refs[ref.LooseIdent()]; !ok {
			delta.Add = append(delta.Add, ref)
		}
	}

	sort.SliceStable(delta.Add, func(a, b int) bool {
		return targetIdx[delta.Add[a].LooseIdent()] < targetIdx[delta.Add[b].LooseIdent()]
	})
	sort.SliceStable(delta.Del, func(a, b int) bool {
		return selfIdx[delta.Del[a].LooseIdent()] < selfIdx[delta.Del[b].LooseIdent()]
	})

	return delta
}

// Serialized is the graph's persistent form, stored in the lockfile.
type Serialized struct {
	Nodes []ts.Reference `json:"nodes"`
	Edges [][2]string    `json:"edges"`
}

// Serialize flattens the graph for the lockfile. Nodes and edges are
// sorted so repeated serialization of the same graph is byte-identical.
func (d *Graph) Serialize() Serialized {
	nodes := make([]ts.Reference, 0, len(d.refs))
	for _, ref := range d.refs {
		nodes = append(nodes, ref)
	}
	sort.Slice(nodes, func(a, b int) bool { return nodes[a].String() < nodes[b].String() })

	edges := make([][2]string, 0)
	if list, err := d.g.Edges(); err == nil {
		for _, edge := range list {
			edges = append(edges, [2]string{edge.Source, edge.Target})
		}
	}
	sort.Slice(edges, func(a, b int) bool {
		if edges[a][0] != edges[b][0] {
			return edges[a][0] < edges[b][0]
		}
		return edges[a][1] < edges[b][1]
	})

	return Serialized{Nodes: nodes, Edges: edges}
}

// FromSerialized rebuilds a graph from its lockfile form.
func FromSerialized(s Serialized) (*Graph, error) {
	d := NewGraph()
	for _, ref := range s.Nodes {
		if ref.IsLoose() {
			return nil, errors.Errorf("lockfile node %q has no version", ref)
		}
		d.Add(ref)
	}
	for _, edge := range s.Edges {
		if edge[0] == rootIdent {
			_ = d.g.AddEdge(rootIdent, edge[1])
			continue
		}
		_ = d.g.AddEdge(edge[0], edge[1])
	}
	return d, nil
}
