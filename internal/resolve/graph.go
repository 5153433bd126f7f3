// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"github.com/modweave/modweave/internal/dag"
	"github.com/modweave/modweave/internal/registry"
	"github.com/modweave/modweave/internal/rules"
	"github.com/modweave/modweave/pkg/gameversion"
	"github.com/modweave/modweave/pkg/modmeta"
)

// Graph holds the ordering constraints between the active, installed mods. Its
// node order is the preferred order: the active list with unknown ids removed.
type Graph struct {
	g *dag.Graph
}

// BuildGraph creates one node per id that is both active and installed, in
// active-list order, and one edge A -> B whenever A must load before B:
//
//   - A lists B in loadBefore,
//   - B lists A in loadAfter,
//   - B depends on A,
//   - A is start-anchored and B is not, or B is end-anchored and A is not.
//
// Relations naming a mod outside the graph are ignored here. Version-specific
// relations for target are included.
func BuildGraph(reg *registry.Registry, active []modmeta.PackageID, target gameversion.Token) *Graph {
	g := dag.New()
	var mods []*registry.InstalledMod
	in := make(map[modmeta.PackageID]bool)
	for _, id := range active {
		m, ok := reg.Get(id)
		if !ok || in[id] {
			continue
		}
		in[id] = true
		mods = append(mods, m)
		g.AddNode(id.String())
	}

	edge := func(from, to modmeta.PackageID) {
		if in[from] && in[to] {
			g.AddEdge(from.String(), to.String())
		}
	}

	for _, m := range mods {
		id := m.ID()
		rel := m.Descriptor.RelationsFor(target)
		for _, other := range rel.LoadBefore {
			edge(id, other)
		}
		for _, other := range rel.LoadAfter {
			edge(other, id)
		}
		for _, dep := range rel.Dependencies {
			edge(dep.ID, id)
		}
	}

	for _, a := range mods {
		for _, b := range mods {
			if a.Anchor == rules.AnchorStart && b.Anchor != rules.AnchorStart {
				edge(a.ID(), b.ID())
			}
			if b.Anchor == rules.AnchorEnd && a.Anchor != rules.AnchorEnd {
				edge(a.ID(), b.ID())
			}
		}
	}

	return &Graph{g: g}
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return g.g.Len() }

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int { return g.g.EdgeCount() }

// Nodes returns the node ids in preferred order.
func (g *Graph) Nodes() []modmeta.PackageID { return toIDs(g.g.Nodes()) }

// Edges returns every edge as a [before, after] pair.
func (g *Graph) Edges() [][2]modmeta.PackageID {
	edges := g.g.Edges()
	out := make([][2]modmeta.PackageID, len(edges))
	for i, e := range edges {
		out[i] = [2]modmeta.PackageID{modmeta.PackageID(e[0]), modmeta.PackageID(e[1])}
	}
	return out
}

// HasEdge reports whether a must load before b.
func (g *Graph) HasEdge(a, b modmeta.PackageID) bool {
	return g.g.HasEdge(a.String(), b.String())
}

func toIDs(names []string) []modmeta.PackageID {
	if names == nil {
		return nil
	}
	ids := make([]modmeta.PackageID, len(names))
	for i, n := range names {
		ids[i] = modmeta.PackageID(n)
	}
	return ids
}
