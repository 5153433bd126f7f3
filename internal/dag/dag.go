// SPDX-License-Identifier: MPL-2.0

// Package dag orders the nodes of a directed graph. It is used to turn the
// load-order constraints between mods into a concrete load order.
//
// Nodes are stored in an arena and referenced by their insertion index. The
// insertion order doubles as the preferred order: whenever several nodes are
// free to come next, the one inserted first wins. A graph whose insertion order
// already satisfies every edge therefore sorts to exactly that order.
package dag

import (
	"container/heap"
	"fmt"
	"slices"
	"strings"
)

type (
	// CycleError indicates that the graph contains at least one cycle.
	CycleError struct {
		// Cycles lists each strongly connected component of more than one node,
		// members in insertion order, components ordered by their first member.
		Cycles [][]string
	}

	// Graph is a directed graph. An edge from A to B means A must come before B.
	Graph struct {
		nodes []string
		index map[string]int
		adj   [][]int
		edges map[[2]int]struct{}
	}

	// rankHeap is a min-heap of node indexes.
	rankHeap struct {
		ids []int
	}
)

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Cycles))
	for i, c := range e.Cycles {
		parts[i] = strings.Join(c, " -> ")
	}
	return fmt.Sprintf("ordering cycle detected: %s", strings.Join(parts, "; "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		index: make(map[string]int),
		edges: make(map[[2]int]struct{}),
	}
}

// AddNode adds a node and returns its index. Adding an existing node returns
// its original index.
func (g *Graph) AddNode(name string) int {
	if i, ok := g.index[name]; ok {
		return i
	}
	i := len(g.nodes)
	g.nodes = append(g.nodes, name)
	g.index[name] = i
	g.adj = append(g.adj, nil)
	return i
}

// AddEdge adds a directed edge from -> to, adding both nodes if needed.
// Self-edges and duplicate edges are ignored; the return value reports whether
// a new edge was recorded.
func (g *Graph) AddEdge(from, to string) bool {
	f, t := g.AddNode(from), g.AddNode(to)
	if f == t {
		return false
	}
	key := [2]int{f, t}
	if _, ok := g.edges[key]; ok {
		return false
	}
	g.edges[key] = struct{}{}
	g.adj[f] = append(g.adj[f], t)
	return true
}

// HasEdge reports whether the edge from -> to exists.
func (g *Graph) HasEdge(from, to string) bool {
	f, ok := g.index[from]
	if !ok {
		return false
	}
	t, ok := g.index[to]
	if !ok {
		return false
	}
	_, ok = g.edges[[2]int{f, t}]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Nodes returns the node names in insertion order.
func (g *Graph) Nodes() []string { return slices.Clone(g.nodes) }

// Edges returns every edge as a [from, to] pair, grouped by source node in
// insertion order.
func (g *Graph) Edges() [][2]string {
	out := make([][2]string, 0, len(g.edges))
	for f, outs := range g.adj {
		for _, t := range outs {
			out = append(out, [2]string{g.nodes[f], g.nodes[t]})
		}
	}
	return out
}

// TopologicalSort returns an order in which every edge points forward, using
// Kahn's algorithm with ties broken by insertion order. It returns a
// CycleError naming every cycle when no such order exists.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}
	order, cycles := g.Order()
	if len(cycles) > 0 {
		return nil, &CycleError{Cycles: cycles}
	}
	return order, nil
}

// Order always returns an order of all nodes, together with the cycles found.
// Inside a cycle, edges pointing back to an earlier inserted member are
// dropped; every other edge is honored. Nodes outside cycles are ranked as
// usual and are not pulled toward the cycle members. Without cycles the result
// equals TopologicalSort.
func (g *Graph) Order() (order []string, cycles [][]string) {
	comp, comps := g.components()

	for _, members := range comps {
		if len(members) > 1 {
			cycles = append(cycles, g.names(members))
		}
	}
	slices.SortFunc(cycles, func(a, b []string) int {
		return g.index[a[0]] - g.index[b[0]]
	})

	// Every cycle lies within one component, so the kept edges are acyclic.
	indeg := make([]int, len(g.nodes))
	kept := make([][]int, len(g.nodes))
	for v, outs := range g.adj {
		for _, w := range outs {
			if comp[v] == comp[w] && w < v {
				continue
			}
			kept[v] = append(kept[v], w)
			indeg[w]++
		}
	}

	ready := &rankHeap{}
	for v := range g.nodes {
		if indeg[v] == 0 {
			ready.ids = append(ready.ids, v)
		}
	}
	heap.Init(ready)

	order = make([]string, 0, len(g.nodes))
	for ready.Len() > 0 {
		v := heap.Pop(ready).(int)
		order = append(order, g.nodes[v])
		for _, w := range kept[v] {
			indeg[w]--
			if indeg[w] == 0 {
				heap.Push(ready, w)
			}
		}
	}
	return order, cycles
}

// Cycles returns the strongly connected components with more than one node.
func (g *Graph) Cycles() [][]string {
	_, cycles := g.Order()
	return cycles
}

func (g *Graph) names(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id]
	}
	return out
}

// components runs an iterative Tarjan SCC. comp maps a node to its component;
// each component's members are sorted by insertion index.
func (g *Graph) components() (comp []int, comps [][]int) {
	n := len(g.nodes)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	comp = make([]int, n)

	type frame struct{ v, edge int }
	var stack []int
	next := 0
	visit := func(v int) {
		index[v], low[v] = next, next
		next++
		stack = append(stack, v)
		onStack[v] = true
	}

	for root := range n {
		if index[root] >= 0 {
			continue
		}
		visit(root)
		call := []frame{{v: root}}
		for len(call) > 0 {
			top := len(call) - 1
			v := call[top].v
			if e := call[top].edge; e < len(g.adj[v]) {
				call[top].edge++
				w := g.adj[v][e]
				switch {
				case index[w] < 0:
					visit(w)
					call = append(call, frame{v: w})
				case onStack[w]:
					low[v] = min(low[v], index[w])
				}
				continue
			}

			call = call[:top]
			if top > 0 {
				p := call[top-1].v
				low[p] = min(low[p], low[v])
			}
			if low[v] != index[v] {
				continue
			}
			var members []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp[w] = len(comps)
				members = append(members, w)
				if w == v {
					break
				}
			}
			slices.Sort(members)
			comps = append(comps, members)
		}
	}
	return comp, comps
}

func (h *rankHeap) Len() int           { return len(h.ids) }
func (h *rankHeap) Less(i, j int) bool { return h.ids[i] < h.ids[j] }
func (h *rankHeap) Swap(i, j int)      { h.ids[i], h.ids[j] = h.ids[j], h.ids[i] }
func (h *rankHeap) Push(x any)         { h.ids = append(h.ids, x.(int)) }

func (h *rankHeap) Pop() any {
	old := h.ids
	x := old[len(old)-1]
	h.ids = old[:len(old)-1]
	return x
}
