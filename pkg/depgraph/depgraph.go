// Package depgraph provides the dependency graph produced by resolution.
//
// Unlike a build-order DAG, the raw Maven dependency graph may contain
// cycles (they exist on Maven Central), so the graph is a directed
// multigraph with cycle-tolerant traversal: walks terminate on revisit
// rather than failing.
//
// Nodes are keyed by module identity (group, artifact); the resolver
// guarantees at most one version per module, so a node carries its pinned
// version rather than appearing once per observed version. Edges carry
// the scope declared in the parent's metadata.
package depgraph

import (
	"errors"
	"sort"

	"github.com/jargo-build/jargo/pkg/maven"
)

var (
	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From
	// module has not been added to the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To
	// module has not been added to the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// Node is a resolved module in the graph.
type Node struct {
	Module  maven.Module
	Version string // pinned version
	Scope   string // effective scope: compile, runtime, or test
}

// Coordinate returns the node's pinned coordinate.
func (n *Node) Coordinate() maven.Coordinate {
	return maven.Coordinate{Module: n.Module, Version: n.Version}
}

// Edge is a directed dependency between two modules, labeled with the
// scope the parent's metadata declared for it.
type Edge struct {
	From, To maven.Module
	Scope    string
}

// Graph is the dependency multigraph. The zero value is not usable; use
// [New]. Graph is not safe for concurrent use without external
// synchronization; the resolver owns it from a single goroutine.
type Graph struct {
	nodes    map[maven.Module]*Node
	edges    []Edge
	edgeSet  map[Edge]bool
	outgoing map[maven.Module][]maven.Module
	roots    []maven.Module
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[maven.Module]*Node),
		edgeSet:  make(map[Edge]bool),
		outgoing: make(map[maven.Module][]maven.Module),
	}
}

// AddRoot records a direct dependency of the project: a traversal entry
// point for [Graph.Walk] and the tree rendering.
func (g *Graph) AddRoot(mod maven.Module) {
	for _, r := range g.roots {
		if r == mod {
			return
		}
	}
	g.roots = append(g.roots, mod)
}

// Roots returns the direct dependencies in insertion order.
func (g *Graph) Roots() []maven.Module {
	return append([]maven.Module(nil), g.roots...)
}

// SetNode inserts or updates the node for a module. Updating is the
// normal case during highest-wins resolution: the module keeps its
// identity while its pinned version moves up.
func (g *Graph) SetNode(n Node) {
	g.nodes[n.Module] = &n
}

// Node returns the node for a module, if present.
func (g *Graph) Node(mod maven.Module) (*Node, bool) {
	n, ok := g.nodes[mod]
	return n, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns all nodes sorted by module identity for deterministic
// iteration.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Module.Group != out[j].Module.Group {
			return out[i].Module.Group < out[j].Module.Group
		}
		return out[i].Module.Artifact < out[j].Module.Artifact
	})
	return out
}

// AddEdge records a dependency edge. Both endpoints must exist. Duplicate
// edges (same endpoints and scope) collapse to one.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if g.edgeSet[e] {
		return nil
	}
	g.edgeSet[e] = true
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
	return nil
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// Children returns the distinct direct dependencies of a module, sorted.
func (g *Graph) Children(mod maven.Module) []maven.Module {
	seen := make(map[maven.Module]bool)
	var out []maven.Module
	for _, to := range g.outgoing[mod] {
		if !seen[to] {
			seen[to] = true
			out = append(out, to)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Artifact < out[j].Artifact
	})
	return out
}

// Walk visits every node reachable from the roots in depth-first order.
// fn receives the node and its depth; returning false prunes the subtree.
// Cycles terminate on revisit.
func (g *Graph) Walk(fn func(n *Node, depth int) bool) {
	visited := make(map[maven.Module]bool)
	var visit func(mod maven.Module, depth int)
	visit = func(mod maven.Module, depth int) {
		if visited[mod] {
			return
		}
		visited[mod] = true
		n, ok := g.nodes[mod]
		if !ok || !fn(n, depth) {
			return
		}
		for _, child := range g.Children(mod) {
			visit(child, depth+1)
		}
	}
	for _, root := range g.roots {
		visit(root, 0)
	}
}

// PathTo returns one dependency chain from a root to the given module,
// for error reporting. Returns nil when the module is unreachable.
func (g *Graph) PathTo(target maven.Module) []maven.Module {
	type frame struct {
		mod  maven.Module
		path []maven.Module
	}
	visited := make(map[maven.Module]bool)
	queue := make([]frame, 0, len(g.roots))
	for _, r := range g.roots {
		queue = append(queue, frame{mod: r, path: []maven.Module{r}})
	}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if visited[f.mod] {
			continue
		}
		visited[f.mod] = true
		if f.mod == target {
			return f.path
		}
		for _, child := range g.Children(f.mod) {
			next := append(append([]maven.Module(nil), f.path...), child)
			queue = append(queue, frame{mod: child, path: next})
		}
	}
	return nil
}
