package waitfor

import (
	"fmt"
	"strings"
	"sync"
)

// a node in the wait-for graph
// holders and resources share one id space: an edge holder->resource means
// "holder is blocked waiting to acquire resource", an edge resource->holder
// means "resource is currently held by holder"
type NodeID uint64

// a directed wait edge
type Edge struct {
	From NodeID
	To   NodeID
}

// Graph is a shared wait-for graph with on-demand cycle detection.
// A directed cycle means deadlock: a closed chain of holders each blocked on
// the next.
//
// The structure is small and low-frequency, so one exclusive mutex covers
// every operation; detection always sees a consistent snapshot. Nodes and
// per-node edges keep insertion order so traversal, and therefore any
// reported cycle, is reproducible.
//
// Edge lifecycle is the caller's responsibility: record an edge when a wait
// begins, remove it when the wait resolves.
type Graph struct {
	mu    sync.Mutex
	order []NodeID
	edges map[NodeID][]NodeID
	seen  map[NodeID]map[NodeID]struct{}
}

func New() *Graph {
	return &Graph{
		edges: make(map[NodeID][]NodeID),
		seen:  make(map[NodeID]map[NodeID]struct{}),
	}
}

// callers must hold g.mu
func (g *Graph) ensureNode(n NodeID) {
	if _, ok := g.seen[n]; ok {
		return
	}
	g.seen[n] = make(map[NodeID]struct{})
	g.order = append(g.order, n)
}

// AddWait records the directed edge from -> to.
// Idempotent: re-adding an existing edge is a no-op, not a duplicate.
func (g *Graph) AddWait(from, to NodeID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.ensureNode(from)
	g.ensureNode(to)

	if _, ok := g.seen[from][to]; ok {
		return
	}
	g.seen[from][to] = struct{}{}
	g.edges[from] = append(g.edges[from], to)
}

// RemoveWait deletes the edge from -> to if present; no-op otherwise.
// Needed when a wait resolves, so the graph stays a snapshot of current
// contention.
func (g *Graph) RemoveWait(from, to NodeID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seen[from][to]; !ok {
		return
	}
	delete(g.seen[from], to)

	out := g.edges[from]
	for i, n := range out {
		if n == to {
			g.edges[from] = append(out[:i], out[i+1:]...)
			break
		}
	}
}

// DetectCycle reports whether the graph currently contains a directed cycle.
// Query only: never fails, never mutates the graph. An empty graph has no
// cycle.
func (g *Graph) DetectCycle() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.findCycle() != nil
}

// CyclePath returns one cycle as a node sequence for diagnostic reporting,
// the first node repeated implicitly (a -> b -> c closes back to a).
// The second return is false when the graph is acyclic.
func (g *Graph) CyclePath() ([]NodeID, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cycle := g.findCycle()
	return cycle, cycle != nil
}

// findCycle runs depth-first search from every unvisited node in insertion
// order. Two marks are tracked: onPath flags nodes on the current search
// path, visited flags nodes fully explored by any retired branch. Only an
// onPath hit is a cycle; skipping visited nodes keeps the scan O(V+E).
// callers must hold g.mu
func (g *Graph) findCycle() []NodeID {
	visited := make(map[NodeID]bool, len(g.order))
	onPath := make(map[NodeID]bool)

	var path []NodeID
	var dfs func(n NodeID) []NodeID
	dfs = func(n NodeID) []NodeID {
		visited[n] = true
		onPath[n] = true
		path = append(path, n)

		for _, m := range g.edges[n] {
			if onPath[m] {
				// slice the path stack from the first occurrence of m
				for i, p := range path {
					if p == m {
						cycle := make([]NodeID, len(path)-i)
						copy(cycle, path[i:])
						return cycle
					}
				}
			}
			if !visited[m] {
				if cycle := dfs(m); cycle != nil {
					return cycle
				}
			}
		}

		onPath[n] = false
		path = path[:len(path)-1]
		return nil
	}

	for _, n := range g.order {
		if !visited[n] {
			if cycle := dfs(n); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// Chains renders the current cycle set as human-readable chains, one string
// per cycle, ready for a status endpoint or dashboard. Empty when the graph
// is acyclic.
func (g *Graph) Chains() []string {
	cycle, ok := g.CyclePath()
	if !ok {
		return nil
	}

	var b strings.Builder
	for _, n := range cycle {
		fmt.Fprintf(&b, "%d -> ", n)
	}
	fmt.Fprintf(&b, "%d", cycle[0])

	return []string{b.String()}
}

// Edges returns the current edge set in deterministic order.
func (g *Graph) Edges() []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []Edge
	for _, from := range g.order {
		for _, to := range g.edges[from] {
			out = append(out, Edge{From: from, To: to})
		}
	}
	return out
}

// Len returns the number of edges.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0
	for _, out := range g.edges {
		n += len(out)
	}
	return n
}
