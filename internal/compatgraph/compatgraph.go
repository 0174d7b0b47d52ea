// Package compatgraph builds the pairwise test-vector compatibility
// graph over rare nodes and enumerates its maximal cliques, the
// grouping step that identifies nodes a single trigger can activate
// together (spec.md §4.4).
package compatgraph

import (
	"sort"

	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/netlist"
	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/podem"
)

const (
	maxCliques        = 1000
	maxRecursionSteps = 50000
)

// Graph holds the per-node test vectors, the compatibility adjacency,
// and the bookkeeping needed to report whether clique search was
// pruned before exhausting the search space.
type Graph struct {
	nl    *netlist.Netlist
	just  *podem.Justifier
	vecs  map[*netlist.Node]map[*netlist.Node]int
	valid []*netlist.Node

	adj map[int]map[int]struct{}

	recursionSteps int
	pruned         bool
}

// New returns a Graph bound to nl, running its own Justifier.
func New(nl *netlist.Netlist) *Graph {
	return &Graph{
		nl:   nl,
		just: podem.New(nl),
		vecs: make(map[*netlist.Node]map[*netlist.Node]int),
		adj:  make(map[int]map[int]struct{}),
	}
}

// GenerateTestVectors runs PODEM against every rare node, translating
// its mined polarity into the PODEM target value (Rare0 -> justify 0,
// Rare1 -> justify 1). Nodes PODEM cannot justify are dropped from the
// graph entirely.
func (g *Graph) GenerateTestVectors(rareNodes []*netlist.Node) {
	for _, n := range rareNodes {
		target := 1
		if n.RarePolarity == netlist.Rare0 {
			target = 0
		}
		vec := g.just.GenerateTest(n, target)
		if len(vec) == 0 {
			continue
		}
		vecMapped := make(map[*netlist.Node]int, len(vec))
		for in, v := range vec {
			vecMapped[in] = v
		}
		g.vecs[n] = vecMapped
		g.valid = append(g.valid, n)
	}
}

func vectorsCompatible(v1, v2 map[*netlist.Node]int) bool {
	for in, val1 := range v1 {
		if val2, ok := v2[in]; ok && val2 != val1 {
			return false
		}
	}
	return true
}

// BuildGraph constructs the compatibility edges: two valid rare nodes
// are adjacent iff their mined test vectors assign no conflicting
// value to a shared primary input.
func (g *Graph) BuildGraph() {
	for i := 0; i < len(g.valid); i++ {
		for j := i + 1; j < len(g.valid); j++ {
			n1, n2 := g.valid[i], g.valid[j]
			if vectorsCompatible(g.vecs[n1], g.vecs[n2]) {
				g.addEdge(n1.ID, n2.ID)
			}
		}
	}
}

func (g *Graph) addEdge(a, b int) {
	if g.adj[a] == nil {
		g.adj[a] = make(map[int]struct{})
	}
	if g.adj[b] == nil {
		g.adj[b] = make(map[int]struct{})
	}
	g.adj[a][b] = struct{}{}
	g.adj[b][a] = struct{}{}
}

// FindCliques enumerates maximal cliques of size >= minSize via
// pivot-free Bron-Kerbosch, capped at maxCliques results and
// maxRecursionSteps recursive calls. Pruned() reports whether either
// cap was hit before the search space was exhausted.
func (g *Graph) FindCliques(minSize int) [][]*netlist.Node {
	g.recursionSteps = 0
	g.pruned = false

	p := make(map[int]struct{}, len(g.valid))
	for _, n := range g.valid {
		p[n.ID] = struct{}{}
	}

	var cliques [][]*netlist.Node
	g.bronKerbosch(map[int]struct{}{}, p, map[int]struct{}{}, &cliques, minSize)
	return cliques
}

// FindCliquesFallback tries each candidate size in sizes, in the given
// order, returning the first non-empty FindCliques result. This is the
// clique-size fallback chain: a caller typically passes sizes in
// descending order so a run prefers the largest trigger it can find
// before settling for a smaller one. Returns nil if every size in the
// chain comes up empty.
func (g *Graph) FindCliquesFallback(sizes []int) [][]*netlist.Node {
	for _, size := range sizes {
		if cliques := g.FindCliques(size); len(cliques) > 0 {
			return cliques
		}
	}
	return nil
}

func (g *Graph) bronKerbosch(r, p, x map[int]struct{}, cliques *[][]*netlist.Node, minSize int) {
	if len(*cliques) >= maxCliques {
		g.pruned = true
		return
	}

	g.recursionSteps++
	if g.recursionSteps > maxRecursionSteps {
		g.pruned = true
		return
	}

	if len(p) == 0 && len(x) == 0 {
		if len(r) >= minSize {
			clique := make([]*netlist.Node, 0, len(r))
			for id := range r {
				clique = append(clique, g.nl.Nodes[id])
			}
			sort.Slice(clique, func(i, j int) bool { return clique[i].ID < clique[j].ID })
			*cliques = append(*cliques, clique)
		}
		return
	}

	pCopy := make([]int, 0, len(p))
	for v := range p {
		pCopy = append(pCopy, v)
	}
	sort.Ints(pCopy)

	for _, v := range pCopy {
		newR := copyIntSet(r)
		newR[v] = struct{}{}

		newP := make(map[int]struct{})
		for pv := range p {
			if _, adj := g.adj[v][pv]; adj {
				newP[pv] = struct{}{}
			}
		}
		newX := make(map[int]struct{})
		for xv := range x {
			if _, adj := g.adj[v][xv]; adj {
				newX[xv] = struct{}{}
			}
		}

		g.bronKerbosch(newR, newP, newX, cliques, minSize)
		if g.pruned {
			return
		}

		delete(p, v)
		x[v] = struct{}{}
	}
}

func copyIntSet(s map[int]struct{}) map[int]struct{} {
	cp := make(map[int]struct{}, len(s))
	for k := range s {
		cp[k] = struct{}{}
	}
	return cp
}

// TestVector returns the PODEM-mined input assignment for a rare node,
// or nil if PODEM never succeeded for it.
func (g *Graph) TestVector(n *netlist.Node) map[*netlist.Node]int {
	return g.vecs[n]
}

// ValidRareNodeCount is the number of rare nodes PODEM could justify.
func (g *Graph) ValidRareNodeCount() int { return len(g.valid) }

// EdgeCount returns the number of undirected compatibility edges.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, neighbors := range g.adj {
		total += len(neighbors)
	}
	return total / 2
}

// Density returns edge count over the maximum possible edge count for
// the valid-rare-node vertex set, or 0 when there are fewer than 2
// vertices.
func (g *Graph) Density() float64 {
	v := len(g.valid)
	if v <= 1 {
		return 0
	}
	maxEdges := v * (v - 1) / 2
	return float64(g.EdgeCount()) / float64(maxEdges)
}

// Pruned reports whether the last FindCliques call hit the clique- or
// recursion-count cap before exhausting the search space.
func (g *Graph) Pruned() bool { return g.pruned }

// RecursionSteps returns the Bron-Kerbosch call count from the last
// FindCliques invocation.
func (g *Graph) RecursionSteps() int { return g.recursionSteps }
