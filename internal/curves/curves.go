// Package curves rebuilds ordered vertex chains from an unordered set of
// undirected edges, such as the edges of a wireframe mesh.
package curves

import (
	"errors"
	"fmt"

	"extrude-gcode/internal/logging"
)

var ErrVertexRange = errors.New("edge vertex out of range")

// Edge is an undirected edge between two vertex indices.
type Edge [2]int

// Chain is an ordered run of vertex indices. A cyclic chain does not repeat
// its first index at the end.
type Chain struct {
	Indices []int
	Cyclic  bool
}

type Result struct {
	Chains []Chain

	// Branching lists vertices with more than two neighbours. Only one
	// continuation is followed through each of them; the other branches may
	// be missing from Chains.
	Branching []int
}

// edgeGraph maps each vertex to its neighbours. Vertices are consumed as
// chains are built; present tracks which are still available.
type edgeGraph struct {
	adj     [][]int
	present []bool
}

func newEdgeGraph(edges []Edge, nVerts int) (*edgeGraph, error) {
	if nVerts < 0 {
		return nil, fmt.Errorf("negative vertex count %d", nVerts)
	}

	g := edgeGraph{
		adj:     make([][]int, nVerts),
		present: make([]bool, nVerts),
	}
	for i := range g.present {
		g.present[i] = true
	}

	seen := make(map[Edge]bool, len(edges))
	for i, e := range edges {
		u, v := e[0], e[1]
		if u < 0 || u >= nVerts || v < 0 || v >= nVerts {
			return nil, fmt.Errorf("edge %d (%d,%d) with %d vertices: %w", i, u, v, nVerts, ErrVertexRange)
		}
		if u == v {
			logging.Logger().Debug("skipping self-loop edge", "edge", i, "vertex", u)
			continue
		}
		key := Edge{min(u, v), max(u, v)}
		if seen[key] {
			continue
		}
		seen[key] = true

		g.adj[u] = append(g.adj[u], v)
		g.adj[v] = append(g.adj[v], u)
	}

	return &g, nil
}

func (g *edgeGraph) has(v int) bool {
	return v >= 0 && v < len(g.present) && g.present[v]
}

func (g *edgeGraph) pop(v int) {
	g.present[v] = false
}

// Find reconstructs the chains described by edges over nVerts vertices.
//
// Every vertex with at least one edge ends up in some chain. Vertices are
// seeded in ascending index order, so the output order follows the input
// numbering rather than geometry. Where a vertex has more than two neighbours
// the walk picks one deterministically and the vertex is reported in
// Result.Branching.
func Find(edges []Edge, nVerts int) (Result, error) {
	g, err := newEdgeGraph(edges, nVerts)
	if err != nil {
		return Result{}, err
	}

	res := Result{}
	for v, nb := range g.adj {
		if len(nb) > 2 {
			res.Branching = append(res.Branching, v)
			logging.Logger().Warn("branching vertex in edge graph; extra branches are ignored",
				"vertex", v, "degree", len(nb))
		}
	}

	for v := 0; v < nVerts; v++ {
		if !g.has(v) {
			continue
		}
		nb := g.adj[v]
		if len(nb) == 0 {
			g.pop(v)
			continue
		}

		chain := make([]int, 0, 8)
		if len(nb) > 1 {
			chain = append(chain, nb[1])
		}
		chain = append(chain, v, nb[0])
		g.pop(v)

		chain = g.extend(chain)

		c := Chain{Indices: chain}
		if len(chain) > 1 && chain[0] == chain[len(chain)-1] {
			c.Indices = chain[:len(chain)-1]
			c.Cyclic = true
		}
		res.Chains = append(res.Chains, c)
	}

	return res, nil
}

// extend walks the chain forward from its tail, turning around once the tail
// runs out, until both ends are exhausted or the chain closes on itself.
func (g *edgeGraph) extend(chain []int) []int {
	for {
		if g.has(chain[len(chain)-1]) {
			// keep going from the tail
		} else if g.has(chain[0]) {
			reverse(chain)
		} else {
			return chain
		}

		last := chain[len(chain)-1]
		nb := g.adj[last]

		if len(nb) == 1 {
			g.pop(last)
			if g.has(chain[0]) {
				continue
			}
			return chain
		}

		next := nextNeighbour(nb, chain[len(chain)-2])
		chain = append(chain, next)
		g.pop(last)

		if chain[0] == next {
			if g.has(next) {
				g.pop(next)
			}
			return chain
		}
	}
}

// nextNeighbour picks the neighbour that does not lead back to prev. The first
// two neighbours are checked in order; beyond that the first neighbour wins.
func nextNeighbour(nb []int, prev int) int {
	switch {
	case nb[0] == prev:
		return nb[1]
	case nb[1] == prev:
		return nb[0]
	}
	for _, n := range nb {
		if n != prev {
			return n
		}
	}
	return nb[0]
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
