// Package compat builds the breeding compatibility graph for a reduced
// view. Nodes are the view's species in name order; an edge joins two
// species the policy says can be paired.
package compat

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/eggmove/eggmove/breeding"
	"github.com/eggmove/eggmove/reducer"
)

type Graph struct {
	names   []string
	index   map[string]int
	species []breeding.Species
	adj     [][]int
	edges   int
}

// Edge is an undirected edge with A < B.
type Edge struct {
	A, B string
}

type pair struct{ a, b int }

// Build indexes the view's breedable species per egg group and only asks
// the policy about pairs that share a bucket, or that involve a universal
// breeder. Species that are neither direct learners nor able to receive
// the move are left out, so no chain can pass through them.
func Build(view *reducer.View, policy breeding.Policy) (*Graph, error) {
	for name := range view.Methods {
		if _, ok := view.Species[name]; !ok {
			return nil, &breeding.ConsistencyError{Species: name, Context: "learn record without species facts"}
		}
	}
	g := &Graph{
		names: lo.Filter(view.Names(), func(name string, _ int) bool {
			methods := view.Methods[name]
			return lo.SomeBy(methods, policy.IsDirect) || policy.CanReceive(methods)
		}),
		index: map[string]int{},
	}
	g.species = make([]breeding.Species, len(g.names))
	g.adj = make([][]int, len(g.names))
	for i, name := range g.names {
		g.index[name] = i
		g.species[i] = view.Species[name]
	}

	buckets := map[string][]int{}
	var universal, breedable []int
	for i, sp := range g.species {
		if !policy.Breedable(sp) {
			continue
		}
		breedable = append(breedable, i)
		if policy.IsUniversal(sp) {
			universal = append(universal, i)
			continue
		}
		for _, grp := range sp.EggGroups {
			buckets[grp] = append(buckets[grp], i)
		}
	}

	seen := map[pair]bool{}
	try := func(i, j int) {
		if i == j {
			return
		}
		if i > j {
			i, j = j, i
		}
		p := pair{i, j}
		if seen[p] {
			return
		}
		seen[p] = true
		if policy.Compatible(g.species[i], g.species[j]) {
			g.adj[i] = append(g.adj[i], j)
			g.adj[j] = append(g.adj[j], i)
			g.edges++
		}
	}
	for _, members := range buckets {
		for x := range members {
			for y := x + 1; y < len(members); y++ {
				try(members[x], members[y])
			}
		}
	}
	for _, u := range universal {
		for _, b := range breedable {
			try(u, b)
		}
	}
	for i := range g.adj {
		slices.Sort(g.adj[i])
	}

	log.Debug().Int("nodes", len(g.names)).Int("edges", g.edges).
		Int("egg-groups", len(buckets)).Msg("compat-graph-built")
	return g, nil
}

func (g *Graph) Len() int {
	return len(g.names)
}

func (g *Graph) Name(i int) string {
	return g.names[i]
}

func (g *Graph) Index(name string) (int, bool) {
	i, ok := g.index[name]
	return i, ok
}

func (g *Graph) Species(i int) breeding.Species {
	return g.species[i]
}

// Neighbors returns the sorted neighbor indexes of i. The slice is shared;
// callers must not modify it.
func (g *Graph) Neighbors(i int) []int {
	return g.adj[i]
}

func (g *Graph) Degree(i int) int {
	return len(g.adj[i])
}

func (g *Graph) EdgeCount() int {
	return g.edges
}

func (g *Graph) HasEdge(a, b string) bool {
	i, ok := g.index[a]
	if !ok {
		return false
	}
	j, ok := g.index[b]
	if !ok {
		return false
	}
	_, found := slices.BinarySearch(g.adj[i], j)
	return found
}

// Edges lists every edge once, ordered by (A, B).
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges)
	for i, ns := range g.adj {
		for _, j := range ns {
			if j > i {
				out = append(out, Edge{A: g.names[i], B: g.names[j]})
			}
		}
	}
	return out
}

func (g *Graph) String() string {
	return fmt.Sprintf("compat.Graph{nodes: %d, edges: %d}", len(g.names), g.edges)
}
