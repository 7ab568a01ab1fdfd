package solver

import (
	"context"
	"math"
	"slices"
	"strings"
)

// checkEvery is how many walk steps pass between context checks.
const checkEvery = 1024

// enumerator walks the minimal-path DAG, the subgraph of predecessor arcs
// that lie on some shortest path to the target, from the seeds forward.
type enumerator struct {
	ctx    context.Context
	g      Graph
	target int
	limit  int

	succ   [][]int
	starts []int
	total  uint64

	chains   [][]string
	path     []int
	steps    int
	timedOut bool
}

func newEnumerator(ctx context.Context, s *search, target, limit int) *enumerator {
	e := &enumerator{ctx: ctx, g: s.g, target: target, limit: limit}
	n := s.g.Len()

	onPath := make([]bool, n)
	onPath[target] = true
	queue := []int{target}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, p := range s.preds[v] {
			if !onPath[p] {
				onPath[p] = true
				queue = append(queue, p)
			}
		}
	}

	byName := func(a, b int) int { return strings.Compare(s.g.Name(a), s.g.Name(b)) }
	e.succ = make([][]int, n)
	byDist := make([][]int, s.dist[target]+1)
	for v := 0; v < n; v++ {
		if !onPath[v] {
			continue
		}
		byDist[s.dist[v]] = append(byDist[s.dist[v]], v)
		for _, p := range s.preds[v] {
			e.succ[p] = append(e.succ[p], v)
		}
	}
	for v := range e.succ {
		slices.SortFunc(e.succ[v], byName)
	}
	e.starts = slices.Clone(byDist[0])
	slices.SortFunc(e.starts, byName)

	// Count paths to the target from the far layer back to the seeds.
	count := make([]uint64, n)
	count[target] = 1
	for d := len(byDist) - 2; d >= 0; d-- {
		for _, u := range byDist[d] {
			for _, v := range e.succ[u] {
				count[u] = addSat(count[u], count[v])
			}
		}
	}
	for _, u := range e.starts {
		e.total = addSat(e.total, count[u])
	}
	return e
}

func addSat(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func (e *enumerator) enumerate() [][]string {
	for _, u := range e.starts {
		if !e.walk(u) {
			break
		}
	}
	return e.chains
}

// walk extends the current path with u. It returns false once enumeration
// must stop.
func (e *enumerator) walk(u int) bool {
	e.steps++
	if e.steps%checkEvery == 0 && e.ctx.Err() != nil {
		e.timedOut = true
		return false
	}
	e.path = append(e.path, u)
	defer func() { e.path = e.path[:len(e.path)-1] }()

	if u == e.target {
		chain := make([]string, len(e.path))
		for i, v := range e.path {
			chain[i] = e.g.Name(v)
		}
		e.chains = append(e.chains, chain)
		return e.limit <= 0 || len(e.chains) < e.limit
	}
	for _, v := range e.succ[u] {
		if !e.walk(v) {
			return false
		}
	}
	return true
}
