// Package solver finds every minimal breeding chain from a set of direct
// learners to a target species.
//
// The search is a multi-source breadth-first search that keeps, for each
// discovered species, the full set of predecessors one layer closer to the
// seeds. Expansion stops after the layer that reaches the target, and the
// chains are read back out of the predecessor sets in lexicographic order.
package solver

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eggmove/eggmove/breeding"
)

// Graph is the read-only view of a compatibility graph the solver needs.
// Neighbors must not contain i itself or duplicates.
type Graph interface {
	Len() int
	Name(i int) string
	Index(name string) (int, bool)
	Neighbors(i int) []int
}

// Unreachable is the distance of a species no seed can reach.
const Unreachable = -1

const DefaultParallelThreshold = 256

type Options struct {
	// MaxChains caps how many chains are enumerated; zero or less means
	// no cap.
	MaxChains int
	// Threads is the number of workers a large layer is fanned out to.
	Threads int
	// ParallelThreshold is the minimum frontier size that is expanded in
	// parallel.
	ParallelThreshold int
}

func (o Options) withDefaults() Options {
	if o.Threads <= 0 {
		o.Threads = runtime.NumCPU()
	}
	if o.ParallelThreshold <= 0 {
		o.ParallelThreshold = DefaultParallelThreshold
	}
	return o
}

type Stats struct {
	Layers  int           `json:"layers" yaml:"layers"`
	Visited int           `json:"visited" yaml:"visited"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

type Result struct {
	Target     string     `json:"target" yaml:"target"`
	Distance   int        `json:"distance" yaml:"distance"`
	Infeasible bool       `json:"infeasible" yaml:"infeasible"`
	Chains     [][]string `json:"chains" yaml:"chains"`
	// TotalChains counts every minimal chain, whether enumerated or not.
	// It saturates at the largest uint64.
	TotalChains uint64 `json:"total_chains" yaml:"total_chains"`
	Capped      bool   `json:"capped" yaml:"capped"`
	TimedOut    bool   `json:"timed_out" yaml:"timed_out"`
	Stats       Stats  `json:"stats" yaml:"stats"`
}

func (r *Result) String() string {
	if r.Infeasible {
		return fmt.Sprintf("%s: infeasible", r.Target)
	}
	return fmt.Sprintf("%s: %d steps, %d/%d chains", r.Target, r.Distance, len(r.Chains), r.TotalChains)
}

func resolve(g Graph, names []string, what string) ([]int, error) {
	idx := make([]int, 0, len(names))
	for _, n := range names {
		i, ok := g.Index(n)
		if !ok {
			return nil, &breeding.ConsistencyError{Species: n, Context: what}
		}
		idx = append(idx, i)
	}
	slices.Sort(idx)
	return slices.Compact(idx), nil
}

// Solve returns the minimal chains from any seed to target. An unreachable
// target is an Infeasible result, not an error. The only errors are a seed
// or target missing from g, and ctx ending before the search finishes.
// If ctx ends during enumeration the chains found so far are returned with
// TimedOut set.
func Solve(ctx context.Context, g Graph, seeds []string, target string, opts Options) (*Result, error) {
	start := time.Now()
	opts = opts.withDefaults()
	seedIdx, err := resolve(g, seeds, "seed is not a graph node")
	if err != nil {
		return nil, err
	}
	t, ok := g.Index(target)
	if !ok {
		return nil, &breeding.ConsistencyError{Species: target, Context: "target is not a graph node"}
	}

	s := newSearch(g, opts)
	if err := s.run(ctx, seedIdx, t); err != nil {
		return nil, err
	}
	res := &Result{
		Target:   target,
		Distance: s.dist[t],
		Stats:    Stats{Layers: s.layers, Visited: s.visited},
	}
	if res.Distance == Unreachable {
		res.Infeasible = true
		res.Stats.Elapsed = time.Since(start)
		log.Debug().Str("target", target).Int("visited", s.visited).Msg("target-unreachable")
		return res, nil
	}

	e := newEnumerator(ctx, s, t, opts.MaxChains)
	res.TotalChains = e.total
	res.Chains = e.enumerate()
	res.TimedOut = e.timedOut
	res.Capped = e.timedOut || uint64(len(res.Chains)) < res.TotalChains
	res.Stats.Elapsed = time.Since(start)

	log.Debug().Str("target", target).Int("distance", res.Distance).
		Uint64("total-chains", res.TotalChains).Int("chains", len(res.Chains)).
		Bool("capped", res.Capped).Dur("elapsed", res.Stats.Elapsed).Msg("solved")
	return res, nil
}

// Distances runs the search to exhaustion and returns the distance of every
// node, Unreachable for the ones no seed reaches.
func Distances(ctx context.Context, g Graph, seeds []string, opts Options) (map[string]int, error) {
	opts = opts.withDefaults()
	seedIdx, err := resolve(g, seeds, "seed is not a graph node")
	if err != nil {
		return nil, err
	}
	s := newSearch(g, opts)
	if err := s.run(ctx, seedIdx, -1); err != nil {
		return nil, err
	}
	out := make(map[string]int, g.Len())
	for i, d := range s.dist {
		out[g.Name(i)] = d
	}
	return out, nil
}
