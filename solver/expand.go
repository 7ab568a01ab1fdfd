package solver

import (
	"context"
	"slices"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type search struct {
	g     Graph
	opts  Options
	dist  []int
	preds [][]int

	layers  int
	visited int
}

type arc struct{ from, to int }

func newSearch(g Graph, opts Options) *search {
	s := &search{
		g:     g,
		opts:  opts,
		dist:  make([]int, g.Len()),
		preds: make([][]int, g.Len()),
	}
	for i := range s.dist {
		s.dist[i] = Unreachable
	}
	return s
}

// run labels distances layer by layer from the sorted seeds. With stop >= 0
// it returns as soon as the layer containing stop is complete.
func (s *search) run(ctx context.Context, seeds []int, stop int) error {
	for _, i := range seeds {
		s.dist[i] = 0
	}
	s.visited = len(seeds)
	frontier := seeds
	for d := 0; len(frontier) > 0; d++ {
		if stop >= 0 && s.dist[stop] != Unreachable {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		var next []int
		if s.opts.Threads > 1 && len(frontier) >= s.opts.ParallelThreshold {
			next = s.expandParallel(frontier, d)
		} else {
			next = s.expand(frontier, d)
		}
		log.Debug().Int("layer", d).Int("frontier", len(frontier)).Int("next", len(next)).Msg("layer-expanded")
		s.visited += len(next)
		s.layers++
		frontier = next
	}
	return nil
}

// expand visits the frontier in order, so each predecessor set comes out
// sorted.
func (s *search) expand(frontier []int, d int) []int {
	var next []int
	for _, u := range frontier {
		for _, v := range s.g.Neighbors(u) {
			switch s.dist[v] {
			case Unreachable:
				s.dist[v] = d + 1
				next = append(next, v)
				s.preds[v] = append(s.preds[v], u)
			case d + 1:
				s.preds[v] = append(s.preds[v], u)
			}
		}
	}
	slices.Sort(next)
	return next
}

// expandParallel splits the frontier into contiguous chunks whose workers
// only read dist. The arcs are merged back in chunk order, which gives the
// same labels and predecessor order as expand.
func (s *search) expandParallel(frontier []int, d int) []int {
	workers := min(s.opts.Threads, len(frontier))
	chunk := (len(frontier) + workers - 1) / workers
	found := make([][]arc, workers)

	g := errgroup.Group{}
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(frontier))
		if lo >= hi {
			break
		}
		g.Go(func() error {
			var arcs []arc
			for _, u := range frontier[lo:hi] {
				for _, v := range s.g.Neighbors(u) {
					if s.dist[v] == Unreachable {
						arcs = append(arcs, arc{u, v})
					}
				}
			}
			found[w] = arcs
			return nil
		})
	}
	_ = g.Wait()

	var next []int
	for _, arcs := range found {
		for _, a := range arcs {
			if s.dist[a.to] == Unreachable {
				s.dist[a.to] = d + 1
				next = append(next, a.to)
			}
			s.preds[a.to] = append(s.preds[a.to], a.from)
		}
	}
	slices.Sort(next)
	return next
}
