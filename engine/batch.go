package engine

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/eggmove/eggmove/reducer"
)

type BatchItem struct {
	Query   reducer.Query
	Outcome *Outcome
	Err     error
}

// SolveBatch answers qs concurrently, at most Solver.Threads at a time.
// Items come back in input order and one failing query does not stop the
// others.
func (e *Engine) SolveBatch(ctx context.Context, qs []reducer.Query) []BatchItem {
	items := make([]BatchItem, len(qs))
	threads := e.opts.Solver.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	g := errgroup.Group{}
	g.SetLimit(threads)
	for i, q := range qs {
		g.Go(func() error {
			out, err := e.Solve(ctx, q)
			items[i] = BatchItem{Query: q.Normalize(), Outcome: out, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return items
}
