// Package engine runs queries end to end against one loaded snapshot:
// reduce, build the compatibility graph, classify learners, search.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eggmove/eggmove/breeding"
	"github.com/eggmove/eggmove/compat"
	"github.com/eggmove/eggmove/config"
	"github.com/eggmove/eggmove/format"
	"github.com/eggmove/eggmove/learners"
	"github.com/eggmove/eggmove/reducer"
	"github.com/eggmove/eggmove/snapshot"
	"github.com/eggmove/eggmove/solver"
)

// Reasons attached to infeasible outcomes.
const (
	ReasonUnreachable = "unreachable"
	ReasonNoEggGroups = "no-egg-groups"
	ReasonCannotLearn = "cannot-learn"
)

type Options struct {
	Solver solver.Options
	// Timeout bounds each query; zero means no limit.
	Timeout time.Duration
}

// Engine is safe for concurrent use. The snapshot and policy are never
// modified.
type Engine struct {
	snap   *snapshot.Snapshot
	policy breeding.Policy
	opts   Options
}

func New(snap *snapshot.Snapshot, policy breeding.Policy, opts Options) *Engine {
	if policy == nil {
		policy = breeding.DefaultRuleset()
	}
	return &Engine{snap: snap, policy: policy, opts: opts}
}

func (e *Engine) Snapshot() *snapshot.Snapshot { return e.snap }
func (e *Engine) Policy() breeding.Policy      { return e.policy }
func (e *Engine) Options() Options             { return e.opts }

// WithOptions returns an engine sharing e's snapshot and policy.
func (e *Engine) WithOptions(opts Options) *Engine {
	return &Engine{snap: e.snap, policy: e.policy, opts: opts}
}

func (e *Engine) WithPolicy(policy breeding.Policy) *Engine {
	return &Engine{snap: e.snap, policy: policy, opts: e.opts}
}

// Outcome is a successfully answered query. Infeasible results are
// outcomes too; Reason says why.
type Outcome struct {
	Query  reducer.Query
	Result *solver.Result
	Reason string
}

func (o *Outcome) Feasible() bool {
	return o.Result != nil && !o.Result.Infeasible
}

func (o *Outcome) Document() *format.Document {
	return format.NewDocument(o.Query, o.Result, o.Reason)
}

func infeasible(q reducer.Query, reason string) *Outcome {
	return &Outcome{
		Query:  q,
		Result: &solver.Result{Target: q.Pokemon, Distance: solver.Unreachable, Infeasible: true},
		Reason: reason,
	}
}

func direct(q reducer.Query) *Outcome {
	return &Outcome{
		Query: q,
		Result: &solver.Result{
			Target:      q.Pokemon,
			Distance:    0,
			Chains:      [][]string{{q.Pokemon}},
			TotalChains: 1,
			Stats:       solver.Stats{Visited: 1},
		},
	}
}

// Solve normalizes q and answers it. User input errors are
// *reducer.QueryError values; a malformed snapshot gives a
// *breeding.ConsistencyError.
func (e *Engine) Solve(ctx context.Context, q reducer.Query) (*Outcome, error) {
	q = q.Normalize()
	logger := log.With().Str("query", q.String()).Logger()

	view, err := reducer.Reduce(e.snap, q)
	if err != nil {
		return nil, err
	}
	part, err := learners.Classify(view, e.policy)
	if err != nil {
		return nil, err
	}
	switch {
	case part.TargetIsDirect:
		// A direct learner never needs a graph, even when it cannot breed.
		logger.Debug().Msg("target-learns-directly")
		return direct(q), nil
	case !part.TargetCanReceive:
		logger.Debug().Msg("target-cannot-learn")
		return infeasible(q, ReasonCannotLearn), nil
	case !part.TargetBreedable:
		logger.Debug().Msg("target-cannot-breed")
		return infeasible(q, ReasonNoEggGroups), nil
	}

	g, err := compat.Build(view, e.policy)
	if err != nil {
		return nil, err
	}
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	res, err := solver.Solve(ctx, g, part.Seed, q.Pokemon, e.opts.Solver)
	if err != nil {
		return nil, fmt.Errorf("solving %s: %w", q, err)
	}
	out := &Outcome{Query: q, Result: res}
	if res.Infeasible {
		out.Reason = ReasonUnreachable
	}
	logger.Debug().Int("seeds", len(part.Seed)).Int("distance", res.Distance).
		Uint64("total-chains", res.TotalChains).Msg("query-solved")
	return out, nil
}

// Graph builds the compatibility graph for q's move and version group
// along with its direct learners. q.Pokemon may be empty.
func (e *Engine) Graph(q reducer.Query) (*compat.Graph, []string, error) {
	q = q.Normalize()
	view, err := reducer.Reduce(e.snap, q)
	if err != nil {
		return nil, nil, err
	}
	g, err := compat.Build(view, e.policy)
	if err != nil {
		return nil, nil, err
	}
	return g, learners.Seeds(view, e.policy), nil
}

// LearnerReport lists who learns a move directly and who can only
// inherit it.
type LearnerReport struct {
	Move         string              `json:"move" yaml:"move"`
	VersionGroup string              `json:"version_group" yaml:"version_group"`
	Direct       []string            `json:"direct" yaml:"direct"`
	Inherited    []string            `json:"inherited" yaml:"inherited"`
	Methods      map[string][]string `json:"methods" yaml:"methods"`
}

func (e *Engine) Learners(move, versionGroup string) (*LearnerReport, error) {
	q := reducer.Query{Move: move, VersionGroup: versionGroup}.Normalize()
	view, err := reducer.Reduce(e.snap, q)
	if err != nil {
		return nil, err
	}
	direct := learners.Seeds(view, e.policy)
	isDirect := map[string]bool{}
	for _, d := range direct {
		isDirect[d] = true
	}
	rep := &LearnerReport{
		Move:         q.Move,
		VersionGroup: q.VersionGroup,
		Direct:       direct,
		Inherited:    []string{},
		Methods:      view.Methods,
	}
	for _, name := range view.Names() {
		if !isDirect[name] && e.policy.CanReceive(view.Methods[name]) {
			rep.Inherited = append(rep.Inherited, name)
		}
	}
	return rep, nil
}

// PolicyFromConfig returns the ruleset named by policy-file, or one built
// from the individual ruleset keys when no file is set.
func PolicyFromConfig(cfg *config.Config) (*breeding.Ruleset, error) {
	if path := cfg.GetString(config.ConfigPolicyFile); path != "" {
		return breeding.LoadRulesetFile(path)
	}
	return breeding.NewRuleset(
		cfg.GetStringSlice(config.ConfigUniversalBreeders),
		cfg.GetStringSlice(config.ConfigInheritedMethods),
		cfg.GetStringSlice(config.ConfigNonPassableMethods),
		cfg.GetStringSlice(config.ConfigUndiscoveredEggGroups),
	), nil
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Solver: solver.Options{
			MaxChains:         cfg.GetInt(config.ConfigMaxChains),
			Threads:           cfg.GetInt(config.ConfigThreads),
			ParallelThreshold: cfg.GetInt(config.ConfigParallelThreshold),
		},
		Timeout: cfg.GetDuration(config.ConfigSolveTimeout),
	}
}
