package engine

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/matryer/is"

	"github.com/eggmove/eggmove/breeding"
	"github.com/eggmove/eggmove/config"
	"github.com/eggmove/eggmove/learners"
	"github.com/eggmove/eggmove/reducer"
	"github.com/eggmove/eggmove/testhelpers"
)

func sampleEngine() *Engine {
	return New(testhelpers.Sample(), breeding.DefaultRuleset(), Options{})
}

func TestSolveEndToEnd(t *testing.T) {
	is := is.New(t)
	e := sampleEngine()
	out, err := e.Solve(context.Background(), reducer.Query{Pokemon: "Nosepass", Move: "Endure", VersionGroup: "X Y"})
	is.NoErr(err)
	is.True(out.Feasible())
	is.Equal(out.Query, reducer.Query{Pokemon: "nosepass", Move: "endure", VersionGroup: "x-y"})
	is.Equal(out.Result.Chains, [][]string{{"aron", "nosepass"}, {"geodude", "nosepass"}})

	doc := out.Document()
	is.Equal(doc.Status, "ok")
	is.Equal(*doc.Steps, 1)
}

func TestSolveReasons(t *testing.T) {
	is := is.New(t)
	e := sampleEngine()
	ctx := context.Background()
	for _, tc := range []struct {
		q      reducer.Query
		reason string
	}{
		{reducer.Query{Pokemon: "pichu", Move: "endure", VersionGroup: "x-y"}, ReasonNoEggGroups},
		{reducer.Query{Pokemon: "ditto", Move: "endure", VersionGroup: "x-y"}, ReasonCannotLearn},
		{reducer.Query{Pokemon: "nosepass", Move: "endure", VersionGroup: "sun-moon"}, ReasonCannotLearn},
		{reducer.Query{Pokemon: "miltank", Move: "tackle", VersionGroup: "x-y"}, ReasonCannotLearn},
	} {
		out, err := e.Solve(ctx, tc.q)
		is.NoErr(err)
		is.True(!out.Feasible())
		is.Equal(out.Reason, tc.reason)
		is.Equal(out.Document().Reason, tc.reason)
	}

	// roggenrola is breedable but a field-only seed set cannot reach it.
	f := New(testhelpers.NewBuilder().
		Species("tauros", 0, "field").
		Species("roggenrola", 4, "mineral").
		Learns("tauros", "endure", "machine", "x-y").
		Learns("roggenrola", "endure", "egg", "x-y").
		Build(), nil, Options{})
	out, err := f.Solve(ctx, reducer.Query{Pokemon: "roggenrola", Move: "endure", VersionGroup: "x-y"})
	is.NoErr(err)
	is.Equal(out.Reason, ReasonUnreachable)
}

func TestSolveDirectLearner(t *testing.T) {
	is := is.New(t)
	out, err := sampleEngine().Solve(context.Background(), reducer.Query{Pokemon: "tauros", Move: "endure", VersionGroup: "x-y"})
	is.NoErr(err)
	is.Equal(out.Result.Distance, 0)
	is.Equal(out.Result.Chains, [][]string{{"tauros"}})
}

func TestSolveNonPassableTarget(t *testing.T) {
	is := is.New(t)
	snap := testhelpers.NewBuilder().
		Species("a", 0, "field").
		Species("t", 4, "field").
		Learns("a", "x", "level-up", "v1").
		Learns("t", "x", "tutor", "v1").
		Build()
	rs := breeding.NewRuleset(nil, breeding.DefaultInheritedMethods, []string{"tutor"}, nil)
	out, err := New(snap, rs, Options{}).Solve(context.Background(), reducer.Query{Pokemon: "t", Move: "x", VersionGroup: "v1"})
	is.NoErr(err)
	is.True(out.Feasible())
	is.Equal(out.Result.Distance, 0)
	is.Equal(out.Result.Chains, [][]string{{"t"}})
}

func TestSolveUnbreedableDirectLearner(t *testing.T) {
	is := is.New(t)
	snap := testhelpers.NewBuilder().
		Species("pichu", 4, "no-eggs").
		Learns("pichu", "endure", "level-up", "x-y").
		Build()
	out, err := New(snap, nil, Options{}).Solve(context.Background(), reducer.Query{Pokemon: "pichu", Move: "endure", VersionGroup: "x-y"})
	is.NoErr(err)
	is.True(out.Feasible())
	is.Equal(out.Result.Chains, [][]string{{"pichu"}})
	is.Equal(out.Reason, "")
}

type eggOnly struct {
	*breeding.Ruleset
}

func (eggOnly) CanReceive(methods []string) bool {
	return slices.Contains(methods, "egg")
}

func TestSolveSkipsNonReceivers(t *testing.T) {
	is := is.New(t)
	snap := testhelpers.NewBuilder().
		Species("a", 0, "field").
		Species("b", 4, "field").
		Species("c", 0, "field").
		Learns("a", "x", "level-up", "v1").
		Learns("b", "x", "form-change", "v1").
		Learns("c", "x", "egg", "v1").
		Build()
	rs := breeding.NewRuleset(nil, []string{"egg"}, []string{"form-change"}, nil)
	q := reducer.Query{Pokemon: "c", Move: "x", VersionGroup: "v1"}

	out, err := New(snap, rs, Options{}).Solve(context.Background(), q)
	is.NoErr(err)
	is.Equal(out.Result.Chains, [][]string{{"a", "b", "c"}})

	out, err = New(snap, eggOnly{rs}, Options{}).Solve(context.Background(), q)
	is.NoErr(err)
	is.True(!out.Feasible())
	is.Equal(out.Reason, ReasonUnreachable)
}

func TestSolveErrors(t *testing.T) {
	is := is.New(t)
	e := sampleEngine()
	ctx := context.Background()
	_, err := e.Solve(ctx, reducer.Query{Pokemon: "missingno", Move: "endure", VersionGroup: "x-y"})
	is.True(errors.Is(err, learners.ErrUnknownPokemon))
	_, err = e.Solve(ctx, reducer.Query{Pokemon: "nosepass", Move: "fly-dance", VersionGroup: "x-y"})
	is.True(errors.Is(err, reducer.ErrUnknownMove))
	_, err = e.Solve(ctx, reducer.Query{Pokemon: "nosepass", Move: "endure", VersionGroup: "zz"})
	is.True(errors.Is(err, reducer.ErrUnknownVersionGroup))
}

func TestSolveIdempotent(t *testing.T) {
	is := is.New(t)
	e := New(testhelpers.Field(), nil, Options{})
	q := reducer.Query{Pokemon: "c", Move: "x", VersionGroup: "v1"}
	a, err := e.Solve(context.Background(), q)
	is.NoErr(err)
	b, err := e.Solve(context.Background(), q)
	is.NoErr(err)
	is.Equal(a.Document(), b.Document())
}

func TestSolveBatch(t *testing.T) {
	is := is.New(t)
	e := sampleEngine().WithOptions(Options{})
	qs := []reducer.Query{
		{Pokemon: "nosepass", Move: "endure", VersionGroup: "x-y"},
		{Pokemon: "missingno", Move: "endure", VersionGroup: "x-y"},
		{Pokemon: "miltank", Move: "endure", VersionGroup: "x-y"},
		{Pokemon: "pichu", Move: "endure", VersionGroup: "x-y"},
	}
	items := e.SolveBatch(context.Background(), qs)
	is.Equal(len(items), 4)
	is.Equal(items[0].Outcome.Result.Distance, 1)
	is.True(errors.Is(items[1].Err, learners.ErrUnknownPokemon))
	is.Equal(items[2].Outcome.Result.Chains, [][]string{{"tauros", "miltank"}})
	is.Equal(items[3].Outcome.Reason, ReasonNoEggGroups)
	for i, it := range items {
		is.Equal(it.Query.Pokemon, qs[i].Pokemon)
	}
}

func TestSurvey(t *testing.T) {
	is := is.New(t)
	rep, err := sampleEngine().Survey(context.Background(), "endure", "x-y")
	is.NoErr(err)
	is.Equal(rep.Seeds, []string{"aron", "geodude", "magnemite", "tauros"})
	is.Equal(rep.Entries, []SurveyEntry{
		{"aron", 0}, {"geodude", 0}, {"magnemite", 0}, {"tauros", 0},
		{"miltank", 1}, {"nosepass", 1}, {"roggenrola", 1}, {"snorlax", 1},
	})
	is.Equal(rep.Unreachable, []string{"pichu"})
	is.Equal(rep.Counts, map[int]int{0: 4, 1: 4})
	is.Equal(rep.Summary.Count, 8)

	var buf bytes.Buffer
	is.NoErr(rep.WriteHistogram(&buf, 20))
	is.True(buf.Len() > 0)
}

func TestLearners(t *testing.T) {
	is := is.New(t)
	rep, err := sampleEngine().Learners("endure", "x-y")
	is.NoErr(err)
	is.Equal(rep.Direct, []string{"aron", "geodude", "magnemite", "tauros"})
	is.Equal(rep.Inherited, []string{"miltank", "nosepass", "pichu", "roggenrola", "snorlax"})
	is.Equal(rep.Methods["aron"], []string{"level-up", "machine"})
}

func TestGraph(t *testing.T) {
	is := is.New(t)
	g, seeds, err := sampleEngine().Graph(reducer.Query{Move: "endure", VersionGroup: "x-y"})
	is.NoErr(err)
	is.Equal(g.Len(), 9)
	is.Equal(len(seeds), 4)
}

func TestFromConfig(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigMaxChains, 3)
	cfg.Set(config.ConfigUniversalBreeders, []string{"ditto", "mew"})
	opts := OptionsFromConfig(cfg)
	is.Equal(opts.Solver.MaxChains, 3)
	is.Equal(opts.Solver.ParallelThreshold, 256)

	policy, err := PolicyFromConfig(cfg)
	is.NoErr(err)
	is.Equal(policy.UniversalBreeders, []string{"ditto", "mew"})
	is.Equal(policy.InheritedMethods, []string{"egg", "light-ball-egg"})
}

func TestErrorKind(t *testing.T) {
	is := is.New(t)
	e := sampleEngine()
	_, err := e.Solve(context.Background(), reducer.Query{Pokemon: "missingno", Move: "endure", VersionGroup: "x-y"})
	is.Equal(ErrorKind(err), KindUnknownPokemon)
	is.True(IsUserError(err))
	is.Equal(ErrorKind(&breeding.ConsistencyError{Species: "x"}), KindConsistency)
	is.Equal(ErrorKind(errors.New("boom")), KindInternal)
	is.True(!IsUserError(errors.New("boom")))
}
