package compat_test

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/eggmove/eggmove/breeding"
	"github.com/eggmove/eggmove/compat"
	"github.com/eggmove/eggmove/reducer"
	"github.com/eggmove/eggmove/testhelpers"
)

func sampleGraph(t *testing.T, target string) *compat.Graph {
	view, err := reducer.Reduce(testhelpers.Sample(),
		reducer.Query{Pokemon: target, Move: "endure", VersionGroup: "x-y"})
	if err != nil {
		t.Fatal(err)
	}
	g, err := compat.Build(view, breeding.DefaultRuleset())
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestBuildEdges(t *testing.T) {
	is := is.New(t)
	g := sampleGraph(t, "nosepass")

	is.True(g.HasEdge("aron", "nosepass"))
	is.True(g.HasEdge("geodude", "roggenrola"))
	is.True(g.HasEdge("aron", "snorlax"))
	is.True(g.HasEdge("tauros", "miltank"))
	// genderless magnemite only pairs through a universal breeder.
	is.Equal(g.Degree(mustIndex(t, g, "magnemite")), 0)
	// pichu is in an undiscovered group.
	is.Equal(g.Degree(mustIndex(t, g, "pichu")), 0)
	is.True(!g.HasEdge("aron", "tauros"))
	is.True(!g.HasEdge("aron", "aron"))
	is.True(!g.HasEdge("aron", "missingno"))
}

func TestBuildInvariants(t *testing.T) {
	is := is.New(t)
	g := sampleGraph(t, "nosepass")
	count := 0
	for i := 0; i < g.Len(); i++ {
		ns := g.Neighbors(i)
		for k, j := range ns {
			is.True(j != i)
			if k > 0 {
				is.True(ns[k-1] < j)
			}
			is.True(g.HasEdge(g.Name(j), g.Name(i)))
			count++
		}
	}
	is.Equal(count, 2*g.EdgeCount())
	is.Equal(len(g.Edges()), g.EdgeCount())
	for i := 1; i < g.Len(); i++ {
		is.True(g.Name(i-1) < g.Name(i))
	}
}

func TestBuildUniversalBreeder(t *testing.T) {
	is := is.New(t)
	snap := testhelpers.NewBuilder().
		Species("ditto", -1, "ditto").
		Species("magnemite", -1, "mineral").
		Species("pichu", 4, "no-eggs").
		Species("tauros", 0, "field").
		Learns("ditto", "transform", "level-up", "x-y").
		Learns("magnemite", "transform", "egg", "x-y").
		Learns("pichu", "transform", "egg", "x-y").
		Learns("tauros", "transform", "egg", "x-y").
		Build()
	view, err := reducer.Reduce(snap, reducer.Query{Pokemon: "magnemite", Move: "transform", VersionGroup: "x-y"})
	is.NoErr(err)
	g, err := compat.Build(view, breeding.DefaultRuleset())
	is.NoErr(err)
	is.Equal(g.Edges(), []compat.Edge{{A: "ditto", B: "magnemite"}, {A: "ditto", B: "tauros"}})
}

// eggOnly only lets species that learn the move as an egg move receive it.
type eggOnly struct {
	*breeding.Ruleset
}

func (eggOnly) CanReceive(methods []string) bool {
	return slices.Contains(methods, "egg")
}

func TestBuildDropsNonReceivers(t *testing.T) {
	is := is.New(t)
	snap := testhelpers.NewBuilder().
		Species("a", 0, "field").
		Species("b", 4, "field").
		Species("c", 0, "field").
		Learns("a", "x", "level-up", "v1").
		Learns("b", "x", "form-change", "v1").
		Learns("c", "x", "egg", "v1").
		Build()
	view, err := reducer.Reduce(snap, reducer.Query{Pokemon: "c", Move: "x", VersionGroup: "v1"})
	is.NoErr(err)
	rs := breeding.NewRuleset(nil, []string{"egg"}, []string{"form-change"}, nil)

	g, err := compat.Build(view, rs)
	is.NoErr(err)
	is.True(g.HasEdge("a", "b"))
	is.True(g.HasEdge("b", "c"))

	g, err = compat.Build(view, eggOnly{rs})
	is.NoErr(err)
	_, ok := g.Index("b")
	is.True(!ok)
	is.Equal(g.Len(), 2)
	is.Equal(g.EdgeCount(), 0)
}

func TestWriteDOT(t *testing.T) {
	is := is.New(t)
	g := sampleGraph(t, "nosepass")
	var buf bytes.Buffer
	is.NoErr(compat.WriteDOT(&buf, g, []string{"aron", "geodude"}, "nosepass"))
	out := buf.String()
	is.True(strings.Contains(out, "graph breeding {"))
	is.True(strings.Contains(out, "doublecircle"))
	is.True(strings.Contains(out, "box"))
	is.True(strings.Contains(out, "aron"))
	is.True(strings.Contains(out, "roggenrola"))
}

func mustIndex(t *testing.T, g *compat.Graph, name string) int {
	i, ok := g.Index(name)
	if !ok {
		t.Fatalf("no node %q", name)
	}
	return i
}
