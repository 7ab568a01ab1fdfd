package format_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/matryer/is"
	"gopkg.in/yaml.v3"

	"github.com/eggmove/eggmove/format"
	"github.com/eggmove/eggmove/reducer"
	"github.com/eggmove/eggmove/solver"
)

var query = reducer.Query{Pokemon: "mr-mime", Move: "endure", VersionGroup: "x-y"}

func result() *solver.Result {
	return &solver.Result{
		Target:      "mr-mime",
		Distance:    1,
		Chains:      [][]string{{"jynx", "mr-mime"}, {"abra", "mr-mime"}},
		TotalChains: 2,
	}
}

func TestNewDocumentSortsChains(t *testing.T) {
	is := is.New(t)
	doc := format.NewDocument(query, result(), "")
	is.Equal(doc.Status, format.StatusOK)
	is.True(doc.Feasible)
	is.Equal(*doc.Steps, 1)
	is.Equal(doc.Chains, []format.Chain{
		{Steps: 1, Species: []string{"abra", "mr-mime"}},
		{Steps: 1, Species: []string{"jynx", "mr-mime"}},
	})
}

func TestRenderText(t *testing.T) {
	is := is.New(t)
	var buf bytes.Buffer
	is.NoErr(format.Render(&buf, format.NewDocument(query, result(), ""), format.Text, format.Options{}))
	is.Equal(buf.String(), "mr-mime gets endure in x-y in 1 step, 2 chains\n"+
		"   1. abra -> mr-mime\n"+
		"   2. jynx -> mr-mime\n")

	buf.Reset()
	is.NoErr(format.Render(&buf, format.NewDocument(query, result(), ""), format.Text, format.Options{Pretty: true}))
	is.Equal(buf.String(), "Mr-Mime gets Endure in x-y in 1 step, 2 chains\n"+
		"   1. Abra -> Mr-Mime\n"+
		"   2. Jynx -> Mr-Mime\n")
}

func TestRenderCapped(t *testing.T) {
	is := is.New(t)
	res := result()
	res.Chains = res.Chains[:1]
	res.Capped = true
	out := format.RenderText(format.NewDocument(query, res, ""), format.Options{})
	is.Equal(out, "mr-mime gets endure in x-y in 1 step, showing 1 of 2 chains\n   1. jynx -> mr-mime\n")
}

func TestRenderInfeasible(t *testing.T) {
	is := is.New(t)
	doc := format.NewDocument(query, &solver.Result{Target: "mr-mime", Distance: solver.Unreachable, Infeasible: true}, "unreachable")
	is.Equal(doc.Status, format.StatusInfeasible)
	is.True(doc.Steps == nil)
	is.Equal(format.RenderText(doc, format.Options{}), "mr-mime cannot get endure in x-y (unreachable)\n")

	var buf bytes.Buffer
	is.NoErr(format.Render(&buf, doc, format.JSON, format.Options{}))
	var m map[string]any
	is.NoErr(json.Unmarshal(buf.Bytes(), &m))
	is.Equal(m["status"], "infeasible")
	is.Equal(m["reason"], "unreachable")
	_, hasSteps := m["steps"]
	is.True(!hasSteps)
	is.Equal(m["chains"], []any{})

	nilDoc := format.NewDocument(query, nil, "cannot-learn")
	is.Equal(nilDoc.Reason, "cannot-learn")
}

func TestRenderYAML(t *testing.T) {
	is := is.New(t)
	var buf bytes.Buffer
	is.NoErr(format.Render(&buf, format.NewDocument(query, result(), ""), format.YAML, format.Options{}))
	var doc format.Document
	is.NoErr(yaml.Unmarshal(buf.Bytes(), &doc))
	is.Equal(doc.VersionGroup, "x-y")
	is.Equal(*doc.Steps, 1)
	is.Equal(doc.Chains[0].Species, []string{"abra", "mr-mime"})
}

func TestParseFormat(t *testing.T) {
	is := is.New(t)
	for in, want := range map[string]format.Format{"": format.Text, "TEXT": format.Text, "json": format.JSON, "yml": format.YAML} {
		f, err := format.ParseFormat(in)
		is.NoErr(err)
		is.Equal(f, want)
	}
	_, err := format.ParseFormat("xml")
	is.True(err != nil)
	is.Equal(format.YAML.String(), "yaml")
}
