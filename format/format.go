// Package format renders solver results for people and programs.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/eggmove/eggmove/reducer"
	"github.com/eggmove/eggmove/solver"
)

type Format int

const (
	Text Format = iota
	JSON
	YAML
)

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	}
	return "text"
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return Text, fmt.Errorf("unknown output format %q", s)
}

const (
	StatusOK         = "ok"
	StatusInfeasible = "infeasible"
)

type Chain struct {
	Steps   int      `json:"steps" yaml:"steps"`
	Species []string `json:"species" yaml:"species"`
}

// Document is the serialized shape of one answered query.
type Document struct {
	Target       string  `json:"target" yaml:"target"`
	Move         string  `json:"move" yaml:"move"`
	VersionGroup string  `json:"version_group" yaml:"version_group"`
	Status       string  `json:"status" yaml:"status"`
	Feasible     bool    `json:"feasible" yaml:"feasible"`
	Reason       string  `json:"reason,omitempty" yaml:"reason,omitempty"`
	Steps        *int    `json:"steps,omitempty" yaml:"steps,omitempty"`
	TotalChains  uint64  `json:"total_chains" yaml:"total_chains"`
	Capped       bool    `json:"capped" yaml:"capped"`
	TimedOut     bool    `json:"timed_out" yaml:"timed_out"`
	Chains       []Chain `json:"chains" yaml:"chains"`
}

// NewDocument builds the document for res. A nil res, or an infeasible
// one, produces an infeasible document carrying reason.
func NewDocument(q reducer.Query, res *solver.Result, reason string) *Document {
	doc := &Document{
		Target:       q.Pokemon,
		Move:         q.Move,
		VersionGroup: q.VersionGroup,
		Status:       StatusInfeasible,
		Chains:       []Chain{},
	}
	if res == nil || res.Infeasible {
		doc.Reason = reason
		return doc
	}
	doc.Status = StatusOK
	doc.Feasible = true
	steps := res.Distance
	doc.Steps = &steps
	doc.TotalChains = res.TotalChains
	doc.Capped = res.Capped
	doc.TimedOut = res.TimedOut

	chains := slices.Clone(res.Chains)
	slices.SortFunc(chains, slices.Compare[[]string])
	for _, c := range chains {
		doc.Chains = append(doc.Chains, Chain{Steps: len(c) - 1, Species: slices.Clone(c)})
	}
	return doc
}

type Options struct {
	// Pretty title-cases names in text output.
	Pretty bool
}

func Render(w io.Writer, doc *Document, f Format, opts Options) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	_, err := io.WriteString(w, RenderText(doc, opts))
	return err
}

// RenderText is the plain text rendering of doc.
func RenderText(doc *Document, opts Options) string {
	name := func(s string) string { return s }
	if opts.Pretty {
		title := cases.Title(language.English)
		name = func(s string) string { return title.String(s) }
	}
	var b strings.Builder
	if !doc.Feasible {
		fmt.Fprintf(&b, "%s cannot get %s in %s", name(doc.Target), name(doc.Move), doc.VersionGroup)
		if doc.Reason != "" {
			fmt.Fprintf(&b, " (%s)", doc.Reason)
		}
		b.WriteString("\n")
		return b.String()
	}
	steps := *doc.Steps
	fmt.Fprintf(&b, "%s gets %s in %s in %d %s", name(doc.Target), name(doc.Move), doc.VersionGroup,
		steps, plural(steps, "step", "steps"))
	switch {
	case doc.TimedOut:
		fmt.Fprintf(&b, ", showing %d of %d chains (timed out)", len(doc.Chains), doc.TotalChains)
	case doc.Capped:
		fmt.Fprintf(&b, ", showing %d of %d chains", len(doc.Chains), doc.TotalChains)
	default:
		fmt.Fprintf(&b, ", %d %s", len(doc.Chains), plural(len(doc.Chains), "chain", "chains"))
	}
	b.WriteString("\n")
	for i, c := range doc.Chains {
		names := make([]string, len(c.Species))
		for k, s := range c.Species {
			names[k] = name(s)
		}
		fmt.Fprintf(&b, "%4d. %s\n", i+1, strings.Join(names, " -> "))
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
