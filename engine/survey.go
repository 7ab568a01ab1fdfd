package engine

import (
	"cmp"
	"context"
	"io"
	"slices"

	"github.com/eggmove/eggmove/reducer"
	"github.com/eggmove/eggmove/solver"
	"github.com/eggmove/eggmove/stats"
)

type SurveyEntry struct {
	Species  string `json:"species" yaml:"species"`
	Distance int    `json:"distance" yaml:"distance"`
}

// SurveyReport gives the breeding distance of every species that can get
// a move in a version group.
type SurveyReport struct {
	Move         string        `json:"move" yaml:"move"`
	VersionGroup string        `json:"version_group" yaml:"version_group"`
	Seeds        []string      `json:"seeds" yaml:"seeds"`
	Entries      []SurveyEntry `json:"entries" yaml:"entries"`
	Unreachable  []string      `json:"unreachable" yaml:"unreachable"`
	// Counts maps a distance to how many species sit at it.
	Counts  map[int]int   `json:"counts" yaml:"counts"`
	Summary stats.Summary `json:"summary" yaml:"summary"`
}

func (e *Engine) Survey(ctx context.Context, move, versionGroup string) (*SurveyReport, error) {
	g, seeds, err := e.Graph(reducer.Query{Move: move, VersionGroup: versionGroup})
	if err != nil {
		return nil, err
	}
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	dist, err := solver.Distances(ctx, g, seeds, e.opts.Solver)
	if err != nil {
		return nil, err
	}
	rep := &SurveyReport{
		Move:         reducer.NormalizeName(move),
		VersionGroup: reducer.NormalizeName(versionGroup),
		Seeds:        seeds,
		Entries:      []SurveyEntry{},
		Unreachable:  []string{},
		Counts:       map[int]int{},
	}
	var values []float64
	for name, d := range dist {
		if d == solver.Unreachable {
			rep.Unreachable = append(rep.Unreachable, name)
			continue
		}
		rep.Entries = append(rep.Entries, SurveyEntry{Species: name, Distance: d})
		rep.Counts[d]++
		values = append(values, float64(d))
	}
	slices.SortFunc(rep.Entries, func(a, b SurveyEntry) int {
		return cmp.Or(cmp.Compare(a.Distance, b.Distance), cmp.Compare(a.Species, b.Species))
	})
	slices.Sort(rep.Unreachable)
	rep.Summary = stats.Summarize(values)
	return rep, nil
}

// WriteHistogram draws the distance distribution, one bucket per distance.
func (r *SurveyReport) WriteHistogram(w io.Writer, width int) error {
	values := make([]float64, len(r.Entries))
	for i, e := range r.Entries {
		values[i] = float64(e.Distance)
	}
	bins := 1
	if n := len(r.Entries); n > 0 {
		bins = r.Entries[n-1].Distance + 1
	}
	return stats.FprintHistogram(w, values, bins, width)
}
