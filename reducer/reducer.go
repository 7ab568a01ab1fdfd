// Package reducer narrows a snapshot down to the records one query needs:
// the learn records for the requested move and version group, and the
// breeding facts of every species they mention.
package reducer

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/eggmove/eggmove/breeding"
	"github.com/eggmove/eggmove/snapshot"
)

var (
	ErrUnknownMove         = errors.New("unknown move")
	ErrUnknownVersionGroup = errors.New("unknown version group")
)

// QueryError reports user input that names something the snapshot does
// not know about. It unwraps to its Kind.
type QueryError struct {
	Kind  error
	Value string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%v: %q", e.Kind, e.Value)
}

func (e *QueryError) Unwrap() error {
	return e.Kind
}

// View is the reduced, read-only data for one query.
type View struct {
	Query Query
	// Species holds every species with a matching learn record, plus the
	// target if the snapshot knows it.
	Species map[string]breeding.Species
	// Methods maps a species to its sorted learn methods for the move.
	Methods map[string][]string
}

// Names returns the view's species in lexicographic order.
func (v *View) Names() []string {
	names := lo.Keys(v.Species)
	slices.Sort(names)
	return names
}

func (v *View) HasTarget() bool {
	_, ok := v.Species[v.Query.Pokemon]
	return ok
}

// Reduce builds the view for q. q is used as given; callers normalize it
// first if the names come from a user. A move or version group that appears
// in no learn record at all is a *QueryError, while a known move with no
// records in a known version group yields an empty (but valid) view.
func Reduce(snap *snapshot.Snapshot, q Query) (*View, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if !snap.HasMove(q.Move) {
		return nil, &QueryError{Kind: ErrUnknownMove, Value: q.Move}
	}
	if !snap.HasVersionGroup(q.VersionGroup) {
		return nil, &QueryError{Kind: ErrUnknownVersionGroup, Value: q.VersionGroup}
	}

	view := &View{
		Query:   q,
		Species: map[string]breeding.Species{},
		Methods: map[string][]string{},
	}
	for _, rec := range snap.Records(q.Move, q.VersionGroup) {
		// Validate guarantees every record has a species row.
		sp, _ := snap.Species(rec.Pokemon)
		view.Species[rec.Pokemon] = sp
		view.Methods[rec.Pokemon] = append(view.Methods[rec.Pokemon], rec.LearnMethod)
	}
	for name, methods := range view.Methods {
		methods = lo.Uniq(methods)
		slices.Sort(methods)
		view.Methods[name] = methods
	}
	if sp, ok := snap.Species(q.Pokemon); ok {
		view.Species[q.Pokemon] = sp
	}

	log.Debug().Str("query", q.String()).Int("species", len(view.Species)).
		Int("learners", len(view.Methods)).Msg("query-reduced")
	return view, nil
}
