// Package learners splits a reduced view into the species that learn the
// move directly and the ones that can only inherit it.
package learners

import (
	"errors"
	"slices"

	"github.com/samber/lo"

	"github.com/eggmove/eggmove/breeding"
	"github.com/eggmove/eggmove/reducer"
)

var ErrUnknownPokemon = errors.New("unknown pokemon")

type Partition struct {
	Target  string
	Seed    []string
	NonSeed []string
	// TargetIsDirect means the target learns the move without breeding,
	// so the answer is the zero-step chain [target]. It holds even when
	// none of its methods can be passed on.
	TargetIsDirect bool
	// TargetCanReceive is false when the target has no learn record at
	// all for the move in the version group.
	TargetCanReceive bool
	TargetBreedable  bool
}

// Seeds returns the sorted species with at least one direct learn method.
func Seeds(view *reducer.View, policy breeding.Policy) []string {
	seeds := lo.Filter(lo.Keys(view.Methods), func(name string, _ int) bool {
		return lo.SomeBy(view.Methods[name], policy.IsDirect)
	})
	slices.Sort(seeds)
	return seeds
}

func Classify(view *reducer.View, policy breeding.Policy) (*Partition, error) {
	target := view.Query.Pokemon
	sp, ok := view.Species[target]
	if !ok {
		return nil, &reducer.QueryError{Kind: ErrUnknownPokemon, Value: target}
	}
	seeds := Seeds(view, policy)
	p := &Partition{
		Target:           target,
		Seed:             seeds,
		NonSeed:          lo.Without(view.Names(), seeds...),
		TargetCanReceive: policy.CanReceive(view.Methods[target]),
		TargetBreedable:  policy.Breedable(sp),
	}
	p.TargetIsDirect = lo.SomeBy(view.Methods[target], func(m string) bool {
		return !policy.IsInherited(m)
	})
	return p, nil
}
