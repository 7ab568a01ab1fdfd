// Package testhelpers builds small in-memory snapshots for tests.
package testhelpers

import (
	"github.com/eggmove/eggmove/snapshot"
)

type Builder struct {
	snap *snapshot.Snapshot
}

func NewBuilder() *Builder {
	return &Builder{snap: &snapshot.Snapshot{}}
}

// Species adds a species table row plus one egg group row per group.
func (b *Builder) Species(name string, genderRate int, groups ...string) *Builder {
	b.snap.GenderRates = append(b.snap.GenderRates, snapshot.GenderRate{Pokemon: name, GenderRate: genderRate})
	for _, g := range groups {
		b.snap.EggGroups = append(b.snap.EggGroups, snapshot.EggGroup{Pokemon: name, EggGroup: g})
	}
	return b
}

func (b *Builder) Learns(pokemon, move, method, versionGroup string) *Builder {
	b.snap.Moves = append(b.snap.Moves, snapshot.Move{
		Pokemon: pokemon, Move: move, LearnMethod: method, VersionGroup: versionGroup,
	})
	return b
}

// Unvalidated returns the snapshot without building its indexes.
func (b *Builder) Unvalidated() *snapshot.Snapshot {
	return b.snap
}

func (b *Builder) Build() *snapshot.Snapshot {
	if err := b.snap.Validate(); err != nil {
		panic(err)
	}
	return b.snap
}

// Sample is a handful of real-ish species around the mineral and field
// egg groups. For endure in x-y, aron, geodude, magnemite and tauros learn
// it directly; nosepass, roggenrola, miltank, snorlax and pichu only
// through breeding; ditto does not learn it at all. Tackle is the only
// move recorded for sun-moon.
func Sample() *snapshot.Snapshot {
	return NewBuilder().
		Species("aron", 4, "monster", "mineral").
		Species("chansey", 8, "fairy").
		Species("ditto", -1, "ditto").
		Species("geodude", 4, "mineral").
		Species("magnemite", -1, "mineral").
		Species("miltank", 8, "field").
		Species("nosepass", 4, "mineral").
		Species("pichu", 4, "no-eggs").
		Species("roggenrola", 4, "mineral").
		Species("snorlax", 1, "monster").
		Species("tauros", 0, "field").
		Learns("aron", "endure", "level-up", "x-y").
		Learns("aron", "endure", "machine", "x-y").
		Learns("geodude", "endure", "machine", "x-y").
		Learns("magnemite", "endure", "machine", "x-y").
		Learns("tauros", "endure", "machine", "x-y").
		Learns("nosepass", "endure", "egg", "x-y").
		Learns("roggenrola", "endure", "egg", "x-y").
		Learns("miltank", "endure", "egg", "x-y").
		Learns("snorlax", "endure", "egg", "x-y").
		Learns("pichu", "endure", "egg", "x-y").
		Learns("chansey", "tackle", "level-up", "x-y").
		Learns("nosepass", "tackle", "level-up", "sun-moon").
		Build()
}

// Field is a single-egg-group snapshot where the only way from the direct
// learner "a" to the target "c" is through "b" or "d": a and c are both
// male-only so they cannot be paired with each other.
func Field() *snapshot.Snapshot {
	return NewBuilder().
		Species("a", 0, "field").
		Species("b", 4, "field").
		Species("c", 0, "field").
		Species("d", 4, "field").
		Species("e", 4, "water1").
		Learns("a", "x", "level-up", "v1").
		Learns("b", "x", "egg", "v1").
		Learns("c", "x", "egg", "v1").
		Learns("d", "x", "egg", "v1").
		Learns("e", "x", "egg", "v1").
		Build()
}
