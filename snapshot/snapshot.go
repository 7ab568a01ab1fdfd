// Package snapshot holds the read-only breeding dataset: gender rates, egg
// group memberships and per-version learn records, as dumped from the
// species data service.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/eggmove/eggmove/breeding"
)

type GenderRate struct {
	Pokemon    string `json:"pokemon"`
	GenderRate int    `json:"gender_rate"`
}

type EggGroup struct {
	Pokemon  string `json:"pokemon"`
	EggGroup string `json:"egg_group"`
}

type Move struct {
	Pokemon      string `json:"pokemon"`
	Move         string `json:"move"`
	LearnMethod  string `json:"learn_method"`
	VersionGroup string `json:"version_group"`
}

type recordKey struct {
	move, versionGroup string
}

// Snapshot must not be modified once it has been validated; after that it
// is safe for concurrent use.
type Snapshot struct {
	EggGroups   []EggGroup   `json:"egg_groups"`
	GenderRates []GenderRate `json:"gender_rates"`
	Moves       []Move       `json:"moves"`

	once     sync.Once
	indexErr error
	species  map[string]breeding.Species
	moves    map[string]bool
	versions map[string]bool
	records  map[recordKey][]Move
}

// Decode reads and validates a JSON snapshot.
func Decode(r io.Reader) (*Snapshot, error) {
	s := &Snapshot{}
	if err := json.NewDecoder(r).Decode(s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate builds the lookup indexes. It fails with a
// *breeding.ConsistencyError if a species has more than one gender rate,
// a gender rate cannot be decoded, or an egg group or learn record names a
// species with no gender rate row.
func (s *Snapshot) Validate() error {
	s.once.Do(func() {
		s.indexErr = s.buildIndex()
	})
	return s.indexErr
}

func (s *Snapshot) buildIndex() error {
	groups := lo.GroupBy(s.EggGroups, func(e EggGroup) string { return e.Pokemon })

	s.species = make(map[string]breeding.Species, len(s.GenderRates))
	for _, gr := range s.GenderRates {
		if _, dup := s.species[gr.Pokemon]; dup {
			return &breeding.ConsistencyError{Species: gr.Pokemon, Context: "duplicate gender rate"}
		}
		profile, err := breeding.GenderProfileFromRate(gr.GenderRate)
		if err != nil {
			return &breeding.ConsistencyError{Species: gr.Pokemon, Context: err.Error()}
		}
		names := lo.Map(groups[gr.Pokemon], func(e EggGroup, _ int) string { return e.EggGroup })
		s.species[gr.Pokemon] = breeding.NewSpecies(gr.Pokemon, names, profile)
	}

	for _, e := range s.EggGroups {
		if _, ok := s.species[e.Pokemon]; !ok {
			return &breeding.ConsistencyError{Species: e.Pokemon,
				Context: fmt.Sprintf("egg group %s has no gender rate row", e.EggGroup)}
		}
	}

	s.moves = map[string]bool{}
	s.versions = map[string]bool{}
	s.records = map[recordKey][]Move{}
	for _, m := range s.Moves {
		if _, ok := s.species[m.Pokemon]; !ok {
			return &breeding.ConsistencyError{Species: m.Pokemon,
				Context: fmt.Sprintf("learn record for %s in %s has no gender rate row", m.Move, m.VersionGroup)}
		}
		s.moves[m.Move] = true
		s.versions[m.VersionGroup] = true
		k := recordKey{m.Move, m.VersionGroup}
		s.records[k] = append(s.records[k], m)
	}
	log.Debug().Int("species", len(s.species)).Int("moves", len(s.moves)).
		Int("version-groups", len(s.versions)).Int("records", len(s.Moves)).
		Msg("snapshot-indexed")
	return nil
}

func (s *Snapshot) HasMove(move string) bool {
	if s.Validate() != nil {
		return false
	}
	return s.moves[move]
}

func (s *Snapshot) HasVersionGroup(vg string) bool {
	if s.Validate() != nil {
		return false
	}
	return s.versions[vg]
}

// Species looks a species up in the species table.
func (s *Snapshot) Species(name string) (breeding.Species, bool) {
	if s.Validate() != nil {
		return breeding.Species{}, false
	}
	sp, ok := s.species[name]
	return sp, ok
}

// Records returns every learn record for a move in a version group. The
// returned slice must not be modified.
func (s *Snapshot) Records(move, vg string) []Move {
	if s.Validate() != nil {
		return nil
	}
	return s.records[recordKey{move, vg}]
}

func (s *Snapshot) SpeciesNames() []string {
	if s.Validate() != nil {
		return nil
	}
	names := lo.Keys(s.species)
	slices.Sort(names)
	return names
}

func (s *Snapshot) MoveNames() []string {
	if s.Validate() != nil {
		return nil
	}
	names := lo.Keys(s.moves)
	slices.Sort(names)
	return names
}

func (s *Snapshot) VersionGroups() []string {
	if s.Validate() != nil {
		return nil
	}
	names := lo.Keys(s.versions)
	slices.Sort(names)
	return names
}

// Fingerprint is a hex xxhash64 of the snapshot's JSON encoding. Two
// snapshots with the same rows in the same order share a fingerprint.
func (s *Snapshot) Fingerprint() string {
	h := xxhash.New()
	enc := json.NewEncoder(h)
	for _, part := range []any{s.EggGroups, s.GenderRates, s.Moves} {
		if err := enc.Encode(part); err != nil {
			// Encoding plain string/int rows cannot fail.
			panic(err)
		}
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

type Summary struct {
	Species       int    `json:"species" yaml:"species"`
	Moves         int    `json:"moves" yaml:"moves"`
	VersionGroups int    `json:"version_groups" yaml:"version_groups"`
	Records       int    `json:"records" yaml:"records"`
	Fingerprint   string `json:"fingerprint" yaml:"fingerprint"`
}

// Summary fails with the validation error of an invalid snapshot.
func (s *Snapshot) Summary() (Summary, error) {
	if err := s.Validate(); err != nil {
		return Summary{}, err
	}
	return Summary{
		Species:       len(s.species),
		Moves:         len(s.moves),
		VersionGroups: len(s.versions),
		Records:       len(s.Moves),
		Fingerprint:   s.Fingerprint(),
	}, nil
}
