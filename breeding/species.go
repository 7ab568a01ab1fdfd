// Package breeding models the breeding traits of a species and the rules
// that decide which species can be paired and which learn methods are
// passed down to offspring.
package breeding

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// GenderProfile describes the genders a species can have.
type GenderProfile uint8

const (
	GenderMixed GenderProfile = iota
	GenderMaleOnly
	GenderFemaleOnly
	GenderGenderless
)

// Gender rates are stored in eighths of "female", with -1 meaning the
// species has no gender at all.
const (
	GenderlessRate = -1
	MaleOnlyRate   = 0
	FemaleOnlyRate = 8
)

var genderProfileNames = map[GenderProfile]string{
	GenderMixed:      "mixed",
	GenderMaleOnly:   "male-only",
	GenderFemaleOnly: "female-only",
	GenderGenderless: "genderless",
}

// GenderProfileFromRate decodes a raw gender rate.
func GenderProfileFromRate(rate int) (GenderProfile, error) {
	switch {
	case rate == GenderlessRate:
		return GenderGenderless, nil
	case rate == MaleOnlyRate:
		return GenderMaleOnly, nil
	case rate == FemaleOnlyRate:
		return GenderFemaleOnly, nil
	case rate > MaleOnlyRate && rate < FemaleOnlyRate:
		return GenderMixed, nil
	}
	return 0, fmt.Errorf("gender rate %d out of range [%d, %d]", rate, GenderlessRate, FemaleOnlyRate)
}

func (g GenderProfile) MaleCapable() bool {
	return g == GenderMixed || g == GenderMaleOnly
}

func (g GenderProfile) FemaleCapable() bool {
	return g == GenderMixed || g == GenderFemaleOnly
}

func (g GenderProfile) String() string {
	if n, ok := genderProfileNames[g]; ok {
		return n
	}
	return fmt.Sprintf("gender(%d)", uint8(g))
}

func (g GenderProfile) MarshalText() ([]byte, error) {
	if _, ok := genderProfileNames[g]; !ok {
		return nil, fmt.Errorf("invalid gender profile %d", uint8(g))
	}
	return []byte(g.String()), nil
}

func (g *GenderProfile) UnmarshalText(text []byte) error {
	for k, v := range genderProfileNames {
		if v == string(text) {
			*g = k
			return nil
		}
	}
	return fmt.Errorf("unknown gender profile %q", string(text))
}

// Species holds the breeding-relevant facts about one species. EggGroups
// is sorted and has no duplicates.
type Species struct {
	Name      string        `json:"name" yaml:"name"`
	EggGroups []string      `json:"egg_groups" yaml:"egg_groups"`
	Gender    GenderProfile `json:"gender" yaml:"gender"`
}

func NewSpecies(name string, eggGroups []string, gender GenderProfile) Species {
	groups := lo.Uniq(eggGroups)
	slices.Sort(groups)
	return Species{Name: name, EggGroups: groups, Gender: gender}
}

func (s Species) InGroup(group string) bool {
	_, found := slices.BinarySearch(s.EggGroups, group)
	return found
}

// SharesGroup reports whether the two species have at least one egg group
// in common.
func (s Species) SharesGroup(o Species) bool {
	i, j := 0, 0
	for i < len(s.EggGroups) && j < len(o.EggGroups) {
		switch {
		case s.EggGroups[i] == o.EggGroups[j]:
			return true
		case s.EggGroups[i] < o.EggGroups[j]:
			i++
		default:
			j++
		}
	}
	return false
}
