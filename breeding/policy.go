package breeding

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Policy decides breeding compatibility and move inheritance. The graph
// builder only proposes candidate pairs that share an egg group or involve
// a universal breeder; Compatible has the final say on each candidate.
type Policy interface {
	// Breedable reports whether a species can take part in breeding at all.
	Breedable(s Species) bool
	// IsUniversal reports whether a species breeds with any breedable
	// species regardless of egg group or gender.
	IsUniversal(s Species) bool
	// Compatible reports whether a and b can be paired.
	Compatible(a, b Species) bool
	// IsInherited reports whether a learn method only comes from a parent.
	// A species with any other method already knows the move.
	IsInherited(method string) bool
	// IsDirect reports whether a learn method makes its species a source
	// of the move for a breeding chain. IsDirect implies !IsInherited.
	IsDirect(method string) bool
	// CanReceive reports whether a species with the given learn methods
	// for the move can have it passed down to it.
	CanReceive(methods []string) bool
}

var (
	DefaultUniversalBreeders     = []string{"ditto"}
	DefaultInheritedMethods      = []string{"egg", "light-ball-egg"}
	DefaultUndiscoveredEggGroups = []string{"no-eggs"}
)

// Ruleset is the stock Policy. Two distinct breedable species are
// compatible when they share an egg group and one of them can be male
// while the other can be female, or when exactly one of them is a
// universal breeder.
type Ruleset struct {
	UniversalBreeders     []string `yaml:"universal_breeders"`
	InheritedMethods      []string `yaml:"inherited_methods"`
	NonPassableMethods    []string `yaml:"non_passable_methods"`
	UndiscoveredEggGroups []string `yaml:"undiscovered_egg_groups"`

	universal    map[string]bool
	inherited    map[string]bool
	nonPassable  map[string]bool
	undiscovered map[string]bool
}

func DefaultRuleset() *Ruleset {
	return NewRuleset(DefaultUniversalBreeders, DefaultInheritedMethods, nil,
		DefaultUndiscoveredEggGroups)
}

func NewRuleset(universal, inherited, nonPassable, undiscovered []string) *Ruleset {
	r := &Ruleset{
		UniversalBreeders:     slices.Clone(universal),
		InheritedMethods:      slices.Clone(inherited),
		NonPassableMethods:    slices.Clone(nonPassable),
		UndiscoveredEggGroups: slices.Clone(undiscovered),
	}
	r.index()
	return r
}

func toSet(xs []string) map[string]bool {
	return lo.SliceToMap(xs, func(x string) (string, bool) { return x, true })
}

func (r *Ruleset) index() {
	for _, xs := range []*[]string{&r.UniversalBreeders, &r.InheritedMethods,
		&r.NonPassableMethods, &r.UndiscoveredEggGroups} {
		*xs = lo.Uniq(*xs)
		slices.Sort(*xs)
	}
	r.universal = toSet(r.UniversalBreeders)
	r.inherited = toSet(r.InheritedMethods)
	r.nonPassable = toSet(r.NonPassableMethods)
	r.undiscovered = toSet(r.UndiscoveredEggGroups)
}

func (r *Ruleset) Breedable(s Species) bool {
	if len(s.EggGroups) == 0 {
		return false
	}
	return !lo.SomeBy(s.EggGroups, func(g string) bool { return r.undiscovered[g] })
}

func (r *Ruleset) IsUniversal(s Species) bool {
	return r.universal[s.Name]
}

func (r *Ruleset) Compatible(a, b Species) bool {
	if a.Name == b.Name || !r.Breedable(a) || !r.Breedable(b) {
		return false
	}
	ua, ub := r.IsUniversal(a), r.IsUniversal(b)
	if ua || ub {
		// Two universal breeders cannot be paired with each other.
		return ua != ub
	}
	if !a.SharesGroup(b) {
		return false
	}
	return (a.Gender.MaleCapable() && b.Gender.FemaleCapable()) ||
		(b.Gender.MaleCapable() && a.Gender.FemaleCapable())
}

func (r *Ruleset) IsInherited(method string) bool {
	return r.inherited[method]
}

func (r *Ruleset) IsDirect(method string) bool {
	return !r.inherited[method] && !r.nonPassable[method]
}

func (r *Ruleset) CanReceive(methods []string) bool {
	return len(methods) > 0
}

// LoadRuleset reads a YAML ruleset. Keys missing from the document keep
// their default values.
func LoadRuleset(rd io.Reader) (*Ruleset, error) {
	r := DefaultRuleset()
	dec := yaml.NewDecoder(rd)
	if err := dec.Decode(r); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding ruleset: %w", err)
	}
	r.index()
	return r, nil
}

func LoadRulesetFile(path string) (*Ruleset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadRuleset(f)
}

// YAML renders the ruleset in the same shape LoadRuleset reads.
func (r *Ruleset) YAML() (string, error) {
	out, err := yaml.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
