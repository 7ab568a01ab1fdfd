package reducer

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Query asks for the shortest breeding chains that get Move onto Pokemon
// in VersionGroup.
type Query struct {
	Pokemon      string `json:"pokemon" yaml:"pokemon"`
	Move         string `json:"move" yaml:"move"`
	VersionGroup string `json:"version_group" yaml:"version_group"`
}

func (q Query) Normalize() Query {
	return Query{
		Pokemon:      NormalizeName(q.Pokemon),
		Move:         NormalizeName(q.Move),
		VersionGroup: NormalizeName(q.VersionGroup),
	}
}

func (q Query) String() string {
	return fmt.Sprintf("%s/%s@%s", q.Pokemon, q.Move, q.VersionGroup)
}

var genderSigns = strings.NewReplacer("♀", "-f", "♂", "-m")

// NormalizeName maps user input such as "Mr. Mime", "Flabébé" or
// "Nidoran♀" onto dataset names ("mr-mime", "flabebe", "nidoran-f").
func NormalizeName(s string) string {
	s = genderSigns.Replace(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}
	s = strings.ToLower(s)

	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r == '-' || r == '_' || unicode.IsSpace(r):
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		case r == '.' || r == '\'' || r == ':' || r == '’':
		default:
			b.WriteRune(r)
			dash = false
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
