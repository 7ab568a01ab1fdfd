package engine

import (
	"errors"

	"github.com/eggmove/eggmove/breeding"
	"github.com/eggmove/eggmove/learners"
	"github.com/eggmove/eggmove/reducer"
)

// Error kinds, as reported to remote callers.
const (
	KindUnknownMove         = "unknown-move"
	KindUnknownVersionGroup = "unknown-version-group"
	KindUnknownPokemon      = "unknown-pokemon"
	KindConsistency         = "consistency"
	KindBadRequest          = "bad-request"
	KindInternal            = "internal"
)

func ErrorKind(err error) string {
	var ce *breeding.ConsistencyError
	switch {
	case errors.Is(err, reducer.ErrUnknownMove):
		return KindUnknownMove
	case errors.Is(err, reducer.ErrUnknownVersionGroup):
		return KindUnknownVersionGroup
	case errors.Is(err, learners.ErrUnknownPokemon):
		return KindUnknownPokemon
	case errors.As(err, &ce):
		return KindConsistency
	}
	return KindInternal
}

// IsUserError reports whether err was caused by the query rather than the
// data or the process.
func IsUserError(err error) bool {
	switch ErrorKind(err) {
	case KindUnknownMove, KindUnknownVersionGroup, KindUnknownPokemon:
		return true
	}
	return false
}
