package breeding

import "fmt"

// ConsistencyError means the input data contradicts itself, for example a
// learn record naming a species that has no entry in the species table.
// It indicates a corrupt snapshot rather than bad user input.
type ConsistencyError struct {
	Species string
	Context string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("inconsistent data for species %q: %s", e.Species, e.Context)
}
