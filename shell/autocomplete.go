package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

// ShellCompleter completes command names, options, and species, move and
// version group names from the loaded snapshot.
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

type argKind int

const (
	argNone argKind = iota
	argSpecies
	argMove
	argVersionGroup
)

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string
	Args    []string
	// Positional describes what each positional argument names.
	Positional []argKind
}

var commandMetadata = map[string]CommandMetadata{
	"solve": {
		Options:    []string{"-max-chains", "-timeout", "-format"},
		Positional: []argKind{argSpecies, argMove, argVersionGroup},
	},
	"batch": {
		Options: []string{"-max-chains", "-timeout", "-format"},
	},
	"survey": {
		Options:    []string{"-width", "-max-chains", "-timeout"},
		Positional: []argKind{argMove, argVersionGroup},
	},
	"learners": {
		Positional: []argKind{argMove, argVersionGroup},
	},
	"graph": {
		Options:    []string{"-target", "-out"},
		Positional: []argKind{argMove, argVersionGroup},
	},
	"load": {
		Options: []string{"-reload"},
	},
	"set": {
		Args: settable,
	},
	"setconfig": {
		Args: []string{
			"snapshot", "data-path", "policy-file", "max-chains", "solve-timeout",
			"threads", "output-format", "pretty-names", "nats-url", "nats-subject",
		},
	},
	"help": {
		Args: []string{"load", "info", "solve", "batch", "survey", "learners",
			"graph", "policy", "set", "setconfig", "script"},
	},
}

var commandNames = []string{
	"help", "load", "info", "solve", "batch", "survey", "learners", "graph",
	"policy", "set", "setconfig", "script", "exit",
}

var boolValues = []string{"true", "false"}

func (c *ShellCompleter) names(kind argKind) []string {
	if c.sc.eng == nil {
		return nil
	}
	snap := c.sc.eng.Snapshot()
	switch kind {
	case argSpecies:
		return snap.SpeciesNames()
	case argMove:
		return snap.MoveNames()
	case argVersionGroup:
		return snap.VersionGroups()
	}
	return nil
}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		metadata := commandMetadata[cmdName]
		switch {
		case isOption(lastCompleteField):
			switch strings.TrimLeft(lastCompleteField, "-") {
			case "format":
				completions = []string{"text", "json", "yaml"}
			case "reload":
				completions = boolValues
			case "target":
				completions = c.names(argSpecies)
			}
		case strings.HasPrefix(prefix, "-"):
			completions = metadata.Options
		case len(metadata.Positional) > 0:
			// Count positional arguments before the one being typed.
			n := 0
			for i := 1; i < len(fields); i++ {
				if isOption(fields[i]) {
					i++
					continue
				}
				n++
			}
			if !endsWithSpace {
				n--
			}
			if n >= 0 && n < len(metadata.Positional) {
				completions = c.names(metadata.Positional[n])
			}
		case len(metadata.Args) > 0:
			completions = metadata.Args
		default:
			completions = metadata.Options
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
