package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/eggmove/eggmove/config"
	"github.com/eggmove/eggmove/engine"
	"github.com/eggmove/eggmove/format"
)

// Exit codes for one-shot commands.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitUserError  = 2
	ExitInfeasible = 3
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errQuit              = errors.New("quit")
)

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

type ShellController struct {
	l          *readline.Instance
	config     *config.Config
	execPath   string
	gitVersion string

	out      io.Writer
	eng      *engine.Engine
	location string

	format   format.Format
	pretty   bool
	exitCode int
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	if !strings.HasSuffix(msg, "\n") {
		io.WriteString(w, "\n")
	}
}

func newController(cfg *config.Config, execPath, gitVersion string, out io.Writer) *ShellController {
	f, err := format.ParseFormat(cfg.GetString(config.ConfigOutputFormat))
	if err != nil {
		log.Warn().Err(err).Msg("using-text-output")
	}
	return &ShellController{
		config:     cfg,
		execPath:   execPath,
		gitVersion: gitVersion,
		out:        out,
		format:     f,
		pretty:     cfg.GetBool(config.ConfigPrettyNames),
	}
}

// NewShellController returns a controller with a readline prompt. One-shot
// commands can run through Execute without ever calling Loop.
func NewShellController(cfg *config.Config, execPath, gitVersion string) *ShellController {
	sc := newController(cfg, execPath, gitVersion, os.Stdout)
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[32meggmove>\033[0m ",
		HistoryFile:     "/tmp/eggmove_readline.tmp",
		AutoComplete:    NewShellCompleter(sc),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	sc.out = l.Stdout()
	return sc
}

func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	for idx := 1; idx < len(fields); idx++ {
		if isOption(fields[idx]) {
			if idx == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			key := strings.TrimLeft(fields[idx], "-")
			options[key] = append(options[key], fields[idx+1])
			idx++
			continue
		}
		args = append(args, fields[idx])
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

// isOption is true for -key and --key, but not for negative numbers.
func isOption(field string) bool {
	if len(field) < 2 || field[0] != '-' {
		return false
	}
	return field[1] < '0' || field[1] > '9'
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()
	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := sc.run(line); errors.Is(err, errQuit) {
			sig <- syscall.SIGINT
			break
		}
	}
	log.Debug().Msg("exiting-readline-loop")
}

// Execute runs a single command line and records its exit code.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	if err := sc.run(line); errors.Is(err, errQuit) {
		sig <- syscall.SIGINT
	}
}

func (sc *ShellController) run(line string) error {
	resp, err := sc.dispatch(line)
	switch {
	case errors.Is(err, errQuit):
		sc.exitCode = ExitOK
		return err
	case err != nil:
		sc.exitCode = ExitFailure
		if engine.IsUserError(err) || errors.Is(err, errWrongOptionSyntax) || errors.Is(err, errUsage) {
			sc.exitCode = ExitUserError
		}
		showMessage("Error: "+err.Error(), sc.out)
		return err
	}
	sc.exitCode = ExitOK
	if resp != nil {
		if resp.infeasible {
			sc.exitCode = ExitInfeasible
		}
		if resp.message != "" {
			showMessage(resp.message, sc.out)
		}
	}
	return nil
}

func (sc *ShellController) dispatch(line string) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("cmd", cmd.cmd).Strs("args", cmd.args).Msg("shell-command")
	switch cmd.cmd {
	case "exit", "quit":
		return nil, errQuit
	case "help":
		return sc.help(cmd)
	case "load":
		return sc.load(cmd)
	case "info":
		return sc.info(cmd)
	case "solve":
		return sc.solve(cmd)
	case "batch":
		return sc.batch(cmd)
	case "survey":
		return sc.survey(cmd)
	case "learners":
		return sc.learners(cmd)
	case "graph":
		return sc.graph(cmd)
	case "policy":
		return sc.policy(cmd)
	case "set":
		return sc.set(cmd)
	case "setconfig":
		return sc.setConfig(cmd)
	case "script":
		return sc.script(cmd)
	}
	return nil, fmt.Errorf("%w: unknown command %q, try `help`", errUsage, cmd.cmd)
}

func (sc *ShellController) ExitCode() int {
	return sc.exitCode
}

func (sc *ShellController) Cleanup() {
	if sc.l != nil {
		sc.l.Close()
	}
}

// NewOneShotController returns a controller that writes to stdout and
// never prompts.
func NewOneShotController(cfg *config.Config, execPath, gitVersion string) *ShellController {
	return newController(cfg, execPath, gitVersion, os.Stdout)
}
