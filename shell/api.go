package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/eggmove/eggmove/breeding"
	"github.com/eggmove/eggmove/cache"
	"github.com/eggmove/eggmove/compat"
	"github.com/eggmove/eggmove/config"
	"github.com/eggmove/eggmove/engine"
	"github.com/eggmove/eggmove/format"
	"github.com/eggmove/eggmove/reducer"
	"github.com/eggmove/eggmove/snapshot"
)

var errUsage = errors.New("usage")

type Response struct {
	message    string
	infeasible bool
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

func (c CmdOptions) StringArray(key string) []string {
	return c[key]
}

func msg(message string) *Response {
	return &Response{message: message}
}

func usageError(usage string) error {
	return fmt.Errorf("%w: %s", errUsage, usage)
}

func (sc *ShellController) openOptions() snapshot.OpenOptions {
	return snapshot.OpenOptions{FetchAttempts: uint(sc.config.GetInt(config.ConfigSnapshotFetchAttempts))}
}

func (sc *ShellController) loadSnapshot(location string, reload bool) error {
	if reload {
		cache.Evict(location)
	}
	obj, err := cache.Load(location, func(key string) (interface{}, error) {
		return snapshot.Open(context.Background(), key, sc.openOptions())
	})
	if err != nil {
		return err
	}
	snap := obj.(*snapshot.Snapshot)
	policy, err := engine.PolicyFromConfig(sc.config)
	if err != nil {
		return err
	}
	sc.eng = engine.New(snap, policy, engine.OptionsFromConfig(sc.config))
	sc.location = location
	return nil
}

// getEngine returns the current engine, loading the configured snapshot
// the first time it is needed.
func (sc *ShellController) getEngine() (*engine.Engine, error) {
	if sc.eng == nil {
		loc := sc.config.GetString(config.ConfigSnapshot)
		log.Info().Str("snapshot", loc).Msg("loading-configured-snapshot")
		if err := sc.loadSnapshot(loc, false); err != nil {
			return nil, fmt.Errorf("loading snapshot %s: %w", loc, err)
		}
	}
	return sc.eng, nil
}

func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	loc := sc.config.GetString(config.ConfigSnapshot)
	if len(cmd.args) > 0 {
		loc = cmd.args[0]
	}
	// Drop a loaded engine so the configured policy applies again.
	sc.eng = nil
	if err := sc.loadSnapshot(loc, cmd.options.Bool("reload")); err != nil {
		return nil, err
	}
	sum, err := sc.eng.Snapshot().Summary()
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("loaded %s: %d species, %d moves, %d version groups (%s)",
		loc, sum.Species, sum.Moves, sum.VersionGroups, sum.Fingerprint)), nil
}

func (sc *ShellController) info(cmd *shellcmd) (*Response, error) {
	eng, err := sc.getEngine()
	if err != nil {
		return nil, err
	}
	sum, err := eng.Snapshot().Summary()
	if err != nil {
		return nil, err
	}
	opts := eng.Options()
	var b strings.Builder
	fmt.Fprintf(&b, "eggmove %s\n", sc.gitVersion)
	fmt.Fprintf(&b, "snapshot:       %s\n", sc.location)
	fmt.Fprintf(&b, "fingerprint:    %s\n", sum.Fingerprint)
	fmt.Fprintf(&b, "species:        %d\n", sum.Species)
	fmt.Fprintf(&b, "moves:          %d\n", sum.Moves)
	fmt.Fprintf(&b, "version groups: %d\n", sum.VersionGroups)
	fmt.Fprintf(&b, "learn records:  %d\n", sum.Records)
	fmt.Fprintf(&b, "max chains:     %d\n", opts.Solver.MaxChains)
	fmt.Fprintf(&b, "timeout:        %s\n", opts.Timeout)
	fmt.Fprintf(&b, "output:         %s\n", sc.format)
	fmt.Fprintf(&b, "cached:         %s", strings.Join(cache.Keys(), ", "))
	return msg(b.String()), nil
}

// queryEngine applies per-command -max-chains and -timeout options.
func (sc *ShellController) queryEngine(cmd *shellcmd) (*engine.Engine, error) {
	eng, err := sc.getEngine()
	if err != nil {
		return nil, err
	}
	opts := eng.Options()
	if opts.Solver.MaxChains, err = cmd.options.IntDefault("max-chains", opts.Solver.MaxChains); err != nil {
		return nil, err
	}
	if t := cmd.options.String("timeout"); t != "" {
		if opts.Timeout, err = time.ParseDuration(t); err != nil {
			return nil, err
		}
	}
	return eng.WithOptions(opts), nil
}

func (sc *ShellController) outputFormat(cmd *shellcmd) (format.Format, error) {
	if f := cmd.options.String("format"); f != "" {
		return format.ParseFormat(f)
	}
	return sc.format, nil
}

func (sc *ShellController) render(doc *format.Document, f format.Format) (string, error) {
	var b strings.Builder
	if err := format.Render(&b, doc, f, format.Options{Pretty: sc.pretty}); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 3 {
		return nil, usageError("solve <pokemon> <move> <version-group> [-max-chains n] [-timeout d] [-format f]")
	}
	f, err := sc.outputFormat(cmd)
	if err != nil {
		return nil, err
	}
	eng, err := sc.queryEngine(cmd)
	if err != nil {
		return nil, err
	}
	q := reducer.Query{Pokemon: cmd.args[0], Move: cmd.args[1], VersionGroup: cmd.args[2]}
	out, err := eng.Solve(context.Background(), q)
	if err != nil {
		return nil, err
	}
	text, err := sc.render(out.Document(), f)
	if err != nil {
		return nil, err
	}
	return &Response{message: text, infeasible: !out.Feasible()}, nil
}

// readQueries reads one "pokemon move version-group" query per line.
// Blank lines and lines starting with # are skipped.
func readQueries(path string) ([]reducer.Query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var qs []reducer.Query
	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields, err := shellquote.Split(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineno, err)
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("%s:%d: want pokemon, move and version group", path, lineno)
		}
		qs = append(qs, reducer.Query{Pokemon: fields[0], Move: fields[1], VersionGroup: fields[2]})
	}
	return qs, scanner.Err()
}

func (sc *ShellController) batch(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, usageError("batch <file> [-max-chains n] [-timeout d] [-format f]")
	}
	qs, err := readQueries(cmd.args[0])
	if err != nil {
		return nil, err
	}
	f, err := sc.outputFormat(cmd)
	if err != nil {
		return nil, err
	}
	eng, err := sc.queryEngine(cmd)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	solved, infeasible, failed := 0, 0, 0
	for _, item := range eng.SolveBatch(context.Background(), qs) {
		if item.Err != nil {
			failed++
			fmt.Fprintf(&b, "%s: error: %v\n", item.Query, item.Err)
			continue
		}
		if item.Outcome.Feasible() {
			solved++
		} else {
			infeasible++
		}
		text, err := sc.render(item.Outcome.Document(), f)
		if err != nil {
			return nil, err
		}
		b.WriteString(text)
	}
	fmt.Fprintf(&b, "%d queries: %d solved, %d infeasible, %d failed", len(qs), solved, infeasible, failed)
	return msg(b.String()), nil
}

func (sc *ShellController) survey(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 2 {
		return nil, usageError("survey <move> <version-group> [-width n]")
	}
	eng, err := sc.queryEngine(cmd)
	if err != nil {
		return nil, err
	}
	width, err := cmd.options.IntDefault("width", 40)
	if err != nil {
		return nil, err
	}
	rep, err := eng.Survey(context.Background(), cmd.args[0], cmd.args[1])
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s in %s: %d direct learners, %d reachable, %d unreachable\n",
		rep.Move, rep.VersionGroup, len(rep.Seeds), len(rep.Entries), len(rep.Unreachable))
	distances := make([]int, 0, len(rep.Counts))
	for d := range rep.Counts {
		distances = append(distances, d)
	}
	sort.Ints(distances)
	for _, d := range distances {
		fmt.Fprintf(&b, "  %2d steps: %d\n", d, rep.Counts[d])
	}
	fmt.Fprintf(&b, "mean %.2f, median %.1f, max %.0f\n", rep.Summary.Mean, rep.Summary.Median, rep.Summary.Max)
	if err := rep.WriteHistogram(&b, width); err != nil {
		return nil, err
	}
	if len(rep.Unreachable) > 0 {
		fmt.Fprintf(&b, "unreachable: %s", strings.Join(rep.Unreachable, ", "))
	}
	return msg(b.String()), nil
}

func (sc *ShellController) learners(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 2 {
		return nil, usageError("learners <move> <version-group>")
	}
	eng, err := sc.getEngine()
	if err != nil {
		return nil, err
	}
	rep, err := eng.Learners(cmd.args[0], cmd.args[1])
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s in %s\n", rep.Move, rep.VersionGroup)
	fmt.Fprintf(&b, "direct (%d):\n", len(rep.Direct))
	for _, name := range rep.Direct {
		fmt.Fprintf(&b, "  %-20s %s\n", name, strings.Join(rep.Methods[name], ", "))
	}
	fmt.Fprintf(&b, "inherited (%d):\n", len(rep.Inherited))
	for _, name := range rep.Inherited {
		fmt.Fprintf(&b, "  %-20s %s\n", name, strings.Join(rep.Methods[name], ", "))
	}
	return msg(strings.TrimSuffix(b.String(), "\n")), nil
}

func (sc *ShellController) graph(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 2 {
		return nil, usageError("graph <move> <version-group> [-target pokemon] [-out file.dot]")
	}
	eng, err := sc.getEngine()
	if err != nil {
		return nil, err
	}
	target := reducer.NormalizeName(cmd.options.String("target"))
	g, seeds, err := eng.Graph(reducer.Query{Pokemon: target, Move: cmd.args[0], VersionGroup: cmd.args[1]})
	if err != nil {
		return nil, err
	}
	out := cmd.options.String("out")
	if out == "" {
		var b strings.Builder
		if err := compat.WriteDOT(&b, g, seeds, target); err != nil {
			return nil, err
		}
		return msg(b.String()), nil
	}
	f, err := os.Create(out)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := compat.WriteDOT(f, g, seeds, target); err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("wrote %d nodes and %d edges to %s", g.Len(), g.EdgeCount(), out)), nil
}

func (sc *ShellController) policy(cmd *shellcmd) (*Response, error) {
	eng, err := sc.getEngine()
	if err != nil {
		return nil, err
	}
	if len(cmd.args) > 0 {
		rs, err := breeding.LoadRulesetFile(cmd.args[0])
		if err != nil {
			return nil, err
		}
		sc.eng = eng.WithPolicy(rs)
		eng = sc.eng
	}
	rs, ok := eng.Policy().(*breeding.Ruleset)
	if !ok {
		return msg(fmt.Sprintf("custom policy %T", eng.Policy())), nil
	}
	out, err := rs.YAML()
	if err != nil {
		return nil, err
	}
	return msg(strings.TrimSuffix(out, "\n")), nil
}

var settable = []string{"format", "pretty", "max-chains", "timeout", "threads"}

func (sc *ShellController) showSettings() string {
	var b strings.Builder
	for _, key := range settable {
		fmt.Fprintf(&b, "%-11s %s\n", key, sc.setting(key))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (sc *ShellController) setting(key string) string {
	opts := engine.OptionsFromConfig(sc.config)
	if sc.eng != nil {
		opts = sc.eng.Options()
	}
	switch key {
	case "format":
		return sc.format.String()
	case "pretty":
		return strconv.FormatBool(sc.pretty)
	case "max-chains":
		return strconv.Itoa(opts.Solver.MaxChains)
	case "timeout":
		return opts.Timeout.String()
	case "threads":
		return strconv.Itoa(opts.Solver.Threads)
	}
	return ""
}

// Set changes a session setting and returns its new display value.
func (sc *ShellController) Set(key string, value string) (string, error) {
	var err error
	switch key {
	case "format":
		sc.format, err = format.ParseFormat(value)
		return sc.setting(key), err
	case "pretty":
		sc.pretty, err = strconv.ParseBool(value)
		return sc.setting(key), err
	case "max-chains", "timeout", "threads":
	default:
		return "", fmt.Errorf("%w: unknown setting %q", errUsage, key)
	}
	eng, err := sc.getEngine()
	if err != nil {
		return "", err
	}
	opts := eng.Options()
	switch key {
	case "max-chains":
		opts.Solver.MaxChains, err = strconv.Atoi(value)
	case "timeout":
		opts.Timeout, err = time.ParseDuration(value)
	case "threads":
		opts.Solver.Threads, err = strconv.Atoi(value)
	}
	if err != nil {
		return "", err
	}
	sc.eng = eng.WithOptions(opts)
	return sc.setting(key), nil
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(sc.showSettings()), nil
	}
	opt := cmd.args[0]
	if len(cmd.args) == 1 {
		return msg(sc.setting(opt)), nil
	}
	ret, err := sc.Set(opt, cmd.args[1])
	if err != nil {
		return nil, err
	}
	return msg("set " + opt + " to " + ret), nil
}

func (sc *ShellController) setConfig(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) < 2 {
		return nil, usageError("setconfig <key> <value>")
	}
	key := cmd.args[0]
	value := cmd.args[1]
	sc.config.Set(key, value)
	if err := sc.config.Write(); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	return msg(fmt.Sprintf("set %s to %s and saved the config", key, value)), nil
}
