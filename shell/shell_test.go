package shell

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/eggmove/eggmove/config"
)

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"batch -format json queries.txt",
			&shellcmd{"batch", []string{"queries.txt"}, CmdOptions{"format": {"json"}}},
			nil},
		{"solve nosepass endure x-y",
			&shellcmd{"solve", []string{"nosepass", "endure", "x-y"}, CmdOptions{}},
			nil},
		{"graph endure x-y -target nosepass --out g.dot ",
			&shellcmd{"graph",
				[]string{"endure", "x-y"},
				CmdOptions{"target": {"nosepass"}, "out": {"g.dot"}}},
			nil,
		},
		{"set max-chains -1",
			&shellcmd{"set", []string{"max-chains", "-1"}, CmdOptions{}},
			nil},
		{"solve nosepass endure x-y -max-chains",
			nil, errWrongOptionSyntax},
	}
	for _, t := range cases {
		cmd, err := extractFields(t.line)
		is.Equal(cmd, t.expCmd)
		is.Equal(err, t.expErr)
	}
}

const testSnapshot = `{
  "egg_groups": [
    {"pokemon": "nosepass", "egg_group": "mineral"},
    {"pokemon": "geodude", "egg_group": "mineral"},
    {"pokemon": "onix", "egg_group": "mineral"}
  ],
  "gender_rates": [
    {"pokemon": "nosepass", "gender_rate": 4},
    {"pokemon": "geodude", "gender_rate": 4},
    {"pokemon": "onix", "gender_rate": 4}
  ],
  "moves": [
    {"pokemon": "geodude", "move": "endure", "learn_method": "machine", "version_group": "x-y"},
    {"pokemon": "nosepass", "move": "endure", "learn_method": "egg", "version_group": "x-y"}
  ]
}`

func testController(t *testing.T) (*ShellController, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.json")
	if err := os.WriteFile(path, []byte(testSnapshot), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigSnapshot, path)
	cfg.Set(config.ConfigThreads, 1)
	var out bytes.Buffer
	return newController(cfg, "eggmove", "test", &out), &out, dir
}

func TestExecuteExitCodes(t *testing.T) {
	is := is.New(t)
	sig := make(chan os.Signal, 1)
	cases := []struct {
		line     string
		exitCode int
		contains string
	}{
		{"solve nosepass endure x-y", ExitOK, "geodude -> nosepass"},
		{"solve geodude endure x-y", ExitOK, "in 0 steps"},
		{"solve onix endure x-y", ExitInfeasible, "cannot-learn"},
		{"solve mew endure x-y", ExitUserError, "Error:"},
		{"solve nosepass tackle x-y", ExitUserError, "Error:"},
		{"solve nosepass endure", ExitUserError, "usage"},
		{"frobnicate", ExitUserError, "unknown command"},
		{"help solve", ExitOK, "solve"},
	}
	for _, c := range cases {
		sc, out, _ := testController(t)
		sc.Execute(sig, c.line)
		is.Equal(sc.ExitCode(), c.exitCode)
		is.True(strings.Contains(out.String(), c.contains))
	}
}

func TestSolveJSON(t *testing.T) {
	is := is.New(t)
	sc, out, _ := testController(t)
	sc.Execute(make(chan os.Signal, 1), "solve -format json nosepass endure x-y")
	is.Equal(sc.ExitCode(), ExitOK)
	is.True(strings.Contains(out.String(), `"status":"ok"`) ||
		strings.Contains(out.String(), `"status": "ok"`))
}

func TestSetting(t *testing.T) {
	is := is.New(t)
	sc, out, _ := testController(t)
	sig := make(chan os.Signal, 1)
	sc.Execute(sig, "set max-chains 5")
	is.Equal(sc.ExitCode(), ExitOK)
	is.Equal(sc.setting("max-chains"), "5")
	sc.Execute(sig, "set format yaml")
	is.Equal(sc.setting("format"), "yaml")
	sc.Execute(sig, "set colour blue")
	is.Equal(sc.ExitCode(), ExitUserError)
	is.True(strings.Contains(out.String(), "unknown setting"))
}

func TestExitCommand(t *testing.T) {
	is := is.New(t)
	sc, _, _ := testController(t)
	sig := make(chan os.Signal, 1)
	sc.Execute(sig, "exit")
	is.Equal(len(sig), 1)
	is.Equal(sc.ExitCode(), ExitOK)
}

func TestScript(t *testing.T) {
	is := is.New(t)
	sc, out, dir := testController(t)
	script := filepath.Join(dir, "solve.lua")
	err := os.WriteFile(script, []byte(`
local doc = eggmove_solve("nosepass", "endure", "x-y")
print(doc.status, #doc.chains)
`), 0o644)
	is.NoErr(err)
	sc.Execute(make(chan os.Signal, 1), "script "+script)
	is.Equal(sc.ExitCode(), ExitOK)
	is.Equal(out.String(), "ok\t1\n")
}

func TestCompleter(t *testing.T) {
	is := is.New(t)
	sc, _, _ := testController(t)
	_, err := sc.getEngine()
	is.NoErr(err)
	c := NewShellCompleter(sc)

	line := []rune("sol")
	matches, n := c.Do(line, len(line))
	is.Equal(n, 3)
	is.Equal(matches, [][]rune{[]rune("ve")})

	line = []rune("solve nose")
	matches, n = c.Do(line, len(line))
	is.Equal(n, 4)
	is.Equal(matches, [][]rune{[]rune("pass")})

	line = []rune("solve nosepass en")
	matches, _ = c.Do(line, len(line))
	is.Equal(matches, [][]rune{[]rune("dure")})

	line = []rune("solve -format ")
	matches, _ = c.Do(line, len(line))
	is.Equal(len(matches), 3)
}
