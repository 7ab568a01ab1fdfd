package shell

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cjoudrey/gluahttp"
	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"

	"github.com/eggmove/eggmove/reducer"
)

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("eggmove_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

// pushJSON pushes v decoded into a Lua table, or nil and an error string.
func pushJSON(L *lua.LState, v any) int {
	data, err := json.Marshal(v)
	if err == nil {
		var lv lua.LValue
		if lv, err = luajson.Decode(L, data); err == nil {
			L.Push(lv)
			return 1
		}
	}
	L.Push(lua.LNil)
	L.Push(lua.LString(err.Error()))
	return 2
}

func pushError(L *lua.LState, what string, err error) int {
	log.Err(err).Msg("error-executing-" + what)
	L.Push(lua.LNil)
	L.Push(lua.LString(err.Error()))
	return 2
}

// Load takes a snapshot location. It returns true, or nil and an error.
func Load(L *lua.LState) int {
	sc := getShell(L)
	if err := sc.loadSnapshot(L.ToString(1), false); err != nil {
		return pushError(L, "load", err)
	}
	L.Push(lua.LTrue)
	return 1
}

// Solve takes a pokemon, move and version group and returns the result
// document as a table.
func Solve(L *lua.LState) int {
	sc := getShell(L)
	eng, err := sc.getEngine()
	if err != nil {
		return pushError(L, "solve", err)
	}
	q := reducer.Query{Pokemon: L.CheckString(1), Move: L.CheckString(2), VersionGroup: L.CheckString(3)}
	out, err := eng.Solve(context.Background(), q)
	if err != nil {
		return pushError(L, "solve", err)
	}
	return pushJSON(L, out.Document())
}

// Survey takes a move and version group and returns the survey report.
func Survey(L *lua.LState) int {
	sc := getShell(L)
	eng, err := sc.getEngine()
	if err != nil {
		return pushError(L, "survey", err)
	}
	rep, err := eng.Survey(context.Background(), L.CheckString(1), L.CheckString(2))
	if err != nil {
		return pushError(L, "survey", err)
	}
	return pushJSON(L, rep)
}

func Set(L *lua.LState) int {
	sc := getShell(L)
	r, err := sc.set(&shellcmd{
		cmd:  "set",
		args: strings.Fields(L.ToString(1)),
	})
	if err != nil {
		return pushError(L, "set", err)
	}
	L.Push(lua.LString(r.message))
	return 1
}

// Print replaces the Lua print so script output goes where shell output
// goes.
func Print(L *lua.LState) int {
	sc := getShell(L)
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	showMessage(strings.Join(parts, "\t"), sc.out)
	return 0
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, usageError("script <file.lua>")
	}
	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()
	luajson.Preload(L)
	L.PreloadModule("http", gluahttp.NewHttpModule(&http.Client{}).Loader)

	lsc := L.NewUserData()
	lsc.Value = sc

	L.SetGlobal("eggmove_shell", lsc)
	L.SetGlobal("eggmove_load", L.NewFunction(Load))
	L.SetGlobal("eggmove_solve", L.NewFunction(Solve))
	L.SetGlobal("eggmove_survey", L.NewFunction(Survey))
	L.SetGlobal("eggmove_set", L.NewFunction(Set))
	L.SetGlobal("print", L.NewFunction(Print))

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Msg("script-failed")
		return nil, err
	}
	return nil, nil
}
