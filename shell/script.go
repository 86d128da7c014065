package shell

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cjoudrey/gluahttp"
	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("morris_shell")
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

// scriptCommands are the shell commands exposed to lua, each as a
// global morris_<name> function taking one argument string.
var scriptCommands = []string{
	"new", "show", "move", "position", "undo", "solve",
	"sim", "play", "autoplay", "set", "options", "seeds",
}

// luaCommand adapts one shell command into a lua function. The
// function takes the rest of the command line as a single string and
// returns the response text, or an ERROR: string.
func luaCommand(name string) lua.LGFunction {
	return func(L *lua.LState) int {
		lv := L.ToString(1)
		sc := getShell(L)
		cmd, err := extractFields(strings.TrimSpace(name + " " + lv))
		if err != nil {
			log.Err(err).Str("command", name).Msg("error-parsing-script-command")
			L.Push(lua.LString("ERROR: " + err.Error()))
			return 1
		}
		r, err := sc.executeCommand(cmd)
		if err != nil {
			log.Err(err).Str("command", name).Msg("error-executing-script-command")
			L.Push(lua.LString("ERROR: " + err.Error()))
			return 1
		}
		if r == nil {
			return 0
		}
		L.Push(lua.LString(r.message))
		return 1
	}
}

// Busy lets scripts poll for a background sim or autoplay to finish.
func Busy(L *lua.LState) int {
	sc := getShell(L)
	L.Push(lua.LBool(sc.busy()))
	return 1
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need the name of a script to run")
	}
	scriptPath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()
	luajson.Preload(L)
	L.PreloadModule("http", gluahttp.NewHttpModule(&http.Client{}).Loader)

	lsc := L.NewUserData()
	lsc.Value = sc
	L.SetGlobal("morris_shell", lsc)
	L.SetGlobal("morris_busy", L.NewFunction(Busy))
	for _, name := range scriptCommands {
		L.SetGlobal("morris_"+name, L.NewFunction(luaCommand(name)))
	}

	if err := L.DoFile(scriptPath); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return nil, nil
}
