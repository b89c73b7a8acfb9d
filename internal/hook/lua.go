package hook

import (
	"context"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// luaLibs are the only standard libraries a hook can reach.
var luaLibs = []struct {
	name string
	open lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// runLua runs a Lua hook. print writes to the hook's stdout and error()
// fails the hook.
func runLua(ctx context.Context, h Hook, env []string) Result {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	L.SetContext(ctx)

	for _, lib := range luaLibs {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}

	var stdout strings.Builder
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		for i := 1; i <= n; i++ {
			if i > 1 {
				stdout.WriteByte('\t')
			}
			stdout.WriteString(L.ToStringMeta(L.Get(i)).String())
		}
		stdout.WriteByte('\n')
		return 0
	}))

	tbl := L.NewTable()
	for _, kv := range env {
		k, v, _ := strings.Cut(kv, "=")
		tbl.RawSetString(k, lua.LString(v))
	}
	L.SetGlobal("env", tbl)

	res := Result{}
	if err := L.DoFile(h.Script); err != nil {
		res.ExitCode = 1
		res.Stderr = err.Error()
		res.Err = fmt.Errorf("%w: %v", ErrHookFailed, err)
	}
	res.Stdout = stdout.String()
	return res
}
