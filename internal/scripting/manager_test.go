package scripting_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/overstack/internal/scripting"
)

func newTestManager(t testing.TB) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(0, zap.New(core))
	t.Cleanup(mgr.Close)
	return mgr, logs
}

func writeTempLua(t testing.TB, filename, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(src), 0644))
	return dir
}

func TestManager_LoadSource_CallsFunction(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadSource("adder", `
		function add(a, b)
			return a + b, a * b
		end
	`))
	ret, err := mgr.Call("adder", "add", 2, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, []lua.LValue{lua.LNumber(7), lua.LNumber(12)}, ret)
}

func TestManager_Call_MissingFunction_NoOp(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadSource("empty", `-- no functions`))
	ret, err := mgr.Call("empty", "nonexistent", 1)
	require.NoError(t, err)
	assert.Nil(t, ret)
}

func TestManager_Call_UnknownScript(t *testing.T) {
	mgr, _ := newTestManager(t)
	_, err := mgr.Call("missing", "choose_action", 2)
	assert.ErrorIs(t, err, scripting.ErrUnknownScript)
}

func TestManager_Call_RuntimeError_WarnLogNoPanic(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.LoadSource("bad", `
		function bad_hook()
			error("intentional error")
		end
		function ok() return 1 end
	`))
	ret, err := mgr.Call("bad", "bad_hook", 1)
	require.NoError(t, err)
	assert.Nil(t, ret)
	assert.Equal(t, 1, logs.FilterMessage("scripting: Lua runtime error").Len())

	// The VM stays usable after a failed call.
	ret, err = mgr.Call("bad", "ok", 1)
	require.NoError(t, err)
	assert.Equal(t, []lua.LValue{lua.LNumber(1)}, ret)
}

func TestManager_Call_BudgetIsPerCall(t *testing.T) {
	core, _ := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(200, zap.New(core))
	defer mgr.Close()
	require.NoError(t, mgr.LoadSource("loop", `
		function spin(n)
			local s = 0
			for i = 1, n do s = s + i end
			return s
		end
	`))
	for i := 0; i < 50; i++ {
		ret, err := mgr.Call("loop", "spin", 1, 10)
		require.NoError(t, err)
		require.Equal(t, []lua.LValue{lua.LNumber(55)}, ret, "call %d", i)
	}
	ret, err := mgr.Call("loop", "spin", 1, 100000)
	require.NoError(t, err)
	assert.Nil(t, ret)
}

func TestManager_Call_ConvertsTables(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadSource("tables", `
		function describe(state)
			return state.player.hp .. "/" .. state.player.max_hp .. ":" .. #state.player.statuses .. ":" .. state.player.statuses[1].type
		end
	`))
	state := map[string]any{
		"player": map[string]any{
			"hp":     120.5,
			"max_hp": 140,
			"statuses": []any{
				map[string]any{"type": "Haste", "stacks": uint32(1)},
			},
		},
	}
	ret, err := mgr.Call("tables", "describe", 1, state)
	require.NoError(t, err)
	assert.Equal(t, []lua.LValue{lua.LString("120.5/140:1:Haste")}, ret)
}

func TestManager_LoadSource_InvalidLua_ReturnsError(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.Error(t, mgr.LoadSource("broken", `this is not valid lua @@@@`))
	assert.False(t, mgr.Has("broken"))
}

func TestManager_LoadDir_NamesByFile(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_policy.lua"), []byte(`function id() return "b" end`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_policy.lua"), []byte(`function id() return "a" end`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`ignored`), 0644))

	names, err := mgr.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a_policy", "b_policy"}, names)

	ret, err := mgr.Call("b_policy", "id", 1)
	require.NoError(t, err)
	assert.Equal(t, []lua.LValue{lua.LString("b")}, ret)
}

func TestManager_LoadFile_MissingFile(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.Error(t, mgr.LoadFile("x", filepath.Join(t.TempDir(), "nope.lua")))
}

func TestManager_Close_ReleasesScripts(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "init.lua", `function get_x() return 1 end`)
	require.NoError(t, mgr.LoadFile("closer", filepath.Join(dir, "init.lua")))
	mgr.Close()
	_, err := mgr.Call("closer", "get_x", 1)
	assert.ErrorIs(t, err, scripting.ErrUnknownScript)
}

func TestNewManager_PanicsOnNilLogger(t *testing.T) {
	assert.Panics(t, func() {
		scripting.NewManager(0, nil)
	})
}

func TestProperty_CallConcurrentSameScript_NoRace(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadSource("conc", `
		function concurrent_hook(a, b)
			return a + b
		end
	`))

	const goroutines = 10
	const callsEach = 5
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsEach; j++ {
				ret, err := mgr.Call("conc", "concurrent_hook", 1, 1, 2)
				assert.NoError(t, err)
				assert.Equal(t, []lua.LValue{lua.LNumber(3)}, ret)
			}
		}()
	}
	wg.Wait()
}

func TestProperty_CallUnknownScriptNeverPanics(t *testing.T) {
	mgr, _ := newTestManager(t)
	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "name")
		fn := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "fn")
		if _, err := mgr.Call(name, fn, 1); err == nil {
			rt.Fatalf("expected error for unknown script %q", name)
		}
	})
}
