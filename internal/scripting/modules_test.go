package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/overstack/internal/scripting"
)

func TestEngineLog_AllLevels(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.LoadSource("logger", `
		function do_all_logs()
			engine.log.debug("d")
			engine.log.info("i")
			engine.log.warn("w")
			engine.log.error("e")
		end
	`))
	_, err := mgr.Call("logger", "do_all_logs", 0)
	require.NoError(t, err)

	levels := map[string]bool{}
	for _, e := range logs.All() {
		levels[e.Level.String()] = true
		assert.Equal(t, "logger", e.ContextMap()["script"])
	}
	assert.True(t, levels["debug"], "expected debug log")
	assert.True(t, levels["info"], "expected info log")
	assert.True(t, levels["warn"], "expected warn log")
	assert.True(t, levels["error"], "expected error log")
}

func TestEngineLog_RespectsLoggerLevel(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	mgr := newManagerWithCore(core)
	defer mgr.Close()
	require.NoError(t, mgr.LoadSource("quiet", `function f() engine.log.info("hidden") end`))
	_, err := mgr.Call("quiet", "f", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, logs.Len())
}

func TestEngineSkills_ExposesSlotNames(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.SkillNames = []string{"Ember Lash", "Frost Bite"}
	require.NoError(t, mgr.LoadSource("skills", `
		function second() return engine.skills[2], engine.slot_count end
	`))
	ret, err := mgr.Call("skills", "second", 2)
	require.NoError(t, err)
	assert.Equal(t, []lua.LValue{lua.LString("Frost Bite"), lua.LNumber(2)}, ret)
}

func newManagerWithCore(core zapcore.Core) *scripting.Manager {
	return scripting.NewManager(0, zap.New(core))
}
