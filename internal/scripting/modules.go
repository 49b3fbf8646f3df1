package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RegisterModules installs the engine global into L:
//   - engine.log.debug/info/warn/error(msg) write to the manager's logger
//   - engine.skills is the array of skill names by slot
//   - engine.slot_count is the number of skill slots
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState, script string) {
	engine := L.NewTable()

	logger := m.logger.With(zap.String("script", script))
	logTbl := L.NewTable()
	for name, level := range map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	} {
		lvl := level
		logTbl.RawSetString(name, L.NewFunction(func(L *lua.LState) int {
			if ce := logger.Check(lvl, L.CheckString(1)); ce != nil {
				ce.Write()
			}
			return 0
		}))
	}
	engine.RawSetString("log", logTbl)
	engine.RawSetString("skills", ToLua(L, m.SkillNames))
	engine.RawSetString("slot_count", lua.LNumber(len(m.SkillNames)))

	L.SetGlobal("engine", engine)
}
