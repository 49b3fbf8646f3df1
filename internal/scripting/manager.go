package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ErrUnknownScript is returned by Call for a script name that was never loaded.
var ErrUnknownScript = errors.New("scripting: unknown script")

type vm struct {
	mu sync.Mutex
	L  *lua.LState
}

// Manager owns one sandboxed LState per loaded script and dispatches calls to
// global functions defined by those scripts.
//
// Manager is safe for concurrent use. Calls into the same script are
// serialised; different scripts run concurrently.
type Manager struct {
	mu        sync.RWMutex
	states    map[string]*vm
	instLimit int
	logger    *zap.Logger

	// SkillNames is exposed to scripts as engine.skills (1-based, slot 0 first).
	// Set before loading scripts.
	SkillNames []string
}

// NewManager creates a Manager whose calls are limited to instLimit opcodes
// each (0 uses DefaultInstructionLimit).
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no scripts loaded.
func NewManager(instLimit int, logger *zap.Logger) *Manager {
	if logger == nil {
		panic("scripting.NewManager: precondition violated: logger must be non-nil")
	}
	return &Manager{
		states:    make(map[string]*vm),
		instLimit: instLimit,
		logger:    logger,
	}
}

// LoadSource creates a VM named name and executes src in it, replacing any
// previously loaded script of the same name.
//
// Precondition: name must be non-empty.
// Postcondition: Returns an error if src fails to compile or run.
func (m *Manager) LoadSource(name, src string) error {
	L := NewSandboxedState()
	m.RegisterModules(L, name)
	if err := WithBudget(L, m.instLimit, func() error { return L.DoString(src) }); err != nil {
		L.Close()
		return fmt.Errorf("scripting: loading %q: %w", name, err)
	}
	m.install(name, L)
	return nil
}

// LoadFile loads the script at path under name.
//
// Precondition: path must be a readable file.
func (m *Manager) LoadFile(name, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("scripting: reading %q: %w", path, err)
	}
	return m.LoadSource(name, string(src))
}

// LoadDir loads every *.lua file in dir, in lexicographic order, each under
// its base name without extension.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns the loaded names, or an error on the first failure.
func (m *Manager) LoadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	names := make([]string, 0, len(files))
	for _, f := range files {
		name := strings.TrimSuffix(f, ".lua")
		if err := m.LoadFile(name, filepath.Join(dir, f)); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func (m *Manager) install(name string, L *lua.LState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.states[name]; ok {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	m.states[name] = &vm{L: L}
}

// Has reports whether a script named name is loaded.
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.states[name]
	return ok
}

// Call invokes the global function fn in script name with args converted by
// ToLua, returning nret results. A missing function returns nil results.
// Lua runtime errors, including an exhausted instruction budget, are logged at
// Warn level and also yield nil results.
//
// Postcondition: Returns an error wrapping ErrUnknownScript only when name is
// not loaded; otherwise len(results) is 0 or nret.
func (m *Manager) Call(name, fn string, nret int, args ...any) ([]lua.LValue, error) {
	m.mu.RLock()
	v, ok := m.states[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownScript, name)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	L := v.L

	f := L.GetGlobal(fn)
	if f.Type() != lua.LTFunction {
		return nil, nil
	}
	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = ToLua(L, a)
	}

	top := L.GetTop()
	err := WithBudget(L, m.instLimit, func() error {
		return L.CallByParam(lua.P{Fn: f, NRet: nret, Protect: true}, largs...)
	})
	if err != nil {
		L.SetTop(top)
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("script", name),
			zap.String("function", fn),
			zap.Error(err),
		)
		return nil, nil
	}

	out := make([]lua.LValue, nret)
	for i := 0; i < nret; i++ {
		out[i] = L.Get(top + 1 + i)
	}
	L.SetTop(top)
	return out, nil
}

// Close releases every loaded VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, v := range m.states {
		v.mu.Lock()
		v.L.Close()
		v.mu.Unlock()
		delete(m.states, name)
	}
}
