package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/taktiks/internal/game/dice"
)

// UnitInfo is a snapshot of a unit passed to Lua hooks as a table.
type UnitInfo struct {
	ID        string
	Name      string
	Seat      int
	Life      int
	FullLife  int
	Mana      int
	FullMana  int
	Strength  int
	Agility   int
	Vitality  int
	Magic     int
	Dexterity int
}

// HookCall describes one effect hook invocation. Target may be nil when the command
// was aimed at empty ground.
type HookCall struct {
	Hook    string
	Command string
	Actor   *UnitInfo
	Target  *UnitInfo
	Amount  int
}

// Manager owns one sandboxed VM holding every loaded hook script.
//
// An LState is single-threaded, so every call into the VM holds mu.
type Manager struct {
	mu     sync.Mutex
	L      *lua.LState
	limit  int
	roller *dice.Roller
	logger *zap.Logger
}

// NewManager creates a Manager with an empty VM and the engine.* module registered.
//
// Precondition: roller and logger must be non-nil; limit >= 0 (0 selects the default).
// Postcondition: Returns a Manager whose VM has no hooks defined.
func NewManager(roller *dice.Roller, logger *zap.Logger, limit int) *Manager {
	m := &Manager{
		L:      NewSandboxedState(),
		limit:  limit,
		roller: roller,
		logger: logger.Named("scripting"),
	}
	m.registerModules(m.L)
	return m
}

// LoadDir executes every *.lua file in dir in lexicographic order.
//
// Precondition: dir must be a readable directory.
// Postcondition: Hooks defined by the files are callable; returns the first load error.
func (m *Manager) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, path := range luaFiles {
		if err := limited(m.L, m.limit, func() error { return m.L.DoFile(path) }); err != nil {
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}
	m.logger.Info("loaded scripts", zap.String("dir", dir), zap.Int("files", len(luaFiles)))
	return nil
}

// LoadString executes src under name.
func (m *Manager) LoadString(name, src string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := limited(m.L, m.limit, func() error { return m.L.DoString(src) }); err != nil {
		return fmt.Errorf("scripting: loading %q: %w", name, err)
	}
	return nil
}

// HasHook reports whether a global function named hook is defined.
func (m *Manager) HasHook(hook string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.L.GetGlobal(hook).(*lua.LFunction)
	return ok
}

// CallHook calls the named Lua global function. Returns (LNil, nil) if the hook is not
// defined. Lua runtime errors, including budget exhaustion, are logged at Warn level and
// never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.call(hook, args...), nil
}

func (m *Manager) call(hook string, args ...lua.LValue) lua.LValue {
	fn := m.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil
	}

	err := limited(m.L, m.limit, func() error {
		return m.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...)
	})
	if err != nil {
		m.logger.Warn("Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil
	}

	ret := m.L.Get(-1)
	m.L.Pop(1)
	return ret
}

// ResolveAmount calls c.Hook as hook(actor, target, amount, command) and returns the
// number it yields. A missing hook, a failing hook, or a non-numeric result leaves the
// amount unchanged.
//
// Postcondition: ok is true iff the hook returned a number.
func (m *Manager) ResolveAmount(c HookCall) (amount int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ret := m.call(c.Hook,
		unitTable(m.L, c.Actor),
		unitTable(m.L, c.Target),
		lua.LNumber(c.Amount),
		lua.LString(c.Command),
	)
	n, isNum := ret.(lua.LNumber)
	if !isNum {
		return c.Amount, false
	}
	return int(n), true
}

// Close releases the VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.L.Close()
}

func unitTable(L *lua.LState, u *UnitInfo) lua.LValue {
	if u == nil {
		return lua.LNil
	}
	t := L.NewTable()
	t.RawSetString("id", lua.LString(u.ID))
	t.RawSetString("name", lua.LString(u.Name))
	t.RawSetString("seat", lua.LNumber(u.Seat))
	t.RawSetString("life", lua.LNumber(u.Life))
	t.RawSetString("full_life", lua.LNumber(u.FullLife))
	t.RawSetString("mana", lua.LNumber(u.Mana))
	t.RawSetString("full_mana", lua.LNumber(u.FullMana))
	t.RawSetString("strength", lua.LNumber(u.Strength))
	t.RawSetString("agility", lua.LNumber(u.Agility))
	t.RawSetString("vitality", lua.LNumber(u.Vitality))
	t.RawSetString("magic", lua.LNumber(u.Magic))
	t.RawSetString("dexterity", lua.LNumber(u.Dexterity))
	return t
}
