package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// CombatantInfo is a snapshot of a combatant's state passed to Lua callbacks.
type CombatantInfo struct {
	ID         string
	Name       string
	Side       string
	HP         int
	MaxHP      int
	Fatigue    int
	MaxFatigue int
	Statuses   []string
}

// Bindings is the game surface the engine.combat module calls into. The
// active session supplies it for the duration of one hook call.
type Bindings interface {
	Query(id string) (CombatantInfo, bool)
	// Damage applies element damage to id and returns the HP lost.
	Damage(id string, amount int, element string) int
	// Heal restores HP to id and returns the HP gained.
	Heal(id string, amount int) int
	ApplyStatus(id, statusID, source string) error
	Heat() float64
	ChangeHeat(multiplier, add float64) float64
	Narrate(msg string)
}

// Manager owns one sandboxed LState and dispatches named hooks into it.
//
// Manager is safe for concurrent use. Calls are serialised because the
// bindings are swapped per call.
type Manager struct {
	mu        sync.Mutex
	L         *lua.LState
	instLimit int
	roller    *dice.Roller
	logger    *zap.Logger
	bindings  Bindings
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager; CallHook is a no-op until Load succeeds.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{roller: roller, logger: logger}
}

// Load creates a sandboxed VM, registers the engine.* modules, then executes
// every *.lua file in scriptDir in lexicographic order. A previously loaded VM
// is replaced only when the new one loads cleanly.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: returns an error naming the first file that fails to load.
func (m *Manager) Load(scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)
	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}
	cancel()
	L.RemoveContext()

	m.mu.Lock()
	if m.L != nil {
		m.L.Close()
	}
	m.L = L
	m.instLimit = instLimit
	m.mu.Unlock()

	m.logger.Info("scripts loaded",
		zap.String("dir", scriptDir),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// Close releases the VM. Later CallHook calls are no-ops.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L != nil {
		m.L.Close()
		m.L = nil
	}
}

// CallHook calls the named Lua global function with b bound as the game
// surface. Returns (LNil, nil) if no VM is loaded or the hook is not defined.
// Lua runtime errors, including an exhausted instruction budget, are logged at
// Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances; b may be nil.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(b Bindings, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.L == nil {
		m.logger.Debug("scripting: no VM loaded", zap.String("hook", hook))
		return lua.LNil, nil
	}
	fn := m.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	m.bindings = b
	cancel := Arm(m.L, m.instLimit)
	defer func() {
		cancel()
		m.L.RemoveContext()
		m.bindings = nil
	}()

	if err := m.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := m.L.Get(-1)
	m.L.Pop(1)
	return ret, nil
}

// StatusHook fires a status lifecycle hook as hook(target_id, status_id, intensity, source_id).
func (m *Manager) StatusHook(b Bindings, hook, targetID, statusID string, intensity float64, sourceID string) {
	_, _ = m.CallHook(b, hook,
		lua.LString(targetID),
		lua.LString(statusID),
		lua.LNumber(intensity),
		lua.LString(sourceID),
	)
}

// MoveHook fires a move resolution hook as hook(user_id, target_id, move_id).
func (m *Manager) MoveHook(b Bindings, hook, userID, targetID, moveID string) {
	_, _ = m.CallHook(b, hook,
		lua.LString(userID),
		lua.LString(targetID),
		lua.LString(moveID),
	)
}
