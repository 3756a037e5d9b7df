package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine.log, engine.dice and engine.combat
// tables into L. engine.combat calls are no-ops outside a hook call.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.newLogModule(L))
	L.SetField(engine, "dice", m.newDiceModule(L))
	L.SetField(engine, "combat", m.newCombatModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) newLogModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, fn := range levels {
		fn := fn
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	return mod
}

// engine.dice.roll(expr) returns {total, dice, modifier} where dice is the
// sum of the rolled dice.
func (m *Manager) newDiceModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "roll", L.NewFunction(func(L *lua.LState) int {
		res, err := m.roller.RollExpr(L.CheckString(1))
		if err != nil {
			L.RaiseError("engine.dice.roll: %s", err.Error())
			return 0
		}
		sum := 0
		for _, d := range res.Dice {
			sum += d
		}
		t := L.NewTable()
		L.SetField(t, "total", lua.LNumber(res.Total()))
		L.SetField(t, "dice", lua.LNumber(sum))
		L.SetField(t, "modifier", lua.LNumber(res.Modifier))
		L.Push(t)
		return 1
	}))
	return mod
}

func (m *Manager) newCombatModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	fns := map[string]lua.LGFunction{
		"query": func(L *lua.LState) int {
			if m.bindings == nil {
				L.Push(lua.LNil)
				return 1
			}
			info, ok := m.bindings.Query(L.CheckString(1))
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(combatantTable(L, info))
			return 1
		},
		"damage": func(L *lua.LState) int {
			id, amount, element := L.CheckString(1), L.CheckInt(2), L.OptString(3, "")
			lost := 0
			if m.bindings != nil {
				lost = m.bindings.Damage(id, amount, element)
			}
			L.Push(lua.LNumber(lost))
			return 1
		},
		"heal": func(L *lua.LState) int {
			id, amount := L.CheckString(1), L.CheckInt(2)
			gained := 0
			if m.bindings != nil {
				gained = m.bindings.Heal(id, amount)
			}
			L.Push(lua.LNumber(gained))
			return 1
		},
		"apply_status": func(L *lua.LState) int {
			id, statusID, source := L.CheckString(1), L.CheckString(2), L.OptString(3, "")
			if m.bindings == nil {
				L.Push(lua.LFalse)
				return 1
			}
			if err := m.bindings.ApplyStatus(id, statusID, source); err != nil {
				m.logger.Debug("engine.combat.apply_status failed", zap.Error(err))
				L.Push(lua.LFalse)
				return 1
			}
			L.Push(lua.LTrue)
			return 1
		},
		"heat": func(L *lua.LState) int {
			if m.bindings == nil {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LNumber(m.bindings.Heat()))
			return 1
		},
		"heat_change": func(L *lua.LState) int {
			mult, add := float64(L.OptNumber(1, 1)), float64(L.OptNumber(2, 0))
			if m.bindings == nil {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LNumber(m.bindings.ChangeHeat(mult, add)))
			return 1
		},
		"narrate": func(L *lua.LState) int {
			msg := L.CheckString(1)
			if m.bindings != nil {
				m.bindings.Narrate(msg)
			}
			return 0
		},
	}
	for name, fn := range fns {
		L.SetField(mod, name, L.NewFunction(fn))
	}
	return mod
}

func combatantTable(L *lua.LState, info CombatantInfo) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "id", lua.LString(info.ID))
	L.SetField(t, "name", lua.LString(info.Name))
	L.SetField(t, "side", lua.LString(info.Side))
	L.SetField(t, "hp", lua.LNumber(info.HP))
	L.SetField(t, "max_hp", lua.LNumber(info.MaxHP))
	L.SetField(t, "fatigue", lua.LNumber(info.Fatigue))
	L.SetField(t, "max_fatigue", lua.LNumber(info.MaxFatigue))
	statuses := L.NewTable()
	for _, s := range info.Statuses {
		statuses.Append(lua.LString(s))
	}
	L.SetField(t, "statuses", statuses)
	return t
}
