package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/status"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

// runScript invokes fn with bindings for s. Hooks triggered from inside a
// running hook are dropped, since the script manager serialises calls.
func (s *Session) runScript(fn func(b scriptBindings)) {
	if s.scripts == nil {
		return
	}
	if s.inScript {
		s.logger.Debug("nested script hook dropped")
		return
	}
	s.inScript = true
	defer func() { s.inScript = false }()
	fn(scriptBindings{s: s})
}

// scriptBindings exposes the session to Lua through scripting.Bindings.
type scriptBindings struct {
	s *Session
}

func (b scriptBindings) Query(id string) (scripting.CombatantInfo, bool) {
	c := b.s.Combatant(id)
	if c == nil {
		return scripting.CombatantInfo{}, false
	}
	return scripting.CombatantInfo{
		ID:         c.ID(),
		Name:       c.Name(),
		Side:       c.Side.String(),
		HP:         c.HP,
		MaxHP:      c.MaxHP,
		Fatigue:    c.Fatigue,
		MaxFatigue: c.MaxFatigue,
		Statuses:   c.Statuses.Visible(),
	}, true
}

func (b scriptBindings) Damage(id string, amount int, element string) int {
	c := b.s.Combatant(id)
	if c == nil || !c.Alive() {
		return 0
	}
	return c.TakeDamage(amount, element)
}

func (b scriptBindings) Heal(id string, amount int) int {
	c := b.s.Combatant(id)
	if c == nil {
		return 0
	}
	return c.Heal(amount)
}

func (b scriptBindings) ApplyStatus(id, statusID, source string) error {
	return b.s.ApplyStatus(id, statusID, source)
}

func (b scriptBindings) Heat() float64 { return b.s.heat.Value() }

func (b scriptBindings) ChangeHeat(multiplier, add float64) float64 {
	return b.s.ChangeHeat(multiplier, add)
}

func (b scriptBindings) Narrate(msg string) { b.s.presenter.Narrate(msg) }

// statusHooks routes status lifecycle hooks to the script manager.
type statusHooks struct {
	s *Session
}

// StatusHook implements status.Hooks.
func (h statusHooks) StatusHook(hook string, e *status.Effect, t status.Target) {
	h.s.runScript(func(b scriptBindings) {
		h.s.logger.Debug("status hook", zap.String("hook", hook), zap.String("target", t.ID()))
		h.s.scripts.StatusHook(b, hook, t.ID(), e.ID(), e.Intensity, e.Source)
	})
}
