package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/move"
)

// effectFunc applies one move effect from user to recipient.
type effectFunc func(s *Session, user, recipient *Combatant, spec move.EffectSpec)

var effectFuncs = map[string]effectFunc{
	move.EffectDamage:   applyDamage,
	move.EffectHeal:     applyHeal,
	move.EffectFatigue:  applyFatigue,
	move.EffectStatus:   applyStatusEffect,
	move.EffectHeat:     applyHeat,
	move.EffectDistance: applyDistance,
}

// resolve applies m's effects at the CASTING → RESOLVING boundary. A user or
// target that has left the encounter or died turns the resolution into a no-op.
func (s *Session) resolve(user *Combatant, m *move.Move) {
	if !user.Alive() || s.Combatant(user.ID()) == nil {
		s.logger.Debug("move user gone", zap.String("user", user.ID()), zap.String("move", m.Def.ID))
		return
	}
	target := s.Combatant(m.Target())
	if target == nil || !target.Alive() {
		s.logger.Debug("move target gone", zap.String("target", m.Target()), zap.String("move", m.Def.ID))
		s.presenter.Narrate(fmt.Sprintf("%s's %s finds no target.", user.Name(), m.Def.Name))
		return
	}

	s.presenter.Narrate(fmt.Sprintf("%s uses %s.", user.Name(), m.Def.Name))
	for _, spec := range m.Def.Effects {
		recipient := target
		if spec.Self {
			recipient = user
		}
		if !recipient.Alive() {
			continue
		}
		if fn, ok := effectFuncs[spec.Kind]; ok {
			fn(s, user, recipient, spec)
		}
	}
	if m.Def.LuaOnResolve != "" {
		s.runScript(func(b scriptBindings) {
			s.scripts.MoveHook(b, m.Def.LuaOnResolve, user.ID(), target.ID(), m.Def.ID)
		})
	}
}

func (s *Session) roll(expr string) (int, bool) {
	res, err := s.roller.RollExpr(expr)
	if err != nil {
		s.logger.Debug("bad effect amount", zap.String("amount", expr), zap.Error(err))
		return 0, false
	}
	return res.Total(), true
}

// applyDamage scales the roll by heat, subtracts protection, then applies resistance.
func applyDamage(s *Session, _ *Combatant, recipient *Combatant, spec move.EffectSpec) {
	rolled, ok := s.roll(spec.Amount)
	if !ok {
		return
	}
	amount := max(0, s.heat.Scale(rolled)-recipient.Protection)
	lost := recipient.TakeDamage(amount, spec.Element)
	if spec.Element != "" {
		s.presenter.Narrate(fmt.Sprintf("%s takes %d %s damage.", recipient.Name(), lost, spec.Element))
	} else {
		s.presenter.Narrate(fmt.Sprintf("%s takes %d damage.", recipient.Name(), lost))
	}
}

func applyHeal(s *Session, _ *Combatant, recipient *Combatant, spec move.EffectSpec) {
	rolled, ok := s.roll(spec.Amount)
	if !ok {
		return
	}
	gained := recipient.Heal(rolled)
	s.presenter.Narrate(fmt.Sprintf("%s recovers %d HP.", recipient.Name(), gained))
}

// applyFatigue drains a positive roll and restores a negative one.
func applyFatigue(s *Session, _ *Combatant, recipient *Combatant, spec move.EffectSpec) {
	rolled, ok := s.roll(spec.Amount)
	if !ok {
		return
	}
	if rolled >= 0 {
		recipient.DrainFatigue(rolled)
		return
	}
	recipient.RestoreFatigue(-rolled)
}

func applyStatusEffect(s *Session, user, recipient *Combatant, spec move.EffectSpec) {
	if err := s.ApplyStatus(recipient.ID(), spec.Status, user.ID()); err != nil {
		s.logger.Debug("status effect skipped", zap.Error(err))
	}
}

func applyHeat(s *Session, _ *Combatant, _ *Combatant, spec move.EffectSpec) {
	s.ChangeHeat(spec.HeatMultiplier(), spec.Add)
}

// applyDistance shifts the user/recipient distance; negative deltas close in.
func applyDistance(s *Session, user, recipient *Combatant, spec move.EffectSpec) {
	d, ok := s.prox.Shift(user.ID(), recipient.ID(), spec.Delta)
	if !ok {
		s.logger.Debug("distance effect on unknown pair",
			zap.String("user", user.ID()),
			zap.String("target", recipient.ID()),
		)
		return
	}
	verb := "closes on"
	if spec.Delta > 0 {
		verb = "backs away from"
	}
	s.presenter.Narrate(fmt.Sprintf("%s %s %s (%.1f).", user.Name(), verb, recipient.Name(), d))
}
