package status

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Hooks dispatches a named script hook for an effect. Implementations must not panic.
type Hooks interface {
	StatusHook(hook string, e *Effect, t Target)
}

// Set tracks every effect applied to one combatant.
// It is not safe for concurrent use; the caller must serialise access.
//
// Invariant: at most one attached effect per ID whose Def is compounding.
type Set struct {
	effects []*Effect
	hooks   Hooks
	logger  *zap.Logger
}

// NewSet creates an empty Set. hooks may be nil.
//
// Precondition: logger must be non-nil.
func NewSet(hooks Hooks, logger *zap.Logger) *Set {
	return &Set{hooks: hooks, logger: logger}
}

// SetHooks replaces the script hook dispatcher. nil disables scripted hooks.
func (s *Set) SetHooks(h Hooks) { s.hooks = h }

// Apply attaches def to t. A compounding def already present on the set is
// compounded in place and returned with compounded == true; otherwise a new
// effect is created and its application hooks run.
//
// Precondition: def and t must not be nil.
// Postcondition: on success, Has(def.ID) is true.
func (s *Set) Apply(def *Def, t Target, source string) (e *Effect, compounded bool, err error) {
	if def == nil {
		return nil, false, fmt.Errorf("status: Apply: def must not be nil")
	}
	if t == nil {
		return nil, false, fmt.Errorf("status: Apply %q: target must not be nil", def.ID)
	}
	if def.Compounding {
		if existing := s.Get(def.ID); existing != nil {
			existing.Compound()
			s.logger.Debug("status compounded",
				zap.String("status", def.ID),
				zap.String("target", t.ID()),
				zap.Int("beats_max", existing.BeatsMax),
				zap.Int("steps_max", existing.StepsMax),
			)
			return existing, true, nil
		}
	}

	e = newEffect(def, source)
	s.effects = append(s.effects, e)
	BehaviorFor(def.Kind).OnApplication(e, t)
	s.hook(def.LuaOnApply, e, t)
	s.logger.Debug("status applied",
		zap.String("status", def.ID),
		zap.String("target", t.ID()),
		zap.String("source", source),
	)
	return e, false, nil
}

// Process ticks every attached effect once under exactly one regime: the combat
// regime when t is in combat, the world regime otherwise. Effects not enabled for
// the current regime are skipped silently. After the tick the regime's counter
// decrements and effects reaching zero are removed.
//
// Postcondition: returns the effects removed during this pass.
func (s *Set) Process(t Target) []*Effect {
	if t == nil {
		return nil
	}
	var expired []*Effect
	inCombat := t.InCombat()
	for _, e := range s.All() {
		if e.removed {
			continue
		}
		// a tick earlier in this pass may have killed the owner
		if !t.Alive() {
			break
		}
		if inCombat {
			if !e.Def.Combat {
				continue
			}
			s.tick(e, t)
			e.BeatsLeft--
			if e.BeatsLeft <= 0 {
				s.detach(e, t)
				expired = append(expired, e)
			}
			continue
		}
		if !e.Def.World {
			continue
		}
		s.tick(e, t)
		e.StepsLeft--
		if e.StepsLeft <= 0 {
			s.detach(e, t)
			expired = append(expired, e)
		}
	}
	return expired
}

func (s *Set) tick(e *Effect, t Target) {
	BehaviorFor(e.Def.Kind).Tick(e, t)
	s.hook(e.Def.LuaOnTick, e, t)
}

// detach removes e exactly once, running its removal hooks first.
func (s *Set) detach(e *Effect, t Target) {
	if e.removed {
		return
	}
	e.removed = true
	BehaviorFor(e.Def.Kind).OnRemoval(e, t)
	s.hook(e.Def.LuaOnRemove, e, t)
	for i, cur := range s.effects {
		if cur == e {
			s.effects = append(s.effects[:i], s.effects[i+1:]...)
			break
		}
	}
	s.logger.Debug("status removed",
		zap.String("status", e.Def.ID),
		zap.String("target", t.ID()),
	)
}

// Remove detaches every effect with the given ID, running removal hooks.
// Removing an absent ID is a no-op.
func (s *Set) Remove(id string, t Target) {
	for _, e := range s.All() {
		if e.Def.ID == id {
			s.detach(e, t)
		}
	}
}

// PruneNonPersistent detaches every non-persistent effect. It is the "prune"
// policy applied when the owner crosses the combat/world boundary.
//
// Postcondition: every remaining effect has Def.Persistent == true.
func (s *Set) PruneNonPersistent(t Target) []*Effect {
	var pruned []*Effect
	for _, e := range s.All() {
		if !e.Def.Persistent {
			s.detach(e, t)
			pruned = append(pruned, e)
		}
	}
	return pruned
}

// Clear discards every effect without running removal hooks. It is used when the
// owner leaves the encounter dead, so no hook can act on a removed combatant.
func (s *Set) Clear() {
	for _, e := range s.effects {
		e.removed = true
	}
	s.effects = nil
}

// BeforeDeath offers each death-guarding effect the chance to keep t alive.
// The first guard that intervenes is consumed.
//
// Postcondition: returns true iff some effect intervened.
func (s *Set) BeforeDeath(t Target) bool {
	for _, e := range s.All() {
		guard, ok := BehaviorFor(e.Def.Kind).(DeathGuard)
		if !ok {
			continue
		}
		if guard.BeforeDeath(e, t) {
			s.detach(e, t)
			return true
		}
	}
	return false
}

// Modifier returns the summed stat_modifier intensity for stat.
func (s *Set) Modifier(stat string) int {
	total := 0
	for _, e := range s.effects {
		if e.Def.Kind == KindStatModifier && e.Def.Stat == stat {
			total += int(math.Round(e.Intensity))
		}
	}
	return total
}

// Has reports whether an effect with id is attached.
func (s *Set) Has(id string) bool { return s.Get(id) != nil }

// Get returns the first attached effect with id, or nil.
func (s *Set) Get(id string) *Effect {
	for _, e := range s.effects {
		if e.Def.ID == id {
			return e
		}
	}
	return nil
}

// Count returns the number of attached effects with id.
func (s *Set) Count(id string) int {
	n := 0
	for _, e := range s.effects {
		if e.Def.ID == id {
			n++
		}
	}
	return n
}

// Len returns the number of attached effects.
func (s *Set) Len() int { return len(s.effects) }

// All returns a snapshot slice of the attached effects in application order.
// The pointed-to effects are shared; callers must not modify them.
func (s *Set) All() []*Effect {
	out := make([]*Effect, len(s.effects))
	copy(out, s.effects)
	return out
}

// Visible returns the names of non-hidden effects, for presentation.
func (s *Set) Visible() []string {
	var names []string
	for _, e := range s.effects {
		if !e.Def.Hidden {
			names = append(names, e.Def.Name)
		}
	}
	return names
}

func (s *Set) hook(name string, e *Effect, t Target) {
	if name == "" || s.hooks == nil {
		return
	}
	s.hooks.StatusHook(name, e, t)
}
