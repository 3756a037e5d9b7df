package combat

import (
	"fmt"

	"go.uber.org/zap"
)

// intervene gives status effects, then the world, a chance to keep c alive.
//
// Postcondition: returns true iff c is alive afterwards because of an intervention.
func (s *Session) intervene(c *Combatant) bool {
	if c.Statuses.BeforeDeath(c) && c.Alive() {
		s.presenter.Narrate(fmt.Sprintf("%s refuses to fall!", c.Name()))
		return true
	}
	return s.world.BeforeDeath(c) && c.Alive()
}

// sweep removes dead NPCs from the encounter. The dead are marked over a
// snapshot and the side lists compacted afterwards. The player is left in
// place so the next beat can end the encounter.
func (s *Session) sweep() {
	snapshot := s.participants()
	dead := make(map[*Combatant]bool)
	for _, c := range snapshot {
		if c.IsPlayer() || c.Alive() {
			continue
		}
		if s.intervene(c) {
			continue
		}
		dead[c] = true
	}
	if len(dead) == 0 {
		return
	}

	s.allies = compact(s.allies, dead)
	s.enemies = compact(s.enemies, dead)

	for _, c := range snapshot {
		if !dead[c] {
			continue
		}
		s.prox.Forget(c.ID())
		c.Statuses.Clear()
		c.Statuses.SetHooks(nil)
		c.ResetMoves(false)
		c.SetInCombat(false)
		if c.Side == SideEnemy {
			s.expPool += c.Exp
		}
		s.world.Death(c)
		s.presenter.Narrate(fmt.Sprintf("%s is defeated.", c.Name()))
		s.logger.Debug("combatant removed",
			zap.String("combatant", c.ID()),
			zap.Stringer("side", c.Side),
			zap.Int("exp_pool", s.expPool),
		)
	}
}

func compact(list []*Combatant, dead map[*Combatant]bool) []*Combatant {
	out := make([]*Combatant, 0, len(list))
	for _, c := range list {
		if !dead[c] {
			out = append(out, c)
		}
	}
	return out
}
