// Package world implements the encounter's outer collaborator: equipped gear,
// death bookkeeping and the experience ledger that outlives a single session.
package world

import (
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// Gear is the equipment worn by one combatant.
type Gear struct {
	// Armor is added to the combatant's protection each beat.
	Armor int
	// Bonus is added to the combatant's base stats on every refresh.
	Bonus combat.Attributes
}

// World tracks gear, deaths and awarded experience across encounters.
// All methods are safe for concurrent use.
type World struct {
	mu     sync.RWMutex
	gear   map[string]Gear
	exp    map[string]int
	fallen []string
	logger *zap.Logger
}

// New creates an empty World.
//
// Precondition: logger must be non-nil.
func New(logger *zap.Logger) *World {
	return &World{
		gear:   make(map[string]Gear),
		exp:    make(map[string]int),
		logger: logger,
	}
}

// Equip replaces the gear worn by the combatant with the given ID.
func (w *World) Equip(id string, g Gear) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gear[id] = g
}

// StatBonuses implements combat.World.
func (w *World) StatBonuses(c *combat.Combatant) combat.Attributes {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.gear[c.ID()].Bonus
}

// Protection implements combat.World. Armor stacks with a positive endurance modifier.
//
// Postcondition: Returns a value >= 0.
func (w *World) Protection(c *combat.Combatant) int {
	w.mu.RLock()
	armor := w.gear[c.ID()].Armor
	w.mu.RUnlock()
	return max(0, armor) + max(0, combat.AbilityMod(c.Stats.Endurance))
}

// BeforeDeath implements combat.World. The world never rescues a combatant;
// revive statuses are handled by the session.
func (w *World) BeforeDeath(*combat.Combatant) bool { return false }

// Death implements combat.World.
func (w *World) Death(c *combat.Combatant) {
	w.mu.Lock()
	w.fallen = append(w.fallen, c.ID())
	w.mu.Unlock()
	w.logger.Info("combatant died",
		zap.String("combatant", c.ID()),
		zap.String("name", c.Name()),
		zap.Bool("player", c.IsPlayer()),
	)
}

// AwardExperience implements combat.World.
func (w *World) AwardExperience(player *combat.Combatant, exp int) {
	w.mu.Lock()
	w.exp[player.ID()] += exp
	total := w.exp[player.ID()]
	w.mu.Unlock()
	w.logger.Info("experience awarded",
		zap.String("player", player.ID()),
		zap.Int("exp", exp),
		zap.Int("total", total),
	)
}

// Step advances c's statuses by one out-of-combat step and returns the IDs of
// the effects that expired. Combatants still in combat or dead are untouched.
func (w *World) Step(c *combat.Combatant) []string {
	if c.InCombat() || !c.Alive() {
		return nil
	}
	var ids []string
	for _, e := range c.Statuses.Process(c) {
		ids = append(ids, e.ID())
	}
	if len(ids) > 0 {
		w.logger.Debug("statuses expired",
			zap.String("combatant", c.ID()),
			zap.Strings("statuses", ids),
		)
	}
	return ids
}

// Experience returns the total experience awarded to the player with the given ID.
func (w *World) Experience(id string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.exp[id]
}

// Fallen returns the IDs of every combatant that has died, in order of death.
func (w *World) Fallen() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.fallen...)
}
