package combat

// RollDelays sets each NPC's pre-action delay at encounter start.
// Formula: U[0, maxDelay] minus the speed modifier, clamped to [0, maxDelay].
//
// Precondition: maxDelay >= 0; src must be non-nil.
// Postcondition: every NPC in combatants has 0 <= Delay <= maxDelay; the player is untouched.
func RollDelays(combatants []*Combatant, maxDelay int, src Source) {
	for _, c := range combatants {
		if c.IsPlayer() {
			continue
		}
		if maxDelay <= 0 {
			c.Delay = 0
			continue
		}
		roll := src.Intn(maxDelay+1) - AbilityMod(c.Stats.Speed)
		c.Delay = max(0, min(roll, maxDelay))
	}
}
