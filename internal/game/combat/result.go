package combat

import "time"

// Result is the record of a finished encounter handed back to the world.
type Result struct {
	SessionID string
	PlayerID  string
	Outcome   Outcome
	Beats     int
	// Experience is the pooled experience awarded on victory; 0 otherwise.
	Experience int
	Heat       float64
	// Survivors names every combatant still in the encounter at the end, player first.
	Survivors  []string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Result reports the session's current outcome and totals.
func (s *Session) Result() Result {
	res := Result{
		SessionID:  s.id,
		PlayerID:   s.player.ID(),
		Outcome:    s.outcome,
		Beats:      s.beat,
		Experience: s.awarded,
		Heat:       s.heat.Value(),
		StartedAt:  s.startedAt,
		FinishedAt: s.finishedAt,
	}
	for _, c := range s.participants() {
		if c.Alive() {
			res.Survivors = append(res.Survivors, c.Name())
		}
	}
	return res
}
