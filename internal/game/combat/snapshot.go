package combat

import (
	"github.com/cory-johannsen/skirmish/internal/game/move"
)

// CombatantView is a read-only rendering of one combatant.
type CombatantView struct {
	ID         string
	Name       string
	Side       Side
	Player     bool
	HP         int
	MaxHP      int
	Fatigue    int
	MaxFatigue int
	Statuses   []string
	// Using names the move the combatant is casting or resolving, if any.
	Using string
	// Distance from the player; -1 for the player's own side.
	Distance float64
}

// MoveView is a read-only rendering of one of the player's moves.
type MoveView struct {
	Index     int
	Name      string
	Cost      int
	Stage     move.Stage
	BeatsLeft int
	Targeted  bool
	// Legal reports whether selecting the move now would be accepted (ignoring targeting).
	Legal bool
}

// Snapshot is the presentation view of the encounter at one point in a beat.
type Snapshot struct {
	Beat       int
	Heat       float64
	Player     CombatantView
	Allies     []CombatantView
	Enemies    []CombatantView
	Moves      []MoveView
	PlayerBusy bool
}

// Snapshot builds a read-only view of the session.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Beat:       s.beat,
		Heat:       s.heat.Value(),
		Player:     s.view(s.player),
		PlayerBusy: s.player.Busy(),
	}
	for _, c := range s.allies {
		if c != s.player {
			snap.Allies = append(snap.Allies, s.view(c))
		}
	}
	for _, c := range s.enemies {
		snap.Enemies = append(snap.Enemies, s.view(c))
	}
	for i, m := range s.player.Moves() {
		snap.Moves = append(snap.Moves, MoveView{
			Index:     i,
			Name:      m.Def.Name,
			Cost:      m.Def.FatigueCost,
			Stage:     m.Stage(),
			BeatsLeft: m.BeatsLeft(),
			Targeted:  m.Def.Targeted,
			Legal:     !s.player.Busy() && s.player.Usable(m),
		})
	}
	return snap
}

func (s *Session) view(c *Combatant) CombatantView {
	v := CombatantView{
		ID:         c.ID(),
		Name:       c.Name(),
		Side:       c.Side,
		Player:     c.IsPlayer(),
		HP:         c.HP,
		MaxHP:      c.MaxHP,
		Fatigue:    c.Fatigue,
		MaxFatigue: c.MaxFatigue,
		Statuses:   c.Statuses.Visible(),
		Distance:   -1,
	}
	if c.Busy() {
		v.Using = c.Current().Def.Name
	}
	if c.Side != s.player.Side {
		if d, ok := s.prox.Distance(s.player.ID(), c.ID()); ok {
			v.Distance = d
		}
	}
	return v
}
