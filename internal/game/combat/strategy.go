package combat

import (
	"context"

	"github.com/cory-johannsen/skirmish/internal/game/move"
	"github.com/cory-johannsen/skirmish/internal/game/proximity"
)

// Action is the kind of choice the player makes at the prompt.
type Action int

const (
	// ActionCast stages the move at Choice.Move.
	ActionCast Action = iota
	// ActionWait passes the beat without casting.
	ActionWait
	// ActionFlee ends the encounter with OutcomeFlee.
	ActionFlee
)

// Choice is one player selection.
type Choice struct {
	Action Action
	// Move indexes Snapshot.Moves; only meaningful for ActionCast.
	Move int
}

// PlayerStrategy supplies the player's decisions. The console front end reads
// them from a terminal; tests script them.
type PlayerStrategy interface {
	// ChooseMove blocks until the player picks an action.
	ChooseMove(ctx context.Context, snap Snapshot) (Choice, error)
	// ChooseTarget picks an index into candidates, which are sorted by ascending distance.
	ChooseTarget(ctx context.Context, snap Snapshot, candidates []TargetOption) (int, error)
	// Reject reports why the last selection was refused; the prompt repeats.
	Reject(err error)
}

// TargetOption is a candidate offered to the player.
type TargetOption struct {
	ID       string
	Name     string
	Distance float64
}

// Source is the subset of dice.Source used by heuristics and delay rolls.
// Using a local interface keeps tests free of the dice package.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// Heuristic picks an NPC's action for a beat.
type Heuristic interface {
	// Decide returns a move npc can use right now and its target ID, or ok == false to idle.
	// candidates returns the living opponents within a move's range band.
	Decide(npc *Combatant, candidates func(*move.Def) []proximity.Candidate, src Source) (m *move.Move, target string, ok bool)
}

// RandomHeuristic picks uniformly among the NPC's usable moves that have a
// target, then uniformly among that move's targets.
type RandomHeuristic struct{}

// Decide implements Heuristic.
func (RandomHeuristic) Decide(npc *Combatant, candidates func(*move.Def) []proximity.Candidate, src Source) (*move.Move, string, bool) {
	type option struct {
		m       *move.Move
		targets []proximity.Candidate
	}
	var options []option
	for _, m := range npc.Moves() {
		if !npc.Usable(m) {
			continue
		}
		if !m.Def.Targeted {
			options = append(options, option{m: m})
			continue
		}
		if cands := candidates(m.Def); len(cands) > 0 {
			options = append(options, option{m: m, targets: cands})
		}
	}
	if len(options) == 0 {
		return nil, "", false
	}
	pick := options[src.Intn(len(options))]
	if !pick.m.Def.Targeted {
		return pick.m, npc.ID(), true
	}
	return pick.m, pick.targets[src.Intn(len(pick.targets))].ID, true
}
