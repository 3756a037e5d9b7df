package move

import (
	"errors"
	"fmt"
)

// ErrNotReady is returned by Cast when the move is not in StageReady.
var ErrNotReady = errors.New("move not ready")

// Stage is a move's position in its cycle.
type Stage int

const (
	StageReady Stage = iota
	StageCasting
	StageResolving
	StageCooldown
)

// String returns the lowercase stage name.
func (s Stage) String() string {
	switch s {
	case StageReady:
		return "ready"
	case StageCasting:
		return "casting"
	case StageResolving:
		return "resolving"
	case StageCooldown:
		return "cooldown"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Transition records one Advance. From == To when the stage timer has not expired.
type Transition struct {
	From Stage
	To   Stage
}

// Changed reports whether the advance crossed a stage boundary.
func (t Transition) Changed() bool { return t.From != t.To }

// Resolved reports whether the advance crossed CASTING → RESOLVING, the point at
// which the move's effects fire.
func (t Transition) Resolved() bool { return t.From == StageCasting && t.To == StageResolving }

// Released reports whether the advance left RESOLVING, freeing the owner for another cast.
func (t Transition) Released() bool { return t.From == StageResolving && t.To != StageResolving }

// Move is one combatant's learned instance of a Def. Instances are never shared.
type Move struct {
	Def *Def

	stage     Stage
	beatsLeft int
	user      string
	target    string
}

// New creates a READY move for def.
//
// Precondition: def must not be nil.
func New(def *Def) *Move {
	return &Move{Def: def}
}

// Stage returns the current stage.
func (m *Move) Stage() Stage { return m.stage }

// BeatsLeft returns the beats remaining in the current timed stage; 0 when READY.
func (m *Move) BeatsLeft() int { return m.beatsLeft }

// User returns the bound user ID; empty when READY.
func (m *Move) User() string { return m.user }

// Target returns the bound target ID; empty when READY.
func (m *Move) Target() string { return m.target }

// Active reports whether the move occupies its owner (CASTING or RESOLVING).
func (m *Move) Active() bool {
	return m.stage == StageCasting || m.stage == StageResolving
}

// Cast binds user and target and enters CASTING.
//
// Precondition: Stage() == StageReady.
// Postcondition: on success Stage() == StageCasting and BeatsLeft() >= 1; on error nothing changes.
func (m *Move) Cast(user, target string) error {
	if m.stage != StageReady {
		return fmt.Errorf("casting %q in stage %s: %w", m.Def.Name, m.stage, ErrNotReady)
	}
	m.user = user
	m.target = target
	m.enter(StageCasting)
	return nil
}

// Advance ticks the current stage timer by one beat. On expiry the move moves to
// the next stage; entering READY clears user and target. A READY move is unchanged.
func (m *Move) Advance() Transition {
	from := m.stage
	if from == StageReady {
		return Transition{From: from, To: from}
	}
	m.beatsLeft--
	if m.beatsLeft > 0 {
		return Transition{From: from, To: from}
	}
	m.enter((from + 1) % 4)
	return Transition{From: from, To: m.stage}
}

// Reset returns the move to READY, discarding any binding.
func (m *Move) Reset() {
	m.enter(StageReady)
}

func (m *Move) enter(s Stage) {
	m.stage = s
	switch s {
	case StageCasting:
		m.beatsLeft = max(1, m.Def.CastBeats)
	case StageResolving:
		m.beatsLeft = max(1, m.Def.ResolveBeats)
	case StageCooldown:
		m.beatsLeft = max(1, m.Def.CooldownBeats)
	default:
		m.beatsLeft = 0
		m.user = ""
		m.target = ""
	}
}
