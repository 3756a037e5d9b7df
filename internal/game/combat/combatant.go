// Package combat runs a single encounter between the player's party and a
// hostile party on a shared beat clock.
package combat

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/move"
	"github.com/cory-johannsen/skirmish/internal/game/status"
)

// Kind distinguishes the player from NPC combatants.
type Kind int

const (
	KindPlayer Kind = iota
	KindNPC
)

// Side is a combatant's party for the duration of an encounter.
type Side int

const (
	SideAlly Side = iota
	SideEnemy
)

// String returns "ally" or "enemy".
func (s Side) String() string {
	if s == SideEnemy {
		return "enemy"
	}
	return "ally"
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideEnemy {
		return SideAlly
	}
	return SideEnemy
}

// Element is a damage type with a per-combatant resistance.
type Element string

const (
	ElementFire  Element = "fire"
	ElementIce   Element = "ice"
	ElementShock Element = "shock"
	ElementEarth Element = "earth"
	ElementLight Element = "light"
	ElementDark  Element = "dark"
)

// Elements lists every resistible damage type.
var Elements = []Element{ElementFire, ElementIce, ElementShock, ElementEarth, ElementLight, ElementDark}

// Stat names accepted by Attributes.Get and Attributes.Add.
const (
	StatStrength     = "strength"
	StatFinesse      = "finesse"
	StatSpeed        = "speed"
	StatEndurance    = "endurance"
	StatCharisma     = "charisma"
	StatIntelligence = "intelligence"
	StatFaith        = "faith"
)

// StatNames lists every attribute name in display order.
var StatNames = []string{StatStrength, StatFinesse, StatSpeed, StatEndurance, StatCharisma, StatIntelligence, StatFaith}

// Attributes is the core stat block.
type Attributes struct {
	Strength     int `yaml:"strength"`
	Finesse      int `yaml:"finesse"`
	Speed        int `yaml:"speed"`
	Endurance    int `yaml:"endurance"`
	Charisma     int `yaml:"charisma"`
	Intelligence int `yaml:"intelligence"`
	Faith        int `yaml:"faith"`
}

func (a *Attributes) field(stat string) *int {
	switch stat {
	case StatStrength:
		return &a.Strength
	case StatFinesse:
		return &a.Finesse
	case StatSpeed:
		return &a.Speed
	case StatEndurance:
		return &a.Endurance
	case StatCharisma:
		return &a.Charisma
	case StatIntelligence:
		return &a.Intelligence
	case StatFaith:
		return &a.Faith
	}
	return nil
}

// Get returns the named stat, or (0, false) for an unknown name.
func (a Attributes) Get(stat string) (int, bool) {
	p := a.field(stat)
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Add adds delta to the named stat. Unknown names are ignored and reported false.
func (a *Attributes) Add(stat string, delta int) bool {
	p := a.field(stat)
	if p == nil {
		return false
	}
	*p += delta
	return true
}

// Plus returns the field-wise sum of a and o.
func (a Attributes) Plus(o Attributes) Attributes {
	return Attributes{
		Strength:     a.Strength + o.Strength,
		Finesse:      a.Finesse + o.Finesse,
		Speed:        a.Speed + o.Speed,
		Endurance:    a.Endurance + o.Endurance,
		Charisma:     a.Charisma + o.Charisma,
		Intelligence: a.Intelligence + o.Intelligence,
		Faith:        a.Faith + o.Faith,
	}
}

// AbilityMod computes the standard ability modifier using floor division: floor((score - 10) / 2).
// Postcondition: Returns floor((score - 10) / 2).
func AbilityMod(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// Combatant is one participant in an encounter, the player or an NPC.
// Combatant implements status.Target.
//
// Invariant: 0 <= HP <= MaxHP; 0 <= Fatigue <= MaxFatigue; at most one move is Active.
type Combatant struct {
	id   string
	name string

	Kind       Kind
	Side       Side
	HP         int
	MaxHP      int
	Fatigue    int
	MaxFatigue int
	// Stats is recomputed every beat from BaseStats, world bonuses and status modifiers.
	Stats     Attributes
	BaseStats Attributes
	// Resistance maps an element to a damage reduction factor; negative values are weaknesses.
	Resistance map[Element]float64
	// Protection is subtracted from incoming move damage. The world recomputes it every beat.
	Protection int
	// Exp is the experience pooled for the player when this combatant is defeated.
	Exp int
	// Delay is the number of beats an NPC waits before its first action.
	Delay    int
	Statuses *status.Set

	moves    []*move.Move
	current  *move.Move
	inCombat bool
}

// NewCombatant creates a combatant at full HP and fatigue.
//
// Precondition: id must be non-empty; maxHP >= 1; maxFatigue >= 0; logger must be non-nil.
// Postcondition: Stats == BaseStats == base; Statuses is empty.
func NewCombatant(id, name string, kind Kind, maxHP, maxFatigue int, base Attributes, logger *zap.Logger) *Combatant {
	return &Combatant{
		id:         id,
		name:       name,
		Kind:       kind,
		HP:         maxHP,
		MaxHP:      maxHP,
		Fatigue:    maxFatigue,
		MaxFatigue: maxFatigue,
		Stats:      base,
		BaseStats:  base,
		Resistance: make(map[Element]float64),
		Statuses:   status.NewSet(nil, logger),
	}
}

// ID returns the combatant's stable identifier.
func (c *Combatant) ID() string { return c.id }

// Name returns the display name.
func (c *Combatant) Name() string { return c.name }

// IsPlayer reports whether this combatant is the player.
func (c *Combatant) IsPlayer() bool { return c.Kind == KindPlayer }

// Alive reports whether HP > 0.
func (c *Combatant) Alive() bool { return c.HP > 0 }

// InCombat reports whether the combatant is inside an active encounter.
func (c *Combatant) InCombat() bool { return c.inCombat }

// SetInCombat marks the combatant as entering or leaving an encounter.
func (c *Combatant) SetInCombat(v bool) { c.inCombat = v }

// Learn adds a move instance for def, unless one with the same ID is already known.
//
// Postcondition: Returns the combatant's instance of def; instances are never shared.
func (c *Combatant) Learn(def *move.Def) *move.Move {
	if m := c.Move(def.ID); m != nil {
		return m
	}
	m := move.New(def)
	c.moves = append(c.moves, m)
	return m
}

// Moves returns the known moves in learn order.
func (c *Combatant) Moves() []*move.Move {
	out := make([]*move.Move, len(c.moves))
	copy(out, c.moves)
	return out
}

// Move returns the known move with the given def ID, or nil.
func (c *Combatant) Move(id string) *move.Move {
	for _, m := range c.moves {
		if m.Def.ID == id {
			return m
		}
	}
	return nil
}

// Current returns the move occupying the combatant, or nil when idle.
func (c *Combatant) Current() *move.Move { return c.current }

// Busy reports whether a move is casting or resolving.
func (c *Combatant) Busy() bool { return c.current != nil && c.current.Active() }

// CanAfford reports whether the combatant has the fatigue to cast m.
func (c *Combatant) CanAfford(m *move.Move) bool { return c.Fatigue >= m.Def.FatigueCost }

// Usable reports whether m is READY and affordable.
func (c *Combatant) Usable(m *move.Move) bool {
	return m.Stage() == move.StageReady && c.CanAfford(m)
}

// Cast stages m against target and spends its fatigue cost.
//
// Precondition: m must be one of c's moves.
// Postcondition: on success Current() == m and Fatigue dropped by the cost;
// on error nothing changes.
func (c *Combatant) Cast(m *move.Move, target string) error {
	if c.Busy() {
		return fmt.Errorf("%s is still using %s: %w", c.name, c.current.Def.Name, ErrInputRejected)
	}
	if m.Stage() != move.StageReady {
		return fmt.Errorf("%s: %w", m.Def.Name, move.ErrNotReady)
	}
	if !c.CanAfford(m) {
		return fmt.Errorf("%s costs %d fatigue, %s has %d: %w",
			m.Def.Name, m.Def.FatigueCost, c.name, c.Fatigue, ErrInsufficientFatigue)
	}
	if err := m.Cast(c.id, target); err != nil {
		return err
	}
	c.Fatigue -= m.Def.FatigueCost
	c.current = m
	return nil
}

// Release clears the current move if it is m.
func (c *Combatant) Release(m *move.Move) {
	if c.current == m {
		c.current = nil
	}
}

// ResetMoves returns staged moves to READY. With carry set, moves cooling
// down keep their timers; casting and resolving moves are always reset since
// their bindings refer to the finished encounter.
func (c *Combatant) ResetMoves(carry bool) {
	for _, m := range c.moves {
		if carry && m.Stage() == move.StageCooldown {
			continue
		}
		if m.Stage() != move.StageReady {
			m.Reset()
		}
	}
	c.current = nil
}

// Resist returns the reduction factor for element, 0 when none is declared.
func (c *Combatant) Resist(element string) float64 {
	return c.Resistance[Element(element)]
}

// TakeDamage reduces HP by amount scaled by the element resistance, flooring at zero.
//
// Postcondition: Returns the HP actually lost; 0 <= HP.
func (c *Combatant) TakeDamage(amount int, element string) int {
	if amount <= 0 {
		return 0
	}
	scaled := int(math.Round(float64(amount) * (1 - c.Resist(element))))
	if scaled <= 0 {
		return 0
	}
	lost := min(scaled, c.HP)
	c.HP -= lost
	return lost
}

// Heal restores up to amount HP, capped at MaxHP. Dead combatants cannot be healed.
func (c *Combatant) Heal(amount int) int {
	if amount <= 0 || !c.Alive() {
		return 0
	}
	gained := min(amount, c.MaxHP-c.HP)
	c.HP += gained
	return gained
}

// DrainFatigue removes up to amount fatigue.
func (c *Combatant) DrainFatigue(amount int) int {
	if amount <= 0 {
		return 0
	}
	lost := min(amount, c.Fatigue)
	c.Fatigue -= lost
	return lost
}

// RestoreFatigue adds up to amount fatigue, capped at MaxFatigue.
func (c *Combatant) RestoreFatigue(amount int) int {
	if amount <= 0 {
		return 0
	}
	gained := min(amount, c.MaxFatigue-c.Fatigue)
	c.Fatigue += gained
	return gained
}

// RefillFatigue sets Fatigue to MaxFatigue.
func (c *Combatant) RefillFatigue() { c.Fatigue = c.MaxFatigue }

// Revive sets HP to hp clamped to [1, MaxHP].
func (c *Combatant) Revive(hp int) {
	c.HP = max(1, min(hp, c.MaxHP))
}

// ResetStats restores Stats to BaseStats.
func (c *Combatant) ResetStats() { c.Stats = c.BaseStats }

// RefreshStats recomputes Stats as BaseStats plus bonus plus the status
// modifiers for each stat.
func (c *Combatant) RefreshStats(bonus Attributes) {
	c.Stats = c.BaseStats.Plus(bonus)
	for _, name := range StatNames {
		if mod := c.Statuses.Modifier(name); mod != 0 {
			c.Stats.Add(name, mod)
		}
	}
}
