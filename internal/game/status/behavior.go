package status

import "math"

// Effect kinds. Each maps to one Behavior.
const (
	KindMarker         = "marker"
	KindDamageOverTime = "damage_over_time"
	KindHealOverTime   = "heal_over_time"
	KindFatigueDrain   = "fatigue_drain"
	KindStatModifier   = "stat_modifier"
	KindRevive         = "revive"
)

// Target is the subset of a combatant that status effects act on.
type Target interface {
	ID() string
	Name() string
	InCombat() bool
	Alive() bool
	// TakeDamage applies amount of element damage and returns the HP actually lost.
	TakeDamage(amount int, element string) int
	// Heal restores up to amount HP and returns the HP actually gained.
	Heal(amount int) int
	// DrainFatigue removes up to amount fatigue and returns the fatigue actually lost.
	DrainFatigue(amount int) int
	// Revive sets HP to hp (clamped to [1, MaxHP]).
	Revive(hp int)
}

// Behavior is the capability set a status kind implements.
type Behavior interface {
	OnApplication(e *Effect, t Target)
	Tick(e *Effect, t Target)
	OnRemoval(e *Effect, t Target)
}

// DeathGuard is implemented by behaviors that may intercept a death.
type DeathGuard interface {
	// BeforeDeath returns true when it has kept t alive. The effect is consumed.
	BeforeDeath(e *Effect, t Target) bool
}

var behaviors = map[string]Behavior{
	KindMarker:         marker{},
	KindDamageOverTime: damageOverTime{},
	KindHealOverTime:   healOverTime{},
	KindFatigueDrain:   fatigueDrain{},
	KindStatModifier:   marker{},
	KindRevive:         revive{},
}

// BehaviorFor returns the Behavior for kind, falling back to a no-op marker.
func BehaviorFor(kind string) Behavior {
	if b, ok := behaviors[kind]; ok {
		return b
	}
	return marker{}
}

func amount(e *Effect) int {
	return int(math.Round(e.Intensity))
}

type marker struct{}

func (marker) OnApplication(*Effect, Target) {}
func (marker) Tick(*Effect, Target)          {}
func (marker) OnRemoval(*Effect, Target)     {}

type damageOverTime struct{ marker }

func (damageOverTime) Tick(e *Effect, t Target) {
	t.TakeDamage(amount(e), e.Def.Element)
}

type healOverTime struct{ marker }

func (healOverTime) Tick(e *Effect, t Target) {
	t.Heal(amount(e))
}

type fatigueDrain struct{ marker }

func (fatigueDrain) Tick(e *Effect, t Target) {
	t.DrainFatigue(amount(e))
}

type revive struct{ marker }

func (revive) BeforeDeath(e *Effect, t Target) bool {
	t.Revive(max(1, amount(e)))
	return true
}
