package status

import "math"

// Effect is one applied status on one target.
//
// Invariant: 0 <= BeatsLeft <= BeatsMax and 0 <= StepsLeft <= StepsMax while attached.
type Effect struct {
	Def *Def
	// Source is the ID of the combatant that applied the effect; empty for environmental sources.
	Source string
	// Intensity is the per-tick magnitude; compounding grows it.
	Intensity float64
	BeatsMax  int
	BeatsLeft int
	StepsMax  int
	StepsLeft int

	removed bool
}

func newEffect(def *Def, source string) *Effect {
	return &Effect{
		Def:       def,
		Source:    source,
		Intensity: def.Magnitude,
		BeatsMax:  def.Beats,
		BeatsLeft: def.Beats,
		StepsMax:  def.Steps,
		StepsLeft: def.Steps,
	}
}

// ID returns the status type.
func (e *Effect) ID() string { return e.Def.ID }

// Removed reports whether the effect has been detached from its owner.
func (e *Effect) Removed() bool { return e.removed }

// Compound intensifies the effect in place instead of stacking a second instance.
// Intensity and each enabled max duration grow by the def's growth factor (max durations
// strictly increase); remaining counters gain refill × new max, clamped to the new max.
func (e *Effect) Compound() {
	g, r := e.Def.growth(), e.Def.refill()
	e.Intensity *= g
	e.BeatsMax, e.BeatsLeft = extend(e.BeatsMax, e.BeatsLeft, g, r)
	e.StepsMax, e.StepsLeft = extend(e.StepsMax, e.StepsLeft, g, r)
}

func extend(maxLeft, left int, growth, refill float64) (int, int) {
	if maxLeft <= 0 {
		return maxLeft, left
	}
	// epsilon keeps 10*1.1 at 11 rather than 12
	newMax := int(math.Ceil(float64(maxLeft)*growth - 1e-9))
	if newMax <= maxLeft {
		newMax = maxLeft + 1
	}
	left += int(math.Ceil(float64(newMax)*refill - 1e-9))
	return newMax, min(left, newMax)
}
