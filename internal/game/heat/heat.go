// Package heat implements the player side's combo multiplier.
package heat

import "math"

const (
	// Min is the lowest value heat can reach.
	Min = 0.5
	// Max is the highest value heat can reach.
	Max = 10.0
	// Start is the value heat takes at the start of every encounter.
	Start = 1.0
)

// Gauge holds the clamped heat scalar.
//
// Invariant: Min <= Value() <= Max and Value() has at most two decimal places.
type Gauge struct {
	value float64
}

// New returns a Gauge at Start.
func New() *Gauge {
	return &Gauge{value: Start}
}

// Value returns the current heat.
func (g *Gauge) Value() float64 { return g.value }

// Change sets heat to clamp(round2(heat*multiplier + add), Min, Max) and returns it.
// Rounding happens before clamping on every mutation.
func (g *Gauge) Change(multiplier, add float64) float64 {
	g.value = clamp(Round2(g.value*multiplier + add))
	return g.value
}

// Reset returns heat to Start.
func (g *Gauge) Reset() { g.value = Start }

// Scale multiplies amount by the current heat and rounds to the nearest integer.
func (g *Gauge) Scale(amount int) int {
	return int(math.Round(float64(amount) * g.value))
}

// Round2 rounds v to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return Min
	}
	return math.Max(Min, math.Min(Max, v))
}
