// Package dice provides the randomness abstraction and dice-expression rolling
// used for content-defined magnitudes and combat randomness.
package dice

import "fmt"

// RollResult holds the full audit trail for a single dice roll evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string // original expression string, e.g. "2d6+3"
	Dice       []int  // individual die results before modifier
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of all die results plus the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String returns a human-readable audit string, e.g. "2d6+3 → [4 5] +3 = 12".
func (r RollResult) String() string {
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Source is the randomness provider for rolls, picks and jitter.
//
// Implementations used by a single combat session need not be safe for
// concurrent use; the crypto source is.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random float in [0, 1).
	Float64() float64
}

// FloatSource is the part of Source that draws floats.
type FloatSource interface {
	Float64() float64
}

// Uniform returns a value drawn uniformly from [lo, hi).
//
// Precondition: lo <= hi.
func Uniform(src FloatSource, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}
