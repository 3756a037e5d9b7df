// Package proximity tracks symmetric distances between combatants on opposing sides.
package proximity

import (
	"math"
	"sort"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

const (
	// JitterLow and JitterHigh bound the factor applied to the default distance at seeding.
	JitterLow  = 0.75
	JitterHigh = 1.25
)

// Source supplies the seeding jitter.
type Source = dice.FloatSource

// pair is an unordered key: a < b always.
type pair struct {
	a, b string
}

func key(a, b string) pair {
	if b < a {
		a, b = b, a
	}
	return pair{a: a, b: b}
}

// Candidate is an opponent together with its distance from the origin.
type Candidate struct {
	ID       string
	Distance float64
}

// Model is a symmetric distance table keyed by combatant ID.
// It is not safe for concurrent use; a combat session owns exactly one.
//
// Invariant: Distance(a, b) == Distance(b, a); every stored distance is >= 0.
type Model struct {
	dist map[pair]float64
}

// New returns an empty Model.
func New() *Model {
	return &Model{dist: make(map[pair]float64)}
}

// Seed populates every ally/enemy pair with def × U(JitterLow, JitterHigh).
// Existing entries for those pairs are overwritten; same-side pairs are never stored.
//
// Precondition: def > 0; src must be non-nil.
// Postcondition: Len() grows to include len(allies)*len(enemies) entries.
func (m *Model) Seed(allies, enemies []string, def float64, src Source) {
	for _, a := range allies {
		for _, e := range enemies {
			m.dist[key(a, e)] = def * dice.Uniform(src, JitterLow, JitterHigh)
		}
	}
}

// Distance returns the stored distance between a and b.
//
// Postcondition: ok is false when the pair is unknown (same side, or a participant was forgotten).
func (m *Model) Distance(a, b string) (d float64, ok bool) {
	d, ok = m.dist[key(a, b)]
	return d, ok
}

// Set stores d for the pair, floored at zero.
func (m *Model) Set(a, b string, d float64) {
	m.dist[key(a, b)] = math.Max(0, d)
}

// Shift adds delta to a known pair's distance, floored at zero.
// Advance moves use a negative delta, Withdraw a positive one.
//
// Postcondition: Returns the new distance and true, or (0, false) if the pair is unknown.
func (m *Model) Shift(a, b string, delta float64) (float64, bool) {
	k := key(a, b)
	d, ok := m.dist[k]
	if !ok {
		return 0, false
	}
	d = math.Max(0, d+delta)
	m.dist[k] = d
	return d, true
}

// Forget removes every entry that involves id.
//
// Postcondition: Distance(id, x) reports ok == false for all x.
func (m *Model) Forget(id string) {
	for k := range m.dist {
		if k.a == id || k.b == id {
			delete(m.dist, k)
		}
	}
}

// Len returns the number of stored pairs.
func (m *Model) Len() int { return len(m.dist) }

// InRange returns the opponents whose distance d from origin satisfies min <= d < max,
// sorted by ascending distance. Opponents without an entry are skipped.
func (m *Model) InRange(origin string, opponents []string, min, max float64) []Candidate {
	var out []Candidate
	for _, id := range opponents {
		d, ok := m.Distance(origin, id)
		if !ok {
			continue
		}
		if d >= min && d < max {
			out = append(out, Candidate{ID: id, Distance: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}
