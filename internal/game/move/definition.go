// Package move implements staged combat moves: a READY → CASTING → RESOLVING →
// COOLDOWN → READY state machine driven by the shared beat clock.
package move

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// Effect kinds applied when a move resolves.
const (
	EffectDamage   = "damage"
	EffectHeal     = "heal"
	EffectStatus   = "status"
	EffectHeat     = "heat"
	EffectDistance = "distance"
	EffectFatigue  = "fatigue"
)

var knownEffects = map[string]bool{
	EffectDamage: true, EffectHeal: true, EffectStatus: true,
	EffectHeat: true, EffectDistance: true, EffectFatigue: true,
}

// EffectSpec is one data-driven consequence of a resolved move.
type EffectSpec struct {
	Kind string `yaml:"kind"`
	// Amount is a dice expression (damage, heal, fatigue).
	Amount  string `yaml:"amount"`
	Element string `yaml:"element"`
	// Status is the status def ID applied by a status effect.
	Status string `yaml:"status"`
	// Multiplier and Add feed heat.Gauge.Change. An unset Multiplier means 1;
	// an explicit 0 drops heat to its floor.
	Multiplier *float64 `yaml:"multiplier"`
	Add        float64  `yaml:"add"`
	// Delta shifts the user/target distance; negative closes in.
	Delta float64 `yaml:"delta"`
	// Self redirects the effect at the move's user instead of its target.
	Self bool `yaml:"self"`
}

// Def is the static definition of a move, loaded from YAML.
type Def struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	FatigueCost int     `yaml:"fatigue_cost"`
	Targeted    bool    `yaml:"targeted"`
	MinRange    float64 `yaml:"min_range"`
	// MaxRange is exclusive. 0 means unbounded.
	MaxRange      float64      `yaml:"max_range"`
	Instant       bool         `yaml:"instant"`
	CastBeats     int          `yaml:"cast_beats"`
	ResolveBeats  int          `yaml:"resolve_beats"`
	CooldownBeats int          `yaml:"cooldown_beats"`
	Effects       []EffectSpec `yaml:"effects"`
	LuaOnResolve  string       `yaml:"lua_on_resolve"`
}

// Band returns the [min, max) targeting interval.
func (d *Def) Band() (float64, float64) {
	if d.MaxRange <= 0 {
		return d.MinRange, math.Inf(1)
	}
	return d.MinRange, d.MaxRange
}

// Validate checks the definition's invariants.
// HeatMultiplier returns the multiplier passed to the heat gauge.
func (e EffectSpec) HeatMultiplier() float64 {
	if e.Multiplier == nil {
		return 1
	}
	return *e.Multiplier
}

func (d *Def) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("move def: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("move def %q: name must not be empty", d.ID)
	}
	if d.FatigueCost < 0 {
		return fmt.Errorf("move def %q: fatigue_cost must be >= 0", d.ID)
	}
	if d.MinRange < 0 {
		return fmt.Errorf("move def %q: min_range must be >= 0", d.ID)
	}
	if d.MaxRange > 0 && d.MaxRange <= d.MinRange {
		return fmt.Errorf("move def %q: max_range must exceed min_range", d.ID)
	}
	if d.CastBeats < 0 || d.ResolveBeats < 0 || d.CooldownBeats < 0 {
		return fmt.Errorf("move def %q: stage lengths must be >= 0", d.ID)
	}
	for i, e := range d.Effects {
		if !knownEffects[e.Kind] {
			return fmt.Errorf("move def %q: effect %d: unknown kind %q", d.ID, i, e.Kind)
		}
		switch e.Kind {
		case EffectDamage, EffectHeal, EffectFatigue:
			if _, err := dice.Parse(e.Amount); err != nil {
				return fmt.Errorf("move def %q: effect %d: %w", d.ID, i, err)
			}
		case EffectStatus:
			if e.Status == "" {
				return fmt.Errorf("move def %q: effect %d: status effect needs a status id", d.ID, i)
			}
		}
	}
	return nil
}

// Registry holds all known move Defs keyed by ID.
type Registry struct {
	defs map[string]*Def
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Def)}
}

// Register adds def to the registry, overwriting any existing entry with the same ID.
//
// Precondition: def must not be nil and must pass Validate.
func (r *Registry) Register(def *Def) error {
	if def == nil {
		return fmt.Errorf("move registry: def must not be nil")
	}
	if err := def.Validate(); err != nil {
		return err
	}
	r.defs[def.ID] = def
	return nil
}

// Get returns the Def for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Def, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns every registered Def ordered by ID.
func (r *Registry) All() []*Def {
	out := make([]*Def, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory reads every *.yaml file in dir as a Def.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error naming the first bad file.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading move dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Def
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := reg.Register(&def); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return reg, nil
}
