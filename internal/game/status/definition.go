// Package status implements timed status effects with separate combat (beat)
// and world (step) clocks, compounding reapplication and death interception.
package status

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultGrowth = 1.1
	defaultRefill = 0.5
)

// Def is the static definition of a status effect, loaded from YAML.
// ID doubles as the status type used for stacking and lookup.
type Def struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Kind        string  `yaml:"kind"`   // see the Kind* constants
	Beats       int     `yaml:"beats"`  // combat duration
	Steps       int     `yaml:"steps"`  // world duration
	Combat      bool    `yaml:"combat"` // ticks while the target is in combat
	World       bool    `yaml:"world"`  // ticks while the target is out of combat
	Compounding bool    `yaml:"compounding"`
	Persistent  bool    `yaml:"persistent"`
	Hidden      bool    `yaml:"hidden"`
	Magnitude   float64 `yaml:"magnitude"`
	Element     string  `yaml:"element"` // damage_over_time only
	Stat        string  `yaml:"stat"`    // stat_modifier only
	// Growth multiplies intensity and max durations on compounding. 0 means 1.1.
	Growth float64 `yaml:"compound_growth"`
	// Refill is the fraction of the new max added back to the remaining counters. 0 means 0.5.
	Refill      float64 `yaml:"compound_refill"`
	LuaOnApply  string  `yaml:"lua_on_apply"`
	LuaOnTick   string  `yaml:"lua_on_tick"`
	LuaOnRemove string  `yaml:"lua_on_remove"`
}

// Validate checks the definition's invariants.
//
// Postcondition: nil guarantees a known Kind, at least one regime, and a positive
// duration for every enabled regime.
func (d *Def) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("status def: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("status def %q: name must not be empty", d.ID)
	}
	if d.Kind == "" {
		d.Kind = KindMarker
	}
	if _, ok := behaviors[d.Kind]; !ok {
		return fmt.Errorf("status def %q: unknown kind %q", d.ID, d.Kind)
	}
	if !d.Combat && !d.World {
		return fmt.Errorf("status def %q: at least one of combat or world must be true", d.ID)
	}
	if d.Combat && d.Beats < 1 {
		return fmt.Errorf("status def %q: combat effects need beats >= 1", d.ID)
	}
	if d.World && d.Steps < 1 {
		return fmt.Errorf("status def %q: world effects need steps >= 1", d.ID)
	}
	if d.Growth != 0 && d.Growth < 1 {
		return fmt.Errorf("status def %q: compound_growth must be >= 1", d.ID)
	}
	if d.Refill < 0 || d.Refill > 1 {
		return fmt.Errorf("status def %q: compound_refill must be in [0, 1]", d.ID)
	}
	if d.Kind == KindStatModifier && d.Stat == "" {
		return fmt.Errorf("status def %q: stat_modifier needs a stat", d.ID)
	}
	return nil
}

func (d *Def) growth() float64 {
	if d.Growth == 0 {
		return defaultGrowth
	}
	return d.Growth
}

func (d *Def) refill() float64 {
	if d.Refill == 0 {
		return defaultRefill
	}
	return d.Refill
}

// Registry holds all known Defs keyed by ID.
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
		return fmt.Errorf("status registry: def must not be nil")
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

// All returns a snapshot of all registered Defs ordered by ID.
func (r *Registry) All() []*Def {
	out := make([]*Def, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Def,
// and returns a populated Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading status dir %q: %w", dir, err)
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
